package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"time"

	"google.golang.org/api/googleapi"
)

// RetryBackoff is the base delay of GetBodyRetryReq: the i-th retry waits ((1<<i)-1)*RetryBackoff
var RetryBackoff = time.Second

// NewJSONRequest returns a function creating a request with the JSON encoding of body (if not nil)
// It can be passed to GetBodyRetryReq.
func NewJSONRequest(ctx context.Context, method, url string, body interface{}) (func() (*http.Request, error), error) {
	var data []byte
	if body != nil {
		var err error
		if data, err = json.Marshal(body); err != nil {
			return nil, fmt.Errorf("NewJSONRequest.Marshal: %w", err)
		}
	}
	return func() (*http.Request, error) {
		var r io.Reader
		if data != nil {
			r = bytes.NewReader(data)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, r)
		if err != nil {
			return nil, err
		}
		if data != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		return req, nil
	}, nil
}

// GetBodyRetryReq sends the request with N retries in case of temporary errors
// newReq is called for each try, so that the body can be sent again.
// The backoff between the tries is interrupted when the context of the request is done.
// Errors with a 4xx status are returned at once as *googleapi.Error
func GetBodyRetryReq(client *http.Client, newReq func() (*http.Request, error), nbRetries int) ([]byte, error) {
	var e *neturl.Error
	var body []byte
	var err error

	if client == nil {
		client = http.DefaultClient
	}
	for i := range nbRetries + 1 {
		req, rerr := newReq()
		if rerr != nil {
			return nil, fmt.Errorf("NewRequest: %w", rerr)
		}
		if i > 0 {
			// Exponential backoff
			select {
			case <-req.Context().Done():
				return nil, fmt.Errorf("GetBodyRetryReq: %w (last error: %v)", req.Context().Err(), err)
			case <-time.After(time.Duration((1<<i)-1) * RetryBackoff):
			}
		}
		body, err = func() ([]byte, error) {
			resp, err := client.Do(req)
			if err != nil {
				return nil, err
			}
			defer resp.Body.Close()
			if err := googleapi.CheckResponse(resp); err != nil {
				return nil, err
			}
			return io.ReadAll(resp.Body)
		}()
		if err == nil {
			return body, nil
		}
		if req.Context().Err() != nil {
			return nil, err
		}
		var gerr *googleapi.Error
		if errors.As(err, &gerr) {
			if gerr.Code >= 400 && gerr.Code < 500 && gerr.Code != 429 {
				return nil, err
			}
			continue
		}
		if !errors.As(err, &e) && !Temporary(err) {
			return nil, err
		}
	}
	return nil, MakeTemporary(err)
}

// GetJSONRetryReq calls GetBodyRetryReq and decodes the JSON response into v
func GetJSONRetryReq(client *http.Client, newReq func() (*http.Request, error), nbRetries int, v interface{}) error {
	body, err := GetBodyRetryReq(client, newReq, nbRetries)
	if err != nil {
		return err
	}
	if v == nil {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("GetJSONRetryReq.Unmarshal: %w", err)
	}
	return nil
}
