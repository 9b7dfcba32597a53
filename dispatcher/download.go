package dispatcher

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/airbusgeo/geocube-sampler/service"
	"github.com/airbusgeo/geocube-sampler/service/log"
	"github.com/cavaliercoder/grab"
)

func fmtBytes(bytes int64) string {
	v := float64(bytes)
	switch {
	case v > 1<<30:
		return fmt.Sprintf("%.2fGo", v/(1<<30))
	case v > 1<<20:
		return fmt.Sprintf("%.2fMo", v/(1<<20))
	case v > 1<<10:
		return fmt.Sprintf("%.2fko", v/(1<<10))
	default:
		return fmt.Sprintf("%.2fo", v)
	}
}

// displayProgress logs the progress of the download each time it increases by progressPeriod
// The rasters are generated on the fly, so the size is often unknown: the bytes are logged anyway.
func displayProgress(ctx context.Context, prefix string, resp *grab.Response, progressPeriod float64) {
	t := time.NewTicker(time.Second)
	defer t.Stop()

	progress, lastBytes, seconds := 0.0, int64(0), int64(0)
	for {
		select {
		case <-t.C:
			seconds++
			if resp.Size <= 0 || resp.Progress() > progress {
				log.Logger(ctx).Sugar().Debugf("%s: %.2f%% %s/%s (%s/s)", prefix, 100*resp.Progress(), fmtBytes(resp.BytesComplete()), fmtBytes(resp.Size), fmtBytes((resp.BytesComplete()-lastBytes)/seconds))
				seconds = 0
				progress += progressPeriod
				lastBytes = resp.BytesComplete()
			}

		case <-resp.Done:
			return
		}
	}
}

// download the raster at url into localFile, with display every 5%
// Errors on timeout and on 408, 429, 5xx statuses are temporary.
func download(ctx context.Context, httpClient *http.Client, url, localFile, displayPrefix string) error {
	req, err := grab.NewRequest(localFile, url)
	if err != nil {
		return fmt.Errorf("download.NewRequest: %w", err)
	}
	req = req.WithContext(ctx)
	// The raster of a thumbnail is regenerated at each call
	req.NoResume = true

	client := grab.NewClient()
	if httpClient != nil {
		client.HTTPClient = httpClient
	}
	resp := client.Do(req)

	displayProgress(ctx, displayPrefix, resp, 0.05)

	if err := resp.Err(); err != nil {
		err = fmt.Errorf("download[%s]: %w", displayPrefix, err)
		if resp.HTTPResponse == nil {
			return service.MakeTemporary(err)
		}
		switch resp.HTTPResponse.StatusCode {
		case 408, 429, 500, 501, 502, 503, 504:
			return service.MakeTemporary(err)
		case 401, 403:
			return service.Errorf(service.ErrAuthenticationRequired, "%w", err)
		default:
			return err
		}
	}
	return nil
}
