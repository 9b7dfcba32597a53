package earthengine

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/airbusgeo/geocube-sampler/service/geometry"
	"golang.org/x/oauth2/google"
)

const (
	DefaultEndpoint = "https://earthengine.googleapis.com"
	// Project hosting the public catalog
	PublicProject   = "earthengine-public"
	DefaultPageSize = 1000
	DefaultRetries  = 3
)

// Scopes required by the client
var Scopes = []string{
	"https://www.googleapis.com/auth/earthengine",
	"https://www.googleapis.com/auth/cloud-platform",
}

// metersPerDegree at the equator
const metersPerDegree = 111319.49079327357

// Client of the Earth Engine REST API. It implements imagery.Service
type Client struct {
	endpoint string
	project  string
	retries  int
	pageSize int
	client   *http.Client
}

// Option of the client
type Option func(c *Client)

// WithEndpoint sets the url of the API (default: DefaultEndpoint)
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		c.endpoint = strings.TrimSuffix(endpoint, "/")
	}
}

// WithHTTPClient sets the authenticated http client (default: google.DefaultClient)
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

// WithRetries sets the number of retries of the requests in case of temporary failure
func WithRetries(retries int) Option {
	return func(c *Client) {
		c.retries = retries
	}
}

// WithPageSize sets the number of images per page of the catalog queries
func WithPageSize(pageSize int) Option {
	return func(c *Client) {
		c.pageSize = pageSize
	}
}

// New creates a client of the Earth Engine API on behalf of the cloud project
// Without WithHTTPClient option, the application default credentials are used.
func New(ctx context.Context, project string, opts ...Option) (*Client, error) {
	if project == "" {
		return nil, fmt.Errorf("earthengine.New: project is required")
	}
	c := &Client{
		endpoint: DefaultEndpoint,
		project:  project,
		retries:  DefaultRetries,
		pageSize: DefaultPageSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		var err error
		if c.client, err = google.DefaultClient(ctx, Scopes...); err != nil {
			return nil, fmt.Errorf("earthengine.New.DefaultClient: %w", err)
		}
	}
	return c, nil
}

func (c *Client) projectURL(project, method string) string {
	return fmt.Sprintf("%s/v1/projects/%s/%s", c.endpoint, project, method)
}

type affineTransform struct {
	ScaleX     float64 `json:"scaleX"`
	ShearX     float64 `json:"shearX"`
	TranslateX float64 `json:"translateX"`
	ShearY     float64 `json:"shearY"`
	ScaleY     float64 `json:"scaleY"`
	TranslateY float64 `json:"translateY"`
}

type dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type pixelGrid struct {
	CRSCode         string          `json:"crsCode"`
	AffineTransform affineTransform `json:"affineTransform"`
	Dimensions      dimensions      `json:"dimensions"`
}

// newPixelGrid returns the north-up grid covering the region in the crs, with square pixels of scale meters
func newPixelGrid(region geometry.Region, crs string, scale float64) (pixelGrid, error) {
	r, err := region.Reproject(crs)
	if err != nil {
		return pixelGrid{}, fmt.Errorf("newPixelGrid.%w", err)
	}
	if r.CRS == geometry.CRSGeographic {
		scale /= metersPerDegree
	}
	ext := r.Extent()
	return pixelGrid{
		CRSCode: r.CRS,
		AffineTransform: affineTransform{
			ScaleX:     scale,
			TranslateX: ext.MinX(),
			ScaleY:     -scale,
			TranslateY: ext.MaxY(),
		},
		Dimensions: dimensions{
			Width:  int(math.Max(1, math.Ceil(ext.XSpan()/scale))),
			Height: int(math.Max(1, math.Ceil(ext.YSpan()/scale))),
		},
	}, nil
}
