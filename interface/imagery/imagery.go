package imagery

import (
	"context"
	"time"

	"github.com/airbusgeo/geocube-sampler/catalog/entities"
	"github.com/airbusgeo/geocube-sampler/service/geometry"
)

// Query of the catalog of a collection
type Query struct {
	Collection    string
	Region        geometry.Region // Any supported CRS
	Start         time.Time       // Inclusive
	End           time.Time       // Exclusive
	CloudProperty string
	CloudCoverMin float64 // Inclusive
	CloudCoverMax float64 // Exclusive
	Limit         int     // 0: no limit
}

// NewQuery returns the query of the images of the region matching the filter
// Images are sorted by acquisition date.
func NewQuery(filter entities.FilterSpec, region geometry.Region, limit int) Query {
	return Query{
		Collection:    filter.Sensor.Collection(),
		Region:        region,
		Start:         filter.Start,
		End:           filter.EndExclusive(),
		CloudProperty: filter.Sensor.CloudProperty(),
		CloudCoverMin: filter.CloudCoverMin,
		CloudCoverMax: filter.CloudCoverMax,
		Limit:         limit,
	}
}

// ExportState is the state of an asynchronous export
type ExportState string

const (
	ExportPending   ExportState = "PENDING"
	ExportRunning   ExportState = "RUNNING"
	ExportSucceeded ExportState = "SUCCEEDED"
	ExportFailed    ExportState = "FAILED"
	ExportCancelled ExportState = "CANCELLED"
)

// Done returns true if the export is in a terminal state
func (s ExportState) Done() bool {
	return s == ExportSucceeded || s == ExportFailed || s == ExportCancelled
}

// ExportStatus is the status of an asynchronous export
type ExportStatus struct {
	TaskID string
	State  ExportState
	Error  string
}

// Service is the remote imagery-processing service
type Service interface {
	// QueryCatalog returns the images of the collection intersecting the region, sorted by acquisition date
	QueryCatalog(ctx context.Context, q Query) ([]entities.Scene, error)
	// RasterURL returns the url of the raster of a direct job (job.Scene)
	RasterURL(ctx context.Context, job entities.ExportJob) (string, error)
	// ScheduleExport starts the asynchronous export of a mosaic job and returns the task id
	ScheduleExport(ctx context.Context, job entities.ExportJob) (string, error)
	// ExportStatus returns the status of the task
	ExportStatus(ctx context.Context, taskID string) (ExportStatus, error)
}
