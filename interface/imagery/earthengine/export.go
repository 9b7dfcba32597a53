package earthengine

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/airbusgeo/geocube-sampler/catalog/entities"
	"github.com/airbusgeo/geocube-sampler/interface/imagery"
	"github.com/airbusgeo/geocube-sampler/service"
	"github.com/airbusgeo/geocube-sampler/service/log"
)

// MaxPixels of an export
const MaxPixels = 1e13

type thumbnailRequest struct {
	Expression Expression `json:"expression"`
	FileFormat string     `json:"fileFormat"`
	BandIDs    []string   `json:"bandIds"`
	Grid       pixelGrid  `json:"grid"`
}

type thumbnail struct {
	Name string `json:"name"`
}

// RasterURL implements imagery.Service
func (c *Client) RasterURL(ctx context.Context, job entities.ExportJob) (string, error) {
	if job.Scene == nil {
		return "", fmt.Errorf("RasterURL: job %d has no scene", job.Index)
	}
	grid, err := newPixelGrid(job.Region, job.Filter.CRS, job.Filter.Scale)
	if err != nil {
		return "", fmt.Errorf("RasterURL.%w", err)
	}
	newReq, err := service.NewJSONRequest(ctx, "POST", c.projectURL(c.project, "thumbnails"), thumbnailRequest{
		Expression: sceneExpression(job),
		FileFormat: job.Filter.Format.String(),
		BandIDs:    job.Filter.Bands,
		Grid:       grid,
	})
	if err != nil {
		return "", fmt.Errorf("RasterURL.%w", err)
	}
	var thumb thumbnail
	if err := service.GetJSONRetryReq(c.client, newReq, c.retries, &thumb); err != nil {
		return "", fmt.Errorf("RasterURL.%w", err)
	}
	if thumb.Name == "" {
		return "", fmt.Errorf("RasterURL: empty thumbnail name")
	}
	return fmt.Sprintf("%s/v1/%s:getPixels", c.endpoint, thumb.Name), nil
}

type driveDestination struct {
	Folder         string `json:"folder"`
	FilenamePrefix string `json:"filenamePrefix"`
}

type cloudStorageDestination struct {
	Bucket         string `json:"bucket"`
	FilenamePrefix string `json:"filenamePrefix"`
}

type fileExportOptions struct {
	FileFormat              string                   `json:"fileFormat"`
	DriveDestination        *driveDestination        `json:"driveDestination,omitempty"`
	CloudStorageDestination *cloudStorageDestination `json:"cloudStorageDestination,omitempty"`
}

type exportRequest struct {
	Expression        Expression        `json:"expression"`
	Description       string            `json:"description"`
	FileExportOptions fileExportOptions `json:"fileExportOptions"`
	Grid              pixelGrid         `json:"grid"`
	RequestID         string            `json:"requestId,omitempty"`
	MaxPixels         float64           `json:"maxPixels"`
}

type operation struct {
	Name     string `json:"name"`
	Done     bool   `json:"done"`
	Metadata struct {
		State       string `json:"state"`
		Description string `json:"description"`
	} `json:"metadata"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// exportOptions returns a drive destination, or a cloud storage destination if the uri is gs://bucket/prefix
func exportOptions(job entities.ExportJob) fileExportOptions {
	opts := fileExportOptions{FileFormat: job.Filter.Format.String()}
	if strings.HasPrefix(job.Destination.URI, "gs://") {
		bucket, prefix, _ := strings.Cut(strings.TrimPrefix(job.Destination.URI, "gs://"), "/")
		opts.CloudStorageDestination = &cloudStorageDestination{Bucket: bucket, FilenamePrefix: path.Join(prefix, job.Name)}
	} else {
		opts.DriveDestination = &driveDestination{Folder: job.Destination.URI, FilenamePrefix: job.Name}
	}
	return opts
}

// ScheduleExport implements imagery.Service
// The export is idempotent: the request id of the job is sent with the request.
func (c *Client) ScheduleExport(ctx context.Context, job entities.ExportJob) (string, error) {
	if job.Mosaic == nil {
		return "", fmt.Errorf("ScheduleExport: job %d is not a mosaic", job.Index)
	}
	grid, err := newPixelGrid(job.Region, job.Filter.CRS, job.Filter.Scale)
	if err != nil {
		return "", fmt.Errorf("ScheduleExport.%w", err)
	}
	newReq, err := service.NewJSONRequest(ctx, "POST", c.projectURL(c.project, "image:export"), exportRequest{
		Expression:        mosaicExpression(job),
		Description:       job.Name,
		FileExportOptions: exportOptions(job),
		Grid:              grid,
		RequestID:         job.RequestID,
		MaxPixels:         MaxPixels,
	})
	if err != nil {
		return "", fmt.Errorf("ScheduleExport.%w", err)
	}
	var op operation
	if err := service.GetJSONRetryReq(c.client, newReq, c.retries, &op); err != nil {
		return "", fmt.Errorf("ScheduleExport.%w", err)
	}
	log.Logger(ctx).Sugar().Debugf("ScheduleExport(%s): %s", job.Name, op.Name)
	return op.Name, nil
}

// ExportStatus implements imagery.Service
func (c *Client) ExportStatus(ctx context.Context, taskID string) (imagery.ExportStatus, error) {
	u := fmt.Sprintf("%s/v1/%s", c.endpoint, taskID)
	if !strings.HasPrefix(taskID, "projects/") {
		u = c.projectURL(c.project, "operations/"+taskID)
	}
	newReq, err := service.NewJSONRequest(ctx, "GET", u, nil)
	if err != nil {
		return imagery.ExportStatus{}, fmt.Errorf("ExportStatus.%w", err)
	}
	var op operation
	if err := service.GetJSONRetryReq(c.client, newReq, c.retries, &op); err != nil {
		return imagery.ExportStatus{}, fmt.Errorf("ExportStatus.%w", err)
	}

	status := imagery.ExportStatus{TaskID: taskID, State: imagery.ExportPending}
	switch op.Metadata.State {
	case "RUNNING", "CANCELLING":
		status.State = imagery.ExportRunning
	case "SUCCEEDED":
		status.State = imagery.ExportSucceeded
	case "FAILED":
		status.State = imagery.ExportFailed
	case "CANCELLED":
		status.State = imagery.ExportCancelled
	}
	if op.Error != nil {
		status.State = imagery.ExportFailed
		status.Error = op.Error.Message
	} else if op.Done && !status.State.Done() {
		status.State = imagery.ExportSucceeded
	}
	return status, nil
}
