package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/airbusgeo/geocube-sampler/catalog/entities"
	"github.com/airbusgeo/geocube-sampler/common"
	"github.com/airbusgeo/geocube-sampler/interface/imagery"
	"github.com/airbusgeo/geocube-sampler/service"
	"github.com/airbusgeo/geocube-sampler/service/log"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Publisher of the outcome events (see geocube messaging.Publisher)
type Publisher interface {
	Publish(ctx context.Context, data ...[]byte) error
}

// Outcome of a dispatched job
type Outcome struct {
	Index     int
	RequestID string
	Name      string
	Mode      entities.Mode
	Status    common.Status
	URI       string // Direct mode: uri of the stored raster
	TaskID    string // Mosaic mode: id of the export task
	Err       error
}

// Result returns the event of the outcome
func (o Outcome) Result() common.Result {
	r := common.Result{
		Type:      common.ResultTypeDownload,
		RequestID: o.RequestID,
		Index:     o.Index,
		Name:      o.Name,
		Status:    o.Status,
		URI:       o.URI,
		TaskID:    o.TaskID,
		Time:      time.Now().UTC(),
	}
	if o.Mode == entities.ModeMosaic {
		r.Type = common.ResultTypeExport
	}
	if o.Err != nil {
		r.Message = o.Err.Error()
	}
	return r
}

// Dispatcher executes the jobs of a plan
type Dispatcher struct {
	Service imagery.Service
	// Storage of the rasters of the direct jobs
	Storage service.Storage
	// Optional
	Publisher Publisher
	// Number of jobs dispatched in parallel (default: 1)
	Workers int
	// Timeout of a direct download (0: no timeout)
	Timeout time.Duration
	// Jobs whose output already exists in Storage are skipped
	SkipExisting bool
	// Working directory of the downloads (default: os.TempDir())
	WorkDir string
	// Client used to download the rasters (default: grab client)
	HTTPClient *http.Client
	// Period of the status polling of Wait (default: 30s)
	PollInterval time.Duration
	// Number of consecutive permanent errors of the status of an export before it is considered failed (default: 3)
	StatusRetries int
}

// Dispatch executes the job. It never panics nor returns an error: the failure is recorded in the outcome.
// Direct jobs are downloaded and stored, mosaic jobs are scheduled for an asynchronous export.
func (d *Dispatcher) Dispatch(ctx context.Context, job entities.ExportJob) Outcome {
	o := Outcome{
		Index:     job.Index,
		RequestID: job.RequestID,
		Name:      job.Name,
		Mode:      job.Mode(),
		Status:    common.StatusFAILED,
	}
	if d.Service == nil {
		o.Err = fmt.Errorf("Dispatch: imagery service is not defined")
		return o
	}
	ctx = log.WithFields(ctx, zap.String("job", job.Name), zap.Int("index", job.Index))

	var err error
	switch o.Mode {
	case entities.ModeMosaic:
		o.TaskID, err = d.Service.ScheduleExport(ctx, job)
		if err == nil {
			o.Status = common.StatusSCHEDULED
		}
	default:
		o.Status, o.URI, err = d.downloadJob(ctx, job)
	}
	if err != nil {
		o.Status = common.StatusFAILED
		if !errors.Is(err, service.ErrExportFailed) {
			err = service.Errorf(service.ErrExportFailed, "%s: %w", job.Name, service.AuthError(err))
		}
		o.Err = err
	}
	dispatchedJobs.WithLabelValues(string(o.Mode), o.Status.String()).Inc()
	return o
}

// downloadJob retrieves the raster of a direct job and stores it
func (d *Dispatcher) downloadJob(ctx context.Context, job entities.ExportJob) (common.Status, string, error) {
	if d.Storage == nil {
		return common.StatusFAILED, "", fmt.Errorf("downloadJob: storage is not defined")
	}
	fileName := job.FileName()
	if d.SkipExisting {
		exists, err := d.Storage.Exists(ctx, fileName)
		if err != nil {
			return common.StatusFAILED, "", fmt.Errorf("downloadJob.%w", err)
		}
		if exists {
			log.Logger(ctx).Sugar().Infof("%s already exists: skipped", d.Storage.URI(fileName))
			return common.StatusSKIPPED, d.Storage.URI(fileName), nil
		}
	}

	if d.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}

	url, err := d.Service.RasterURL(ctx, job)
	if err != nil {
		return common.StatusFAILED, "", fmt.Errorf("downloadJob.%w", err)
	}

	tmpDir, err := os.MkdirTemp(d.WorkDir, "eedl-")
	if err != nil {
		return common.StatusFAILED, "", service.MakeTemporary(fmt.Errorf("downloadJob.MkdirTemp: %w", err))
	}
	defer os.RemoveAll(tmpDir)

	localFile := filepath.Join(tmpDir, fileName)
	start := time.Now()
	if err := download(ctx, d.HTTPClient, url, localFile, job.Name); err != nil {
		return common.StatusFAILED, "", fmt.Errorf("downloadJob.%w", err)
	}
	downloadDuration.Observe(time.Since(start).Seconds())

	uri, err := d.Storage.Save(ctx, localFile, fileName)
	if err != nil {
		return common.StatusFAILED, "", fmt.Errorf("downloadJob.%w", err)
	}
	return common.StatusDOWNLOADED, uri, nil
}

// DispatchAll executes the jobs, Workers at a time, and returns their outcomes in the order of the jobs.
// The outcomes are logged and published in the order of the jobs, as soon as all the previous jobs are done.
// Cancelling the context stops the dispatch of the remaining jobs (recorded as failed);
// the jobs already dispatched are left in place.
func (d *Dispatcher) DispatchAll(ctx context.Context, jobs []entities.ExportJob) []Outcome {
	outcomes := make([]Outcome, len(jobs))
	done := make([]chan struct{}, len(jobs))
	for i := range done {
		done[i] = make(chan struct{})
	}

	workers := d.Workers
	if workers < 1 {
		workers = 1
	}
	g := errgroup.Group{}
	g.SetLimit(workers)

	// Reporter: in job order
	reported := make(chan struct{})
	go func() {
		defer close(reported)
		for i := range jobs {
			<-done[i]
			d.report(ctx, outcomes[i])
		}
	}()

	for i := range jobs {
		if ctx.Err() != nil {
			outcomes[i] = canceledOutcome(jobs[i], ctx.Err())
			close(done[i])
			continue
		}
		g.Go(func() error {
			defer close(done[i])
			if ctx.Err() != nil {
				outcomes[i] = canceledOutcome(jobs[i], ctx.Err())
				return nil
			}
			outcomes[i] = d.Dispatch(ctx, jobs[i])
			return nil
		})
	}
	g.Wait()
	<-reported
	return outcomes
}

func canceledOutcome(job entities.ExportJob, err error) Outcome {
	return Outcome{
		Index:     job.Index,
		RequestID: job.RequestID,
		Name:      job.Name,
		Mode:      job.Mode(),
		Status:    common.StatusFAILED,
		Err:       service.Errorf(service.ErrExportFailed, "%s: not dispatched: %w", job.Name, err),
	}
}

// report logs the outcome and publishes its event
func (d *Dispatcher) report(ctx context.Context, o Outcome) {
	logger := log.Logger(ctx).Sugar()
	switch o.Status {
	case common.StatusDOWNLOADED:
		logger.Infof("[%d] %s: downloaded to %s", o.Index, o.Name, o.URI)
	case common.StatusSCHEDULED:
		logger.Infof("[%d] %s: export scheduled (task: %s)", o.Index, o.Name, o.TaskID)
	case common.StatusSKIPPED:
		logger.Infof("[%d] %s: skipped", o.Index, o.Name)
	default:
		logger.Warnf("[%d] %s: failed: %v", o.Index, o.Name, o.Err)
	}
	if d.Publisher == nil {
		return
	}
	b, err := o.Result().Marshal()
	if err == nil {
		// The events are still sent when the batch is interrupted
		err = d.Publisher.Publish(context.WithoutCancel(ctx), b)
	}
	if err != nil {
		logger.Warnf("[%d] %s: publish event: %v", o.Index, o.Name, err)
	}
}

// Summary counts the outcomes per status
type Summary map[common.Status]int

// Summarize returns the number of outcomes per status
func Summarize(outcomes []Outcome) Summary {
	s := Summary{}
	for _, o := range outcomes {
		s[o.Status]++
	}
	return s
}

func (s Summary) String() string {
	return fmt.Sprintf("%d downloaded, %d scheduled, %d skipped, %d failed",
		s[common.StatusDOWNLOADED], s[common.StatusSCHEDULED], s[common.StatusSKIPPED], s[common.StatusFAILED])
}

// Wait polls the status of the scheduled exports until they are all done or the context is cancelled.
// A task whose status cannot be retrieved StatusRetries times in a row (permanent errors) is recorded as failed.
// It returns the final status of each task, and an error merging the failures.
func (d *Dispatcher) Wait(ctx context.Context, outcomes []Outcome) (map[string]imagery.ExportStatus, error) {
	pending := map[string]Outcome{}
	for _, o := range outcomes {
		if o.Status == common.StatusSCHEDULED && o.TaskID != "" {
			pending[o.TaskID] = o
		}
	}
	interval := d.PollInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}

	retries := d.StatusRetries
	if retries <= 0 {
		retries = 3
	}

	statuses := map[string]imagery.ExportStatus{}
	statusErrors := map[string]int{}
	var errs error
	for len(pending) > 0 {
		for taskID, o := range pending {
			status, err := d.Service.ExportStatus(ctx, taskID)
			if err != nil {
				if ctx.Err() != nil {
					return statuses, ctx.Err()
				}
				log.Logger(ctx).Sugar().Warnf("[%d] %s: ExportStatus: %v", o.Index, o.Name, err)
				if service.Temporary(err) {
					continue
				}
				if statusErrors[taskID]++; statusErrors[taskID] < retries {
					continue
				}
				status = imagery.ExportStatus{TaskID: taskID, State: imagery.ExportFailed, Error: err.Error()}
			} else {
				delete(statusErrors, taskID)
			}
			if !status.State.Done() {
				continue
			}
			statuses[taskID] = status
			delete(pending, taskID)
			exportedJobs.WithLabelValues(string(status.State)).Inc()
			if status.State == imagery.ExportSucceeded {
				log.Logger(ctx).Sugar().Infof("[%d] %s: export succeeded", o.Index, o.Name)
			} else {
				err := service.Errorf(service.ErrExportFailed, "%s: %s %s", o.Name, status.State, status.Error)
				log.Logger(ctx).Sugar().Warnf("[%d] %v", o.Index, err)
				errs = service.MergeErrors(true, errs, err)
			}
		}
		if len(pending) == 0 {
			break
		}
		log.Logger(ctx).Sugar().Debugf("%d exports pending", len(pending))
		select {
		case <-ctx.Done():
			return statuses, ctx.Err()
		case <-time.After(interval):
		}
	}
	return statuses, errs
}
