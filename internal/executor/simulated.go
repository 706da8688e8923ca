package executor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	dlppb "cloud.google.com/go/dlp/apiv2/dlppb"
	"github.com/mattkinnersley/cloud-dlp-hook/internal/state"
	statuspb "google.golang.org/genproto/googleapis/rpc/status"
	"google.golang.org/grpc/codes"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// SimulatedExecutor pretends to run jobs: it waits startDelay before
// moving a job to RUNNING and duration before moving it to DONE.
type SimulatedExecutor struct {
	store      *state.Store
	startDelay time.Duration
	duration   time.Duration

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

func NewSimulatedExecutor(store *state.Store, startDelay, duration time.Duration) *SimulatedExecutor {
	return &SimulatedExecutor{
		store:      store,
		startDelay: startDelay,
		duration:   duration,
		cancels:    make(map[string]context.CancelFunc),
	}
}

func (e *SimulatedExecutor) Run(name string) {
	ctx, cancel := context.WithCancel(context.Background())
	e.mu.Lock()
	e.cancels[name] = cancel
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		delete(e.cancels, name)
		e.mu.Unlock()
		cancel()
	}()

	logger := slog.With("job", name)

	if !sleep(ctx, e.startDelay) {
		return
	}
	job, err := e.store.Jobs.Update(name, func(j *dlppb.DlpJob) error {
		if j.State != dlppb.DlpJob_PENDING {
			return fmt.Errorf("job is %s", j.State)
		}
		j.State = dlppb.DlpJob_RUNNING
		j.StartTime = timestamppb.Now()
		return nil
	})
	if err != nil {
		logger.Warn("job not started", "error", err)
		return
	}
	logger.Info("job running")

	if reason := validate(job); reason != "" {
		e.finish(name, dlppb.DlpJob_FAILED, reason)
		logger.Warn("job failed", "reason", reason)
		return
	}

	if !sleep(ctx, e.duration) {
		return
	}
	e.finish(name, dlppb.DlpJob_DONE, "")
	logger.Info("job completed successfully")
}

func (e *SimulatedExecutor) Cancel(name string) error {
	_, err := e.store.Jobs.Update(name, func(j *dlppb.DlpJob) error {
		if j.State != dlppb.DlpJob_PENDING && j.State != dlppb.DlpJob_RUNNING {
			return fmt.Errorf("job %s is %s", name, j.State)
		}
		j.State = dlppb.DlpJob_CANCELED
		j.EndTime = timestamppb.Now()
		return nil
	})
	if err != nil {
		return err
	}

	e.mu.Lock()
	cancel, ok := e.cancels[name]
	e.mu.Unlock()
	if ok {
		cancel()
	}
	return nil
}

// finish moves a running job to a terminal state. A job cancelled in
// the meantime keeps its CANCELED state.
func (e *SimulatedExecutor) finish(name string, to dlppb.DlpJob_JobState, reason string) {
	_, err := e.store.Jobs.Update(name, func(j *dlppb.DlpJob) error {
		if j.State != dlppb.DlpJob_RUNNING {
			return fmt.Errorf("job is %s", j.State)
		}
		now := timestamppb.Now()
		j.State = to
		j.EndTime = now
		if reason != "" {
			j.Errors = append(j.Errors, &dlppb.Error{
				Details:    &statuspb.Status{Code: int32(codes.InvalidArgument), Message: reason},
				Timestamps: []*timestamppb.Timestamp{now},
			})
		}
		if d := j.GetInspectDetails(); d != nil && to == dlppb.DlpJob_DONE {
			d.Result = &dlppb.InspectDataSourceDetails_Result{}
		}
		return nil
	})
	if err != nil {
		slog.Warn("job not finished", "job", name, "error", err)
	}
}

// validate reports why a job cannot run, or "" if it can.
func validate(job *dlppb.DlpJob) string {
	switch d := job.GetDetails().(type) {
	case *dlppb.DlpJob_InspectDetails:
		if d.InspectDetails.GetRequestedOptions().GetJobConfig().GetStorageConfig() == nil {
			return "inspect job has no storage config"
		}
	case *dlppb.DlpJob_RiskDetails:
		if d.RiskDetails.GetRequestedSourceTable() == nil {
			return "risk analysis job has no source table"
		}
	default:
		return "job has no config"
	}
	return ""
}

// sleep waits for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
