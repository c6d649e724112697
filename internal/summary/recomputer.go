package summary

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/relieflabs/go-drms/internal/events"
	"github.com/relieflabs/go-drms/internal/metrics"
	"github.com/relieflabs/go-drms/internal/models"
	"github.com/relieflabs/go-drms/internal/repository"
	"github.com/relieflabs/go-drms/internal/verification"
)

// Job identifies one entity+incident pair whose gap summary needs
// recomputing.
type Job struct {
	EntityID   string
	IncidentID string
}

// Recomputer keeps gap_summaries in sync with verified assessments. It
// subscribes to the verification event feed and fans jobs out to a small
// worker pool; the dashboard only ever reads the rollup table.
type Recomputer struct {
	assessments repository.AssessmentRepository
	summaries   repository.SummaryRepository
	broadcaster *events.Broadcaster
	metrics     *metrics.Metrics

	numWorkers int
	jobs       chan Job
	subID      uint64
	wg         sync.WaitGroup
	consumeWg  sync.WaitGroup
}

func NewRecomputer(
	numWorkers, bufferSize int,
	assessments repository.AssessmentRepository,
	summaries repository.SummaryRepository,
	broadcaster *events.Broadcaster,
	m *metrics.Metrics,
) *Recomputer {
	return &Recomputer{
		assessments: assessments,
		summaries:   summaries,
		broadcaster: broadcaster,
		metrics:     m,
		numWorkers:  numWorkers,
		jobs:        make(chan Job, bufferSize),
	}
}

func (r *Recomputer) Start(ctx context.Context) {
	for i := 1; i <= r.numWorkers; i++ {
		r.wg.Add(1)
		go r.worker(ctx)
	}

	if r.broadcaster != nil {
		id, ch := r.broadcaster.Subscribe()
		r.subID = id
		r.consumeWg.Add(1)
		go r.consume(ctx, ch)
	}
}

// consume translates terminal verification events into recompute jobs.
// Submissions and rejections don't change the verified picture, so they are
// skipped.
func (r *Recomputer) consume(ctx context.Context, ch chan events.Event) {
	defer r.consumeWg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if ev.Kind != events.KindAssessment || !ev.Status.Verified() {
				continue
			}
			r.Submit(Job{EntityID: ev.EntityID, IncidentID: ev.IncidentID})
		}
	}
}

func (r *Recomputer) worker(ctx context.Context) {
	defer r.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-r.jobs:
			if !ok {
				return
			}
			if err := r.recompute(ctx, job); err != nil {
				slog.Error("gap summary recompute failed",
					"entity_id", job.EntityID, "incident_id", job.IncidentID, "error", err)
				continue
			}
			if r.metrics != nil {
				r.metrics.SummaryJobs.Inc()
			}
		}
	}
}

// Submit drops the job when the buffer is full; a later event for the same
// pair recomputes the same rollup.
func (r *Recomputer) Submit(job Job) {
	select {
	case r.jobs <- job:
	default:
		slog.Warn("summary job buffer full, dropping job",
			"entity_id", job.EntityID, "incident_id", job.IncidentID)
	}
}

// Stop drains the event subscription before closing the job channel, so the
// consumer never submits into a closed channel.
func (r *Recomputer) Stop() {
	if r.broadcaster != nil && r.subID != 0 {
		r.broadcaster.Unsubscribe(r.subID)
	}
	r.consumeWg.Wait()
	close(r.jobs)
	r.wg.Wait()
	slog.Info("gap summary recomputer stopped")
}

func (r *Recomputer) recompute(ctx context.Context, job Job) error {
	all, err := r.assessments.ListAssessments(ctx, repository.AssessmentFilter{
		EntityID:   job.EntityID,
		IncidentID: job.IncidentID,
		Limit:      500,
	})
	if err != nil {
		return err
	}

	g := &models.GapSummary{
		EntityID:   job.EntityID,
		IncidentID: job.IncidentID,
	}
	var worst verification.GapSeverity

	for i := range all {
		a := &all[i]
		if !a.Status.Verified() {
			continue
		}
		gaps, err := verification.AnalyzeGaps(a)
		if err != nil {
			slog.Warn("skipping assessment with undecodable details", "assessment_id", a.ID, "error", err)
			continue
		}
		for _, gap := range gaps {
			switch gap.Severity {
			case verification.GapSeverityCritical:
				g.CriticalGaps++
			case verification.GapSeverityHigh:
				g.HighGaps++
			case verification.GapSeverityModerate:
				g.ModerateGaps++
			case verification.GapSeverityLow:
				g.LowGaps++
			}
		}
		if s := verification.WorstSeverity(gaps); verification.SeverityRank(s) > verification.SeverityRank(worst) {
			worst = s
		}
	}

	g.WorstSeverity = string(worst)
	g.UpdatedAt = time.Now()
	return r.summaries.UpsertGapSummary(ctx, g)
}
