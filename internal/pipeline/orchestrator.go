// Package pipeline drives a validated PipelineJob through the ordered LLM
// stages and assembles the final report. All stage outputs travel as
// results; the only place a failure becomes a returned error is the Run
// boundary, so the broker layer's retry decision stays a plain error check.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/AIObjectives/tttc-light-js-sub003/internal/client"
	"github.com/AIObjectives/tttc-light-js-sub003/internal/model"
	"github.com/AIObjectives/tttc-light-js-sub003/internal/result"
)

// sortKey is the fixed key the sort stage orders branches by.
const sortKey = "numPeople"

// cruxTopK bounds how many top cruxes the addon stage returns.
const cruxTopK = 10

const systemPrompt = "You are a professional research assistant analyzing public comments for a report."

// LLMService is the per-stage contract against the external LLM execution
// service.
type LLMService interface {
	TopicTree(ctx context.Context, comments []model.SourceRow, llm client.LLMSpec) (*client.Reply[model.Taxonomy], error)
	Claims(ctx context.Context, comments []model.SourceRow, tree model.Taxonomy, llm client.LLMSpec) (*client.Reply[model.ClaimsTree], error)
	SortClaims(ctx context.Context, tree model.ClaimsTree, sortKey string, llm client.LLMSpec) (*client.Reply[model.SortedTree], error)
	Cruxes(ctx context.Context, topics model.Taxonomy, cruxTree model.ClaimsTree, topK int, llm client.LLMSpec) (*client.Reply[model.CruxResult], error)
}

// Storage persists the final report document.
type Storage interface {
	Save(ctx context.Context, filename, content string) result.Result[string]
}

// StatusStore is the external status record the orchestrator reports
// progress and final statistics to.
type StatusStore interface {
	UpdateStatus(ctx context.Context, id string, status model.JobStatus, errMsg string) error
	UpdateStats(ctx context.Context, id, jobID string, stats model.ReportStats, reportURL string) error
}

// Orchestrator runs the report pipeline. Instances hold no per-job state
// and are safe to share across concurrent message handlers.
type Orchestrator struct {
	llm     LLMService
	storage Storage
	status  StatusStore
	now     func() time.Time
	newID   func() string
}

func NewOrchestrator(llm LLMService, storage Storage, status StatusStore) *Orchestrator {
	return &Orchestrator{
		llm:     llm,
		storage: storage,
		status:  status,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Run processes one job end to end. On success the report is saved and the
// status record marked finished; a terminal stage failure is converted to a
// returned error here and nowhere else. Run never updates the status record
// to failed — that belongs to the caller's failure path.
func (o *Orchestrator) Run(ctx context.Context, job *model.PipelineJob) error {
	id := job.Identity()
	log.Printf("Starting report pipeline for job %s (%d comments)", id, len(job.Data))

	tracker := model.NewTracker(o.now())

	o.reportProgress(ctx, id, model.StatusClustering)
	commentsRes := validateComments(job.Data)

	topicTreeRes := result.FlatMapCtx(ctx, commentsRes, func(ctx context.Context, comments []model.SourceRow) result.Result[*client.Reply[model.Taxonomy]] {
		return stageResult(o.llm.TopicTree(ctx, comments, o.llmSpec(job, job.Config.Instructions.Clustering)))
	})
	tracker = foldStep(tracker, topicTreeRes)

	if topicTreeRes.IsSuccess() {
		o.reportProgress(ctx, id, model.StatusExtraction)
	}
	claimsRes := result.FlatMapCtx(ctx, topicTreeRes, func(ctx context.Context, tt *client.Reply[model.Taxonomy]) result.Result[*client.Reply[model.ClaimsTree]] {
		// The claims stage needs the taxonomy paired with the original
		// comments, which validation already approved if we got here.
		return stageResult(o.llm.Claims(ctx, job.Data, tt.Data, o.llmSpec(job, job.Config.Instructions.Extraction)))
	})
	tracker = foldStep(tracker, claimsRes)

	if claimsRes.IsSuccess() {
		o.reportProgress(ctx, id, model.StatusSorting)
	}
	sortRes := result.FlatMapCtx(ctx, claimsRes, func(ctx context.Context, cl *client.Reply[model.ClaimsTree]) result.Result[*client.Reply[model.SortedTree]] {
		return stageResult(o.llm.SortClaims(ctx, cl.Data, sortKey, o.llmSpec(job, job.Config.Instructions.Dedup)))
	})
	if sortRes.IsSuccess() {
		o.reportProgress(ctx, id, model.StatusDedup)
	}
	tracker = foldStep(tracker, sortRes)

	if sortRes.IsSuccess() {
		o.reportProgress(ctx, id, model.StatusSummarizing)
	}
	addonsRes := o.runAddons(ctx, job, topicTreeRes, claimsRes)
	tracker = foldStep(tracker, addonsRes)

	if sortRes.IsSuccess() {
		o.reportProgress(ctx, id, model.StatusWrappingUp)
	}
	assembledRes := result.FlatMap(addonsRes, func(_ *client.Reply[model.CruxResult]) result.Result[assembled] {
		return result.FlatMap(topicTreeRes, func(tt *client.Reply[model.Taxonomy]) result.Result[assembled] {
			return result.FlatMap(sortRes, func(sorted *client.Reply[model.SortedTree]) result.Result[assembled] {
				tree, unmatched, err := assembleReport(tt.Data, sorted.Data, o.newID)
				if err != nil {
					return result.Failure[assembled](err)
				}
				return result.Success(assembled{tree: tree, unmatched: unmatched})
			})
		})
	})

	var stats model.ReportStats
	savedRes := result.FlatMapCtx(ctx, assembledRes, func(ctx context.Context, asm assembled) result.Result[string] {
		stats = computeStats(asm.tree)
		tracker.UnmatchedClaims = asm.unmatched
		tracker = tracker.Finalize(o.now())

		report := model.Report{
			Title:        job.ReportDetails.Title,
			Description:  job.ReportDetails.Description,
			Question:     job.ReportDetails.Question,
			Instructions: job.Config.Instructions,
			Tree:         asm.tree,
			Sources:      job.Data,
			Tracker:      tracker,
			Addons:       addonsData(addonsRes),
		}
		content, err := json.Marshal(model.ReportEnvelope{Version: model.ReportVersion, Data: report})
		if err != nil {
			return result.Failure[string](fmt.Errorf("failed to marshal report: %w", err))
		}
		return o.storage.Save(ctx, job.ReportDetails.Filename, string(content))
	})

	url, err := savedRes.Unwrap()
	if err != nil {
		log.Printf("Report pipeline failed for job %s: %v (cost so far $%.4f)", id, err, tracker.Costs)
		return err
	}

	if err := o.status.UpdateStats(ctx, id, job.Config.FirebaseJobID, stats, url); err != nil {
		return fmt.Errorf("failed to update stats: %w", err)
	}
	if err := o.status.UpdateStatus(ctx, id, model.StatusFinished, ""); err != nil {
		return fmt.Errorf("failed to mark job finished: %w", err)
	}

	log.Printf("Report pipeline finished for job %s in %s ($%.4f, %d tokens)",
		id, tracker.Duration, tracker.Costs, tracker.TotalTokens)
	return nil
}

type assembled struct {
	tree      []model.ReportTopic
	unmatched []model.Claim
}

// runAddons runs the optional crux analysis from the taxonomy and the
// pre-sort claims tree. With the flag off it short-circuits to a null
// success without touching the pyserver.
func (o *Orchestrator) runAddons(ctx context.Context, job *model.PipelineJob,
	topicTreeRes result.Result[*client.Reply[model.Taxonomy]],
	claimsRes result.Result[*client.Reply[model.ClaimsTree]],
) result.Result[*client.Reply[model.CruxResult]] {
	if !job.Config.Options.Cruxes {
		return result.Success[*client.Reply[model.CruxResult]](nil)
	}
	return result.FlatMapCtx(ctx, topicTreeRes, func(ctx context.Context, tt *client.Reply[model.Taxonomy]) result.Result[*client.Reply[model.CruxResult]] {
		return result.FlatMapCtx(ctx, claimsRes, func(ctx context.Context, cl *client.Reply[model.ClaimsTree]) result.Result[*client.Reply[model.CruxResult]] {
			return stageResult(o.llm.Cruxes(ctx, tt.Data, cl.Data, cruxTopK, o.llmSpec(job, job.Config.Instructions.Crux)))
		})
	})
}

func addonsData(r result.Result[*client.Reply[model.CruxResult]]) *model.CruxResult {
	reply := r.Value()
	if r.Err() != nil || reply == nil {
		return nil
	}
	return &reply.Data
}

// validateComments gates the pipeline on every row carrying an interview
// attribution, before any external call is made.
func validateComments(rows []model.SourceRow) result.Result[[]model.SourceRow] {
	for _, row := range rows {
		if row.Interview == "" {
			return result.Failure[[]model.SourceRow](&ValidationError{
				Reason: fmt.Sprintf("source row %q has no interview attribution", row.ID),
			})
		}
	}
	return result.Success(rows)
}

func (o *Orchestrator) llmSpec(job *model.PipelineJob, userPrompt string) client.LLMSpec {
	return client.LLMSpec{
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		ModelName:    job.Config.LLM.ModelName,
		APIKey:       job.Config.APIKey,
	}
}

// reportProgress is advisory: a sink failure is logged and never fails the
// pipeline.
func (o *Orchestrator) reportProgress(ctx context.Context, id string, status model.JobStatus) {
	if err := o.status.UpdateStatus(ctx, id, status, ""); err != nil {
		log.Printf("Failed to report %s progress for job %s: %v", status, id, err)
	}
}

func stageResult[T any](reply *client.Reply[T], err error) result.Result[*client.Reply[T]] {
	if err != nil {
		return result.Failure[*client.Reply[T]](err)
	}
	return result.Success(reply)
}

// foldStep adds a successful stage's usage and cost to the tracker. Failed
// or skipped stages contribute nothing.
func foldStep[T any](tracker model.Tracker, r result.Result[*client.Reply[T]]) model.Tracker {
	reply := r.Value()
	if r.Err() != nil || reply == nil {
		return tracker
	}
	log.Printf("Step %s cost: $%.4f (%d tokens)", reply.StepName, reply.Cost, reply.Usage.TotalTokens)
	return tracker.Fold(reply.Usage, reply.Cost)
}
