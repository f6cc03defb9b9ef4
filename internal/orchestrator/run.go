package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/postforge/postforge/internal/agents"
	"github.com/postforge/postforge/internal/audit"
	"github.com/postforge/postforge/internal/costgov"
	"github.com/postforge/postforge/internal/remotes/storefront"
	"github.com/postforge/postforge/internal/store"
	"github.com/postforge/postforge/internal/types"
)

// Deps bundles every collaborator one post's run through the pipeline
// needs. Built once per orchestrator run and shared across posts —
// posts are still processed strictly one at a time (see
// Orchestrator.Run).
type Deps struct {
	Store    *store.Store
	Audit    *audit.Log
	Gov      *costgov.Governor
	Problem  *agents.ProblemAgent
	Spec     *agents.SpecAgent
	Content  *agents.ContentAgent
	Verify   *agents.VerifyAgent
	Listing  *agents.ListingAgent
	Upload   *agents.UploadAgent
	Logger   *zap.Logger
	MaxRegen int // max_regenerations: one retry beyond the first attempt means 2 total content attempts
	PriceCts int // storefront listing price in cents
}

// ProgressEvent reports one stage transition, mirroring the teacher's
// ProgressEvent/ProgressCallback pattern for the CLI's verbose output.
type ProgressEvent struct {
	PostID string
	From   types.PostState
	To     types.PostState
	Stage  types.Stage
	Err    error
}

type ProgressCallback func(ProgressEvent)

// RunPost drives a single post from its current state to a terminal
// state, never running concurrently with another post's RunPost call —
// the orchestrator's outer loop enforces that sequencing.
func RunPost(ctx context.Context, d Deps, post types.Post, onProgress ProgressCallback) (types.PostState, error) {
	state := types.StateNew
	emit := func(to types.PostState, stage types.Stage, err error) {
		if onProgress != nil {
			onProgress(ProgressEvent{PostID: post.PostID, From: state, To: to, Stage: stage, Err: err})
		}
		if d.Logger != nil {
			d.Logger.Info("stage transition",
				zap.String("post_id", post.PostID), zap.String("from", string(state)),
				zap.String("to", string(to)), zap.String("stage", string(stage)))
		}
		state = to
	}

	// INGESTED: the post already exists in the store by the time RunPost
	// is called (IngestAgent persisted it, and Post is never mutated
	// afterward); this step just records the transition and audit event.
	_ = d.Audit.PostIngested(post.PostID)
	emit(types.StateIngested, types.StageIngest, nil)

	problem, newState, err := runProblem(ctx, d, post)
	emit(newState, types.StageProblem, err)
	if err != nil {
		return finish(newState, err)
	}
	if newState != types.StateProblemOK {
		return finish(newState, nil)
	}

	specResult, newState, err := runSpec(ctx, d, post, *problem)
	emit(newState, types.StageSpec, err)
	if err != nil {
		return finish(newState, err)
	}
	if newState != types.StateSpecOK {
		return finish(newState, nil)
	}

	content, newState, err := runContentWithRegeneration(ctx, d, post, *specResult, emit)
	if err != nil {
		return finish(newState, err)
	}
	if newState != types.StateVerified {
		return finish(newState, nil)
	}

	listing, newState, err := runListing(ctx, d, post, *specResult, content)
	emit(newState, types.StageListing, err)
	if err != nil {
		return finish(newState, err)
	}

	newState, err = runUpload(ctx, d, post, *listing)
	emit(newState, types.StageUpload, err)
	return finish(newState, err)
}

func finish(state types.PostState, err error) (types.PostState, error) {
	return state, err
}

func runProblem(ctx context.Context, d Deps, post types.Post) (*agents.ProblemResult, types.PostState, error) {
	start := time.Now()
	result, err := d.Problem.Run(ctx, post)
	o, err := classifyErr(err)
	if err == nil && result != nil && result.Discard {
		o = outcomeGateFailed
	}
	status := types.StatusCompleted
	switch {
	case o == outcomeCostExhausted:
		status = types.StatusCostExhausted
	case err != nil:
		status = types.StatusFailed
	case o == outcomeGateFailed:
		status = types.StatusDiscarded
	}
	recordStageRun(d, post.PostID, types.StageProblem, 1, start, status, err)
	if err != nil {
		_ = d.Audit.ErrorOccurred(post.PostID, err.Error())
		return nil, transition(types.StateIngested, o), err
	}
	if o == outcomeGateFailed {
		_ = d.Audit.PostDiscarded(post.PostID, "problem stage discarded the post")
		return nil, transition(types.StateIngested, o), nil
	}
	_ = d.Audit.ProblemExtracted(post.PostID, result.Summary)
	return result, transition(types.StateIngested, outcomeSucceeded), nil
}

func runSpec(ctx context.Context, d Deps, post types.Post, problem agents.ProblemResult) (*agents.SpecResult, types.PostState, error) {
	start := time.Now()
	result, err := d.Spec.Run(ctx, post, problem)
	o, err := classifyErr(err)
	if err == nil && result != nil && (!result.Build || result.Confidence < minSpecConfidence || len(result.Deliverables) < minSpecDeliverables) {
		o = outcomeGateFailed
	}
	status := types.StatusCompleted
	switch {
	case o == outcomeCostExhausted:
		status = types.StatusCostExhausted
	case err != nil:
		status = types.StatusFailed
	case o == outcomeGateFailed:
		status = types.StatusRejected
	}
	recordStageRun(d, post.PostID, types.StageSpec, 1, start, status, err)
	if err != nil {
		_ = d.Audit.ErrorOccurred(post.PostID, err.Error())
		return nil, transition(types.StateProblemOK, o), err
	}
	if o == outcomeGateFailed {
		_ = d.Audit.PostDiscarded(post.PostID, "spec stage rejected the post")
		return nil, transition(types.StateProblemOK, o), nil
	}
	_ = d.Audit.SpecGenerated(post.PostID, result.Title)
	return result, transition(types.StateProblemOK, outcomeSucceeded), nil
}

// runContentWithRegeneration runs content generation and verification,
// regenerating content up to d.MaxRegen additional times when
// verification fails. max_regenerations=1 means ONE retry after the
// first attempt: two total content attempts, not two retries.
func runContentWithRegeneration(ctx context.Context, d Deps, post types.Post, spec agents.SpecResult, emit func(types.PostState, types.Stage, error)) (string, types.PostState, error) {
	totalAttempts := d.MaxRegen + 1
	var lastContent string

	for attempt := 1; attempt <= totalAttempts; attempt++ {
		start := time.Now()
		content, err := d.Content.Run(ctx, post, spec)
		o, err := classifyErr(err)
		contentStatus := types.StatusCompleted
		switch {
		case o == outcomeCostExhausted:
			contentStatus = types.StatusCostExhausted
		case err != nil:
			contentStatus = types.StatusFailed
		}
		recordStageRun(d, post.PostID, types.StageContent, attempt, start, contentStatus, err)
		if err != nil {
			_ = d.Audit.ErrorOccurred(post.PostID, err.Error())
			newState := transition(types.StateSpecOK, o)
			emit(newState, types.StageContent, err)
			return "", newState, err
		}
		lastContent = content
		_ = d.Audit.ContentGenerated(post.PostID, fmt.Sprintf("attempt %d", attempt))
		emit(types.StateContentOK, types.StageContent, nil)

		vstart := time.Now()
		verdict, verr := d.Verify.Run(ctx, post, content)
		vo, verr := classifyErr(verr)
		if verr != nil {
			verifyStatus := types.StatusFailed
			if vo == outcomeCostExhausted {
				verifyStatus = types.StatusCostExhausted
			}
			recordStageRun(d, post.PostID, types.StageVerify, attempt, vstart, verifyStatus, verr)
			_ = d.Audit.ErrorOccurred(post.PostID, verr.Error())
			newState := transition(types.StateContentOK, vo)
			emit(newState, types.StageVerify, verr)
			return "", newState, verr
		}

		if verdict.Pass {
			recordStageRun(d, post.PostID, types.StageVerify, attempt, vstart, types.StatusCompleted, nil)
			_ = d.Audit.ContentVerified(post.PostID, "passed")
			emit(types.StateVerified, types.StageVerify, nil)
			return lastContent, types.StateVerified, nil
		}

		_ = d.Audit.ContentRejected(post.PostID, fmt.Sprintf("verify failed attempt %d", attempt))
		if attempt < totalAttempts {
			recordStageRun(d, post.PostID, types.StageVerify, attempt, vstart, types.StatusRejected, nil)
			emit(types.StateRegenerate, types.StageVerify, nil)
			continue
		}
		recordStageRun(d, post.PostID, types.StageVerify, attempt, vstart, types.StatusDiscarded, nil)
		emit(types.StateHardDiscard, types.StageVerify, nil)
		return "", types.StateHardDiscard, nil
	}

	return lastContent, types.StateHardDiscard, nil
}

func runListing(ctx context.Context, d Deps, post types.Post, spec agents.SpecResult, content string) (*agents.ListingResult, types.PostState, error) {
	start := time.Now()
	result, err := d.Listing.Run(ctx, post, spec, content)
	o, err := classifyErr(err)
	status := types.StatusCompleted
	switch {
	case o == outcomeCostExhausted:
		status = types.StatusCostExhausted
	case err != nil:
		status = types.StatusFailed
	}
	recordStageRun(d, post.PostID, types.StageListing, 1, start, status, err)
	if err != nil {
		_ = d.Audit.ErrorOccurred(post.PostID, err.Error())
		return nil, transition(types.StateVerified, o), err
	}
	_ = d.Audit.ListingGenerated(post.PostID, result.Title)
	return result, transition(types.StateVerified, outcomeSucceeded), nil
}

func runUpload(ctx context.Context, d Deps, post types.Post, listing agents.ListingResult) (types.PostState, error) {
	start := time.Now()
	result, err := d.Upload.Run(ctx, post, listing, d.PriceCts)
	o, err := classifyErr(err)
	status := types.StatusCompleted
	switch {
	case o == outcomeCostExhausted:
		status = types.StatusCostExhausted
	case err != nil:
		status = types.StatusFailed
	}
	recordStageRun(d, post.PostID, types.StageUpload, 1, start, status, err)
	if err != nil {
		_ = d.Audit.UploadFailed(post.PostID, err.Error())
		return transition(types.StateListed, o), err
	}
	var detail string
	if result != nil {
		detail = result.ProductID
		_ = d.Store.RecordUploadedProduct(post.PostID, result.ProductID)
	}
	_ = d.Audit.UploadSucceeded(post.PostID, detail)
	return transition(types.StateListed, outcomeSucceeded), nil
}

// classifyErr turns an agent error into an outcome, special-casing the
// cost governor's refusal so the caller never retries it, per the
// specification's explicit carve-out.
func classifyErr(err error) (outcome, error) {
	if err == nil {
		return outcomeSucceeded, nil
	}
	var costErr *costgov.CostLimitExceeded
	if errors.As(err, &costErr) {
		return outcomeCostExhausted, err
	}
	return outcomeTerminalError, err
}

func recordStageRun(d Deps, postID string, stage types.Stage, attempt int, start time.Time, status types.StageStatus, err error) {
	var errClass, errDetail string
	if err != nil {
		errClass = fmt.Sprintf("%T", err)
		errDetail = err.Error()
	}
	_, _ = d.Store.InsertStageRun(types.StageRun{
		PostID:      postID,
		Stage:       stage,
		Attempt:     attempt,
		Status:      status,
		StartedAt:   start,
		FinishedAt:  time.Now(),
		ErrorClass:  errClass,
		ErrorDetail: errDetail,
	})
}

// ensure storefront import is exercised via UploadAgent's return type
// referenced above — no direct use needed here.
var _ = storefront.UploadResult{}
