package orchestrator

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/postforge/postforge/internal/agents"
	"github.com/postforge/postforge/internal/apperr"
	"github.com/postforge/postforge/internal/audit"
	"github.com/postforge/postforge/internal/config"
	"github.com/postforge/postforge/internal/costgov"
	"github.com/postforge/postforge/internal/llm"
	"github.com/postforge/postforge/internal/remotes/storefront"
	"github.com/postforge/postforge/internal/store"
	"github.com/postforge/postforge/internal/types"
)

// Orchestrator owns one run of the pipeline against a single database:
// acquire the lock, ingest new posts, drive every unprocessed post to a
// terminal state one at a time, then release the lock. A BackupTick
// callback (if set) is invoked alongside the run on its own ticker via
// an errgroup, mirroring the teacher's pattern of running one
// long-lived goroutine per background concern rather than spawning one
// per unit of work.
type Orchestrator struct {
	cfg     *config.Config
	st      *store.Store
	gov     *costgov.Governor
	auditor *audit.Log
	ingest  *agents.IngestAgent
	deps    Deps
	logger  *zap.Logger

	// BackupTick, if non-nil, is called once per config.BackupInterval
	// for the lifetime of Run's context, alongside the pipeline loop.
	BackupTick func(ctx context.Context) error
}

// New wires every collaborator an orchestrator run needs from a loaded
// Config, an open Store, and a storefront Client. The LLM client is
// accepted as an interface so tests can substitute a fake.
func New(cfg *config.Config, st *store.Store, llmClient llm.Client, storeClient storefront.Client, logger *zap.Logger) (*Orchestrator, error) {
	lifetimeSpent, err := st.LifetimeSpend()
	if err != nil {
		return nil, fmt.Errorf("read lifetime spend: %w", err)
	}

	gov := costgov.New(st, runID(), cfg.MaxTokensPerRun, cfg.MaxUSDPerRun, cfg.MaxUSDLifetime, lifetimeSpent,
		costgov.PriceTable{PriceInPerToken: cfg.PriceInPerTok, PriceOutPerToken: cfg.PriceOutPerTok})

	gateway := llm.NewGateway(llmClient, gov)
	auditor := audit.New(st)

	deps := Deps{
		Store:    st,
		Audit:    auditor,
		Gov:      gov,
		Problem:  agents.NewProblemAgent(gateway),
		Spec:     agents.NewSpecAgent(gateway),
		Content:  agents.NewContentAgent(gateway),
		Verify:   agents.NewVerifyAgent(gateway),
		Listing:  agents.NewListingAgent(gateway),
		Upload:   agents.NewUploadAgent(storeClient),
		Logger:   logger,
		MaxRegen: cfg.MaxRegenerations,
		PriceCts: 0,
	}

	return &Orchestrator{
		cfg:     cfg,
		st:      st,
		gov:     gov,
		auditor: auditor,
		ingest:  agents.NewIngestAgent(cfg.UseBrowserFallback),
		deps:    deps,
		logger:  logger,
	}, nil
}

func runID() string {
	return fmt.Sprintf("run-%d", time.Now().UnixNano())
}

// Run acquires the PID lock, ingests new posts from every configured
// origin, then drives each unprocessed post through RunPost strictly
// one at a time — never in parallel — until PostLimitPerRun posts have
// been attempted, the kill switch file appears, or the context is
// canceled. If BackupTick is set it runs concurrently on its own ticker
// via an errgroup; a backup failure does not abort the pipeline loop,
// it is only logged.
func (o *Orchestrator) Run(ctx context.Context, pidFile string, onProgress ProgressCallback) error {
	release, err := store.AcquireLock(pidFile)
	if err != nil {
		return err
	}
	defer release()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	if o.BackupTick != nil && o.cfg.BackupInterval > 0 {
		g.Go(func() error {
			return o.runBackupTicker(gctx)
		})
	}

	g.Go(func() error {
		// The backup ticker only stops on cancellation, so end it once
		// the pipeline loop is done.
		defer cancel()
		return o.runPipelineLoop(gctx, onProgress)
	})

	return g.Wait()
}

func (o *Orchestrator) runBackupTicker(ctx context.Context) error {
	ticker := time.NewTicker(o.cfg.BackupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := o.BackupTick(ctx); err != nil && o.logger != nil {
				o.logger.Warn("scheduled backup failed", zap.Error(err))
			}
		}
	}
}

func (o *Orchestrator) runPipelineLoop(ctx context.Context, onProgress ProgressCallback) error {
	if o.killSwitchSet() {
		if o.logger != nil {
			o.logger.Info("kill switch present at startup, skipping ingest and processing")
		}
		return &apperr.KillSwitchEngaged{Path: o.cfg.KillSwitchFile}
	}

	posts, ingestErrs := o.ingest.Run(ctx, o.cfg.Origins, o.cfg.MinScore, o.cfg.PostLimitPerRun)
	for _, ierr := range ingestErrs {
		if o.logger != nil {
			o.logger.Warn("ingest origin failed", zap.Error(ierr))
		}
	}
	for _, p := range posts {
		if err := o.st.InsertPost(p); err != nil {
			return fmt.Errorf("persist ingested post: %w", err)
		}
	}

	pending, err := o.st.ListUnprocessedPosts(o.cfg.PostLimitPerRun)
	if err != nil {
		return fmt.Errorf("list unprocessed posts: %w", err)
	}

	for _, post := range pending {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if o.killSwitchSet() {
			if o.logger != nil {
				o.logger.Info("kill switch detected mid-run, stopping before next post")
			}
			return &apperr.KillSwitchEngaged{Path: o.cfg.KillSwitchFile}
		}

		finalState, err := RunPost(ctx, o.deps, post, onProgress)
		if finalState == types.StateCostExhausted {
			_ = o.auditor.CostExhausted(post.PostID, "budget exhausted during run")
			if o.logger != nil {
				o.logger.Warn("cost exhausted, stopping run", zap.String("post_id", post.PostID))
			}
			return &apperr.RunCostExhausted{Reason: fmt.Sprintf("post %s", post.PostID)}
		}
		if err != nil && o.logger != nil {
			o.logger.Error("post processing error", zap.String("post_id", post.PostID), zap.Error(err))
		}
	}

	return nil
}

func (o *Orchestrator) killSwitchSet() bool {
	if o.cfg.KillSwitchFile == "" {
		return false
	}
	_, err := os.Stat(o.cfg.KillSwitchFile)
	return err == nil
}
