// Package pipeline runs the end-to-end scoring job: load a transaction
// table, score it (or reuse memoized scores), persist the run, publish
// alerts and write the report files.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"stablecoin-risk-monitor/internal/alerts"
	"stablecoin-risk-monitor/internal/cache"
	"stablecoin-risk-monitor/internal/domain"
	"stablecoin-risk-monitor/internal/idhash"
	"stablecoin-risk-monitor/internal/logging"
	"stablecoin-risk-monitor/internal/metrics"
	"stablecoin-risk-monitor/internal/observability"
	"stablecoin-risk-monitor/internal/reporting"
	"stablecoin-risk-monitor/internal/scoring"
	"stablecoin-risk-monitor/internal/storage"
)

// GeneratorVersion is stamped into every report.
const GeneratorVersion = "1.0.0"

// Output file names.
const (
	ReportFile             = reporting.ReportFile
	ScoredTransactionsFile = reporting.ScoredTransactionsFile
	WalletSummaryFile      = reporting.WalletSummaryFile
	TokenAveragesFile      = reporting.TokenAveragesFile
)

// Pipeline stage names used in metrics and spans.
const (
	StageLoad    = "load"
	StageScore   = "score"
	StagePersist = "persist"
	StageAlerts  = "alerts"
	StageReport  = "report"
)

// ErrNoSource is returned by New when Options.Source is nil.
var ErrNoSource = errors.New("pipeline source is required")

// Options configures a ScoringPipeline. Only Source is required.
type Options struct {
	Source Source
	Policy scoring.Policy

	// Memo caches scored tables by content; nil disables memoization.
	Memo cache.Memo

	// Runs and Scores persist each run; both nil skips persistence.
	Runs      storage.ScoringRunStore
	Scores    storage.RiskScoreStore
	StoreKind string // label for database metrics

	// Sink receives alerts at or above AlertThreshold; nil disables alerts.
	Sink           alerts.Sink
	AlertThreshold float64

	// OutputDir receives the report files; empty skips writing.
	OutputDir string
	Filter    metrics.Filter

	// OnComplete is called after every successful run.
	OnComplete func(*Result)

	Logger logrus.FieldLogger
}

// Result is the outcome of one run.
type Result struct {
	Run    *domain.ScoringRun
	Scored []domain.ScoredTransaction
	Report *reporting.Report
	Alerts []alerts.Alert
	Files  []string // written paths
}

// ScoringPipeline orchestrates one scoring run.
type ScoringPipeline struct {
	opts      Options
	scorer    *scoring.Scorer
	reportGen *reporting.Generator
	logger    logrus.FieldLogger
	clock     func() time.Time
	newID     func() string
}

// New validates the policy and creates a pipeline.
func New(opts Options) (*ScoringPipeline, error) {
	if opts.Source == nil {
		return nil, ErrNoSource
	}
	scorer, err := scoring.NewScorer(opts.Policy)
	if err != nil {
		return nil, err
	}
	if opts.Memo == nil {
		opts.Memo = cache.NopMemo{}
	}
	if opts.Sink == nil {
		opts.Sink = alerts.NopSink{}
	}
	if opts.StoreKind == "" {
		opts.StoreKind = "memory"
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	return &ScoringPipeline{
		opts:      opts,
		scorer:    scorer,
		reportGen: reporting.NewGenerator(opts.Policy),
		logger:    logging.Component(logger, "pipeline"),
		clock:     func() time.Time { return time.Now().UTC() },
		newID:     func() string { return uuid.NewString() },
	}, nil
}

// WithClock sets a custom clock function for deterministic output.
func (p *ScoringPipeline) WithClock(clock func() time.Time) *ScoringPipeline {
	p.clock = clock
	p.reportGen = p.reportGen.WithClock(clock)
	return p
}

// WithIDGenerator sets the run id generator.
func (p *ScoringPipeline) WithIDGenerator(newID func() string) *ScoringPipeline {
	p.newID = newID
	return p
}

// Policy returns the active scoring policy.
func (p *ScoringPipeline) Policy() scoring.Policy {
	return p.scorer.Policy()
}

// Run executes load, score, persist, alerts and report in order.
// Alert publishing failures are logged and counted but do not fail the run.
func (p *ScoringPipeline) Run(ctx context.Context) (result *Result, err error) {
	ctx, span := observability.StartSpan(ctx, "pipeline.run")
	defer func() { observability.EndSpan(span, err) }()

	run := &domain.ScoringRun{
		RunID:     p.newID(),
		StartedAt: p.clock(),
	}
	span.SetAttributes(attribute.String("run.id", run.RunID))
	log := p.logger.WithField("run_id", run.RunID)

	// 1. Load
	var txs []domain.Transaction
	err = p.stage(ctx, StageLoad, func(ctx context.Context) error {
		var loadErr error
		txs, loadErr = p.opts.Source.Load(ctx)
		return loadErr
	})
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", p.opts.Source.Name(), err)
	}
	log.WithFields(logrus.Fields{"source": p.opts.Source.Name(), "rows": len(txs)}).Info("loaded transactions")

	// 2. Score (memoized)
	policy := p.scorer.Policy()
	run.InputDigest = idhash.TableDigest(txs)
	run.PolicyDigest = policy.Digest()

	var scored []domain.ScoredTransaction
	err = p.stage(ctx, StageScore, func(ctx context.Context) error {
		var scoreErr error
		scored, run.CacheHit, scoreErr = p.score(ctx, txs, log)
		return scoreErr
	})
	if err != nil {
		return nil, fmt.Errorf("score: %w", err)
	}

	kf := metrics.ComputeKeyFigures(scored)
	run.TransactionCount = kf.TransactionCount
	run.WalletCount = kf.WalletCount

	// 3. Select alerts. The run row records how many were raised, whether
	// or not the sink later accepts them.
	selected := alerts.Select(run.RunID, scored, p.opts.AlertThreshold, p.clock())
	run.AlertCount = len(selected)
	run.FinishedAt = p.clock()

	// 4. Persist
	if err := p.stage(ctx, StagePersist, func(ctx context.Context) error {
		return p.persist(ctx, run, scored)
	}); err != nil {
		return nil, fmt.Errorf("persist run %s: %w", run.RunID, err)
	}

	// 5. Publish only alerts of a persisted run.
	p.publishAlerts(ctx, selected, log)

	// 6. Report
	var report *reporting.Report
	var files []string
	err = p.stage(ctx, StageReport, func(ctx context.Context) error {
		var reportErr error
		report, reportErr = p.reportGen.Generate(scored, p.opts.Filter)
		if reportErr != nil {
			return reportErr
		}
		report.RunID = run.RunID
		report.Reproducibility = Reproducibility(run)
		files, reportErr = p.writeOutputs(report)
		return reportErr
	})
	if err != nil {
		return nil, fmt.Errorf("report: %w", err)
	}

	observability.RecordScoringOutput(kf.TransactionCount, kf.WalletCount, kf.FlaggedWallets, kf.AverageRisk, kf.SanctionedSharePct)
	observability.RecordPipelineSuccess(run.FinishedAt)

	log.WithFields(logrus.Fields{
		"transactions": run.TransactionCount,
		"wallets":      run.WalletCount,
		"alerts":       run.AlertCount,
		"cache_hit":    run.CacheHit,
		"avg_risk":     kf.AverageRisk,
	}).Info("scoring run completed")

	result = &Result{
		Run:    run,
		Scored: scored,
		Report: report,
		Alerts: selected,
		Files:  files,
	}
	if p.opts.OnComplete != nil {
		p.opts.OnComplete(result)
	}
	return result, nil
}

// stage runs fn inside a span and records its duration and status.
func (p *ScoringPipeline) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := observability.StartSpan(ctx, "pipeline."+name)
	start := time.Now()
	err := fn(ctx)
	observability.EndSpan(span, err)

	status := "success"
	if err != nil {
		status = "error"
	}
	observability.RecordPipelineStage(name, status, time.Since(start).Seconds())
	return err
}

func (p *ScoringPipeline) score(ctx context.Context, txs []domain.Transaction, log logrus.FieldLogger) ([]domain.ScoredTransaction, bool, error) {
	key := cache.Key(txs, p.scorer.Policy())

	cached, hit, err := p.opts.Memo.Get(ctx, key)
	if err != nil {
		log.WithError(err).Warn("memo lookup failed, scoring from scratch")
	}
	observability.RecordCacheLookup(hit)
	if hit {
		return withTxIDs(cached, txs), true, nil
	}

	scored, err := p.scorer.Score(txs)
	if err != nil {
		return nil, false, err
	}
	if err := p.opts.Memo.Set(ctx, key, scored); err != nil {
		log.WithError(err).Warn("memo store failed")
	}
	return scored, false, nil
}

// withTxIDs copies the current table's tx ids onto memoized rows. Memo keys
// ignore tx ids, so a cached table may come from an equal table loaded
// under a different source name.
func withTxIDs(cached []domain.ScoredTransaction, txs []domain.Transaction) []domain.ScoredTransaction {
	for i := range cached {
		if i < len(txs) {
			cached[i].TxID = txs[i].TxID
		}
	}
	return cached
}

func (p *ScoringPipeline) publishAlerts(ctx context.Context, selected []alerts.Alert, log logrus.FieldLogger) {
	if len(selected) == 0 {
		return
	}
	err := p.stage(ctx, StageAlerts, func(ctx context.Context) error {
		return p.opts.Sink.Publish(ctx, selected)
	})
	observability.RecordAlerts(len(selected), err)
	if err != nil {
		log.WithError(err).WithField("alerts", len(selected)).Error("alert publish failed")
	}
}

// persist writes scores before the run row, so a visible run always has
// its scores available.
func (p *ScoringPipeline) persist(ctx context.Context, run *domain.ScoringRun, scored []domain.ScoredTransaction) error {
	if p.opts.Scores != nil {
		start := time.Now()
		err := p.opts.Scores.InsertBulk(ctx, run.RunID, scored)
		observability.RecordDBQuery(p.opts.StoreKind, "insert_risk_scores", time.Since(start).Seconds(), err)
		if err != nil {
			return fmt.Errorf("insert risk scores: %w", err)
		}
	}
	if p.opts.Runs != nil {
		start := time.Now()
		err := p.opts.Runs.Insert(ctx, run)
		observability.RecordDBQuery(p.opts.StoreKind, "insert_scoring_run", time.Since(start).Seconds(), err)
		if err != nil {
			return fmt.Errorf("insert scoring run: %w", err)
		}
	}
	return nil
}

// writeOutputs writes the report files unless OutputDir is empty.
func (p *ScoringPipeline) writeOutputs(report *reporting.Report) ([]string, error) {
	if p.opts.OutputDir == "" {
		return nil, nil
	}
	files, err := reporting.WriteFiles(p.opts.OutputDir, report)
	if err != nil {
		return files, err
	}
	observability.RecordReportGenerated()
	return files, nil
}

// Reproducibility builds report metadata for a run.
func Reproducibility(run *domain.ScoringRun) reporting.ReproducibilityMetadata {
	return reporting.ReproducibilityMetadata{
		GeneratorVersion: GeneratorVersion,
		InputDigest:      run.InputDigest,
		PolicyDigest:     run.PolicyDigest,
		CommitHash:       getGitCommitHash(),
		CacheHit:         run.CacheHit,
	}
}

// getGitCommitHash returns current git commit hash or "unknown" if not in git repo.
func getGitCommitHash() string {
	cmd := exec.Command("git", "rev-parse", "--short", "HEAD")
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "unknown"
	}
	return strings.TrimSpace(out.String())
}
