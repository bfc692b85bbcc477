package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"

	"ContentCurator/internal/clock"
	"ContentCurator/internal/domain"
	"ContentCurator/internal/ports"
	"ContentCurator/internal/scoring"
	"ContentCurator/internal/source"
)

const (
	defaultAdapterTimeout = 30 * time.Second
	defaultLookback       = 7 * 24 * time.Hour
	defaultNotifyTimeout  = 10 * time.Second
)

// RefreshDeps wires the driven adapters into one ingestion run.
type RefreshDeps struct {
	Adapters   []source.Adapter
	Normalizer *scoring.Normalizer
	Repository ports.ContentRepository
	Notifier   ports.Notifier
	Clock      clock.Clock
	Logger     *slog.Logger
	Meter      metric.Meter

	// AdapterTimeout bounds each adapter's whole fetch unless the adapter is source.Budgeted.
	AdapterTimeout time.Duration
	// Lookback is how far back RunRefresh asks adapters for items.
	Lookback      time.Duration
	NotifyTimeout time.Duration
}

// AdapterStats describes one adapter's share of a run.
type AdapterStats struct {
	Name      string
	Fetched   int
	Malformed int
	// Err is set when the adapter failed; its candidates were then discarded.
	Err error
}

// RunReport summarizes one ingestion run.
type RunReport struct {
	RunID      string
	Since      time.Time
	StartedAt  time.Time
	FinishedAt time.Time
	Adapters   []AdapterStats
	Inserted   int
	Duplicates int
	Filtered   int
	Malformed  int
	Outcomes   []domain.InsertOutcome
}

// FailedAdapters lists the adapters whose contribution was discarded.
func (r RunReport) FailedAdapters() []string {
	var names []string
	for _, a := range r.Adapters {
		if a.Err != nil {
			names = append(names, a.Name)
		}
	}
	return names
}

// Refresh runs adapters, scores their candidates and stores the new ones.
type Refresh struct {
	adapters       []source.Adapter
	normalizer     *scoring.Normalizer
	repository     ports.ContentRepository
	notifier       ports.Notifier
	clock          clock.Clock
	logger         *slog.Logger
	metrics        *runMetrics
	adapterTimeout time.Duration
	lookback       time.Duration
	notifyTimeout  time.Duration
}

// NewRefresh constructs the ingestion use case.
func NewRefresh(deps RefreshDeps) (*Refresh, error) {
	if deps.Repository == nil {
		return nil, errors.New("refresh: repository is required")
	}
	if deps.Normalizer == nil {
		deps.Normalizer = scoring.NewNormalizer(scoring.DefaultRules())
	}
	if deps.Clock == nil {
		deps.Clock = clock.System{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.AdapterTimeout <= 0 {
		deps.AdapterTimeout = defaultAdapterTimeout
	}
	if deps.Lookback <= 0 {
		deps.Lookback = defaultLookback
	}
	if deps.NotifyTimeout <= 0 {
		deps.NotifyTimeout = defaultNotifyTimeout
	}

	metrics, err := newRunMetrics(deps.Meter)
	if err != nil {
		return nil, fmt.Errorf("refresh metrics: %w", err)
	}

	return &Refresh{
		adapters:       deps.Adapters,
		normalizer:     deps.Normalizer,
		repository:     deps.Repository,
		notifier:       deps.Notifier,
		clock:          deps.Clock,
		logger:         deps.Logger,
		metrics:        metrics,
		adapterTimeout: deps.AdapterTimeout,
		lookback:       deps.Lookback,
		notifyTimeout:  deps.NotifyTimeout,
	}, nil
}

// RunRefresh performs one run over the configured lookback window. It is safe to call
// repeatedly and concurrently: overlapping runs only produce extra DuplicateSkipped outcomes.
func (r *Refresh) RunRefresh(ctx context.Context) (RunReport, error) {
	return r.Run(ctx, r.clock.Now().Add(-r.lookback))
}

// Window is the publication cutoff handed to each adapter.
type Window struct {
	Default time.Time
	// PerAdapter overrides Default for the named adapters.
	PerAdapter map[string]time.Time
}

// For returns the cutoff for one adapter.
func (w Window) For(name string) time.Time {
	if since, ok := w.PerAdapter[name]; ok {
		return since
	}
	return w.Default
}

// Run fetches everything published after since from every adapter.
func (r *Refresh) Run(ctx context.Context, since time.Time) (RunReport, error) {
	return r.RunWindow(ctx, Window{Default: since})
}

// RunWindow is Run with a cutoff per adapter. A failed adapter is skipped for this run;
// a store failure fails the whole run with nothing committed.
func (r *Refresh) RunWindow(ctx context.Context, window Window) (RunReport, error) {
	report := RunReport{
		RunID:     uuid.NewString(),
		Since:     window.Default,
		StartedAt: r.clock.Now(),
	}
	logger := r.logger.With("run_id", report.RunID)
	logger.Info("refresh started", "adapters", len(r.adapters), "since", window.Default)

	collected := r.collect(ctx, window)

	var items []domain.ContentItem
	for _, res := range collected {
		stats := res.stats
		if stats.Err != nil {
			logger.Warn("adapter failed, discarding its candidates",
				"adapter", stats.Name, "discarded", stats.Fetched, "error", stats.Err)
		} else {
			for _, cand := range res.candidates {
				item, err := r.normalizer.Normalize(cand)
				if err != nil {
					stats.Malformed++
					logger.Debug("candidate skipped", "adapter", stats.Name, "error", err)
					continue
				}
				if !r.normalizer.Relevant(item) {
					report.Filtered++
					continue
				}
				item.CreatedAt = r.clock.Now()
				items = append(items, item)
			}
		}
		if stats.Malformed > 0 {
			logger.Info("adapter skipped malformed candidates", "adapter", stats.Name, "skipped", stats.Malformed)
		}
		report.Malformed += stats.Malformed
		report.Adapters = append(report.Adapters, stats)
		r.metrics.recordAdapter(ctx, stats)
	}

	err := r.store(ctx, items, &report)
	report.FinishedAt = r.clock.Now()
	r.metrics.recordRun(ctx, report, err)
	if err != nil {
		logger.Error("refresh failed", "error", err)
		return report, err
	}

	logger.Info("refresh finished",
		"inserted", report.Inserted,
		"duplicates", report.Duplicates,
		"filtered", report.Filtered,
		"malformed", report.Malformed,
		"failed_adapters", len(report.FailedAdapters()),
		"duration", report.FinishedAt.Sub(report.StartedAt))

	r.notify(ctx, logger, items, report.Outcomes)
	return report, nil
}

type adapterResult struct {
	stats      AdapterStats
	candidates []domain.RawCandidate
}

// collect drains every adapter concurrently. Results keep adapter order.
func (r *Refresh) collect(ctx context.Context, window Window) []adapterResult {
	results := make([]adapterResult, len(r.adapters))

	var wg sync.WaitGroup
	for i, adapter := range r.adapters {
		wg.Add(1)
		go func(i int, adapter source.Adapter) {
			defer wg.Done()
			results[i] = r.drain(ctx, adapter, window.For(adapter.Name()))
		}(i, adapter)
	}
	wg.Wait()

	return results
}

func (r *Refresh) drain(ctx context.Context, adapter source.Adapter, since time.Time) (res adapterResult) {
	res.stats.Name = adapter.Name()

	timeout := r.adapterTimeout
	if b, ok := adapter.(source.Budgeted); ok && b.Timeout() > 0 {
		timeout = b.Timeout()
	}
	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	defer func() {
		if p := recover(); p != nil {
			res.stats.Err = source.UpstreamFailure(res.stats.Name, fmt.Errorf("adapter panic: %v", p))
		}
	}()

	for cand, err := range adapter.Fetch(actx, since) {
		if err == nil {
			res.candidates = append(res.candidates, cand)
			res.stats.Fetched++
			continue
		}
		if errors.Is(err, domain.ErrMalformedCandidate) {
			res.stats.Malformed++
			continue
		}
		res.stats.Err = source.UpstreamFailure(res.stats.Name, err)
		break
	}

	if res.stats.Err == nil && actx.Err() != nil {
		res.stats.Err = source.UpstreamFailure(res.stats.Name, actx.Err())
	}
	return res
}

func (r *Refresh) store(ctx context.Context, items []domain.ContentItem, report *RunReport) error {
	if len(items) == 0 {
		return nil
	}

	outcomes, err := r.repository.InsertBatch(ctx, items)
	if err != nil {
		return fmt.Errorf("store %d items: %w", len(items), err)
	}

	report.Outcomes = outcomes
	for _, o := range outcomes {
		switch o.Result {
		case domain.Inserted:
			report.Inserted++
		case domain.DuplicateSkipped:
			report.Duplicates++
		}
	}
	return nil
}

// notify sends curators a digest of newly inserted breaking items. Delivery problems
// are logged and never fail the run.
func (r *Refresh) notify(ctx context.Context, logger *slog.Logger, items []domain.ContentItem, outcomes []domain.InsertOutcome) {
	if r.notifier == nil {
		return
	}

	var breaking []domain.ContentItem
	for i, o := range outcomes {
		if o.Result == domain.Inserted && i < len(items) && items[i].Priority == domain.PriorityBreaking {
			breaking = append(breaking, items[i])
		}
	}
	if len(breaking) == 0 {
		return
	}

	nctx, cancel := context.WithTimeout(ctx, r.notifyTimeout)
	defer cancel()
	if err := r.notifier.PublishDigest(nctx, buildDigestMessage(breaking)); err != nil {
		logger.Warn("curator notification failed", "items", len(breaking), "error", err)
	}
}

func buildDigestMessage(items []domain.ContentItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d new %s item(s) awaiting review\n\n", len(items), domain.PriorityName(domain.PriorityBreaking))
	for _, item := range items {
		fmt.Fprintf(&b, "- %s\nSource: %s\nScore: %.2f\n%s\n\n",
			item.Title,
			item.Source,
			item.EngagementMetrics.BusinessRelevanceScore,
			item.URL)
	}
	return b.String()
}
