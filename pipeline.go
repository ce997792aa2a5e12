package form4

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tickerlabs/go-form4/form4xml"
	"github.com/tickerlabs/go-form4/observability"
)

// Alert is one classified transaction pushed to the signal consumer. Only
// High and Medium tiers are alerted; Low-tier transactions are persisted
// but not pushed.
type Alert struct {
	AccessionNumber string
	Transaction     Transaction
}

// AlertSink receives High- and Medium-tier transactions for downstream
// notification.
type AlertSink interface {
	Notify(ctx context.Context, alert Alert) error
}

// AlertFunc adapts a function to the AlertSink interface.
type AlertFunc func(ctx context.Context, alert Alert) error

func (f AlertFunc) Notify(ctx context.Context, alert Alert) error { return f(ctx, alert) }

// Result reports what one Process call did.
type Result struct {
	Filing      *Filing
	Upsert      UpsertResult
	Alerted     int
	Diagnostics []*DataIntegrityError
}

// Pipeline runs the normalize -> extract -> classify -> upsert flow for
// one filing at a time. It holds no per-filing state; one Pipeline may be
// shared by any number of concurrent callers.
type Pipeline struct {
	store   FilingStore
	alerts  AlertSink
	logger  *zap.Logger
	metrics *observability.Metrics
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithAlertSink routes High- and Medium-tier transactions to sink.
func WithAlertSink(sink AlertSink) Option {
	return func(p *Pipeline) { p.alerts = sink }
}

// WithLogger sets the logger used for the diagnostics channel. Defaults to
// a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// WithMetrics overrides the default metrics instance.
func WithMetrics(m *observability.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// NewPipeline creates a pipeline that persists filings to store.
func NewPipeline(store FilingStore, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:   store,
		logger:  zap.NewNop(),
		metrics: observability.DefaultMetrics,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// extractionFailureLabel maps a fatal extraction error to its metric
// label. Missing required fields and unparsable amounts are distinct
// failure modes.
func extractionFailureLabel(err error) string {
	var missing *MissingRequiredFieldError
	if errors.As(err, &missing) {
		return "missing_required_field"
	}
	return "invalid_value"
}

// Process ingests the raw XML of one filing. It fails fast and
// deterministically on bad input: a malformed document or missing required
// field aborts before anything is persisted, so a filing is never stored
// partially extracted. Retry policy belongs to the caller.
func (p *Pipeline) Process(ctx context.Context, accessionNumber string, raw []byte) (*Result, error) {
	if accessionNumber == "" {
		return nil, fmt.Errorf("accession number required")
	}

	doc, err := form4xml.Normalize(raw)
	if err != nil {
		p.metrics.FilingsFailed.WithLabelValues("malformed_document").Inc()
		p.logger.Error("normalization failed",
			zap.String("accession", accessionNumber),
			zap.Error(err),
		)
		return nil, err
	}

	filing, diags, err := ExtractFiling(accessionNumber, doc)
	if err != nil {
		p.metrics.FilingsFailed.WithLabelValues(extractionFailureLabel(err)).Inc()
		p.logger.Error("extraction failed",
			zap.String("accession", accessionNumber),
			zap.Error(err),
		)
		return nil, err
	}

	// Classification is a pure function of each transaction; unknown
	// codes are flagged for review, never dropped.
	for i := range filing.Transactions {
		c := Classify(filing.Transactions[i])
		filing.Transactions[i].Category = c.Category
		filing.Transactions[i].Tier = c.Tier
		filing.Transactions[i].NeedsReview = c.NeedsReview

		if c.NeedsReview {
			diags = append(diags, &DataIntegrityError{
				Code:   DiagUnknownTransactionCode,
				Path:   fmt.Sprintf("transactions[%d].transactionCode", i),
				Detail: fmt.Sprintf("unrecognized transaction code %q; defaulted to %s/%s", filing.Transactions[i].Code, c.Category, c.Tier),
			})
		}
	}
	p.metrics.TransactionsExtracted.Add(float64(len(filing.Transactions)))

	for _, d := range diags {
		p.metrics.Warnings.WithLabelValues(d.Code).Inc()
		p.logger.Warn("data integrity warning",
			zap.String("accession", accessionNumber),
			zap.String("code", d.Code),
			zap.String("path", d.Path),
			zap.String("detail", d.Detail),
		)
	}

	start := time.Now()
	upsert, err := p.store.UpsertFiling(ctx, filing)
	p.metrics.UpsertDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		p.metrics.FilingsFailed.WithLabelValues("storage").Inc()
		return nil, fmt.Errorf("upsert filing %s: %w", accessionNumber, err)
	}
	p.metrics.TransactionsInserted.Add(float64(upsert.Inserted))
	p.metrics.TransactionsDuplicate.Add(float64(upsert.Duplicates))

	result := &Result{
		Filing:      filing,
		Upsert:      upsert,
		Diagnostics: diags,
	}

	if p.alerts != nil {
		for _, t := range filing.Transactions {
			if t.Tier != TierHigh && t.Tier != TierMedium {
				continue
			}
			if err := p.alerts.Notify(ctx, Alert{AccessionNumber: accessionNumber, Transaction: t}); err != nil {
				// Alerting is best-effort: the filing is already
				// persisted, so a sink failure must not fail ingestion.
				p.logger.Warn("alert delivery failed",
					zap.String("accession", accessionNumber),
					zap.String("tier", string(t.Tier)),
					zap.Error(err),
				)
				continue
			}
			p.metrics.AlertsEmitted.WithLabelValues(string(t.Tier)).Inc()
			result.Alerted++
		}
	}

	p.metrics.FilingsProcessed.Inc()
	p.logger.Info("filing processed",
		zap.String("accession", accessionNumber),
		zap.Int("transactions", len(filing.Transactions)),
		zap.Int("inserted", upsert.Inserted),
		zap.Int("duplicates", upsert.Duplicates),
		zap.Int("alerted", result.Alerted),
	)

	return result, nil
}
