// Package orchestrator runs the full search pipeline: parse, match, suggest and log.
package orchestrator

import (
	"context"
	"fmt"
	"math"
	"time"

	"repairer-search/internal/common/config"
	"repairer-search/internal/common/logger"
	"repairer-search/internal/common/metrics"
	"repairer-search/internal/common/observability"
	"repairer-search/internal/models"
	"repairer-search/internal/search/intent"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"go.opentelemetry.io/otel/attribute"
)

const (
	// FallbackConfidence is the threshold below which a search is flagged usedFallback.
	FallbackConfidence = 0.2

	// LoggedMatchIDs caps the ids copied into a query log entry.
	LoggedMatchIDs = 10

	OperationSearch      = "search"
	OperationQuickSearch = "quick_search"
	OperationNearby      = "search_nearby"
)

// Parser turns a raw query into an intent.
type Parser interface {
	Parse(query string) models.ParsedSearchIntent
}

// Matcher ranks directory records against an intent.
type Matcher interface {
	Match(ctx context.Context, in models.ParsedSearchIntent, opts models.MatchOptions) ([]models.MatchedRepairer, error)
}

// QueryLog persists one entry per full search.
type QueryLog interface {
	Write(ctx context.Context, entry models.QueryLogEntry) error
}

// Alerter is told when a search was answered from a failed directory.
type Alerter interface {
	NotifyDegraded(ctx context.Context, operation string, cause error) error
}

type Config struct {
	LogPoolSize     int
	LogWriteTimeout time.Duration
	SlowThreshold   time.Duration
}

// ConfigFromSearch converts the millisecond settings of the search section.
func ConfigFromSearch(sc config.SearchConfig) Config {
	return Config{
		LogPoolSize:     sc.LogPoolSize,
		LogWriteTimeout: config.GetDuration(sc.LogWriteTimeout),
		SlowThreshold:   config.GetDuration(sc.SlowThreshold),
	}
}

func (c Config) withDefaults() Config {
	if c.LogPoolSize <= 0 {
		c.LogPoolSize = 16
	}
	if c.LogWriteTimeout <= 0 {
		c.LogWriteTimeout = 2 * time.Second
	}
	if c.SlowThreshold <= 0 {
		c.SlowThreshold = 500 * time.Millisecond
	}
	return c
}

type Option func(*Orchestrator)

func WithObservability(obs *observability.Observability) Option {
	return func(o *Orchestrator) { o.obs = obs }
}

func WithAlerter(a Alerter) Option {
	return func(o *Orchestrator) { o.alerter = a }
}

type Orchestrator struct {
	parser   Parser
	matcher  Matcher
	queryLog QueryLog
	alerter  Alerter
	obs      *observability.Observability
	pool     *ants.Pool
	config   Config
	logger   logger.Logger
	now      func() time.Time
}

// New builds an orchestrator. queryLog may be nil to disable query logging.
func New(parser Parser, matcher Matcher, queryLog QueryLog, cfg Config, log logger.Logger, opts ...Option) (*Orchestrator, error) {
	cfg = cfg.withDefaults()

	pool, err := ants.NewPool(cfg.LogPoolSize, ants.WithNonblocking(true))
	if err != nil {
		return nil, fmt.Errorf("failed to create query log pool: %w", err)
	}

	o := &Orchestrator{
		parser:   parser,
		matcher:  matcher,
		queryLog: queryLog,
		pool:     pool,
		config:   cfg,
		obs:      observability.NewNoop(),
		logger:   log.WithFields(map[string]interface{}{"component": "orchestrator"}),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Search parses query, ranks repairers and attaches suggestions.
// It never fails: a directory outage yields an empty, Degraded result.
func (o *Orchestrator) Search(ctx context.Context, query string, opts models.SearchOptions) *models.AISearchResult {
	start := o.now()
	ctx, span := o.obs.StartSpan(ctx, "search", attribute.Int("queryLength", len(query)))
	defer span.End()

	_, parseSpan := o.obs.StartSpan(ctx, "search.parse")
	parsed := o.parser.Parse(query)
	parseSpan.SetAttributes(attribute.Float64("confidence", parsed.Confidence))
	parseSpan.End()

	usedFallback := parsed.Confidence < FallbackConfidence
	if usedFallback {
		metrics.SearchFallbacks.Inc()
	}

	repairers, degraded := o.match(ctx, OperationSearch, parsed, opts.MatchOptions)

	_, suggestSpan := o.obs.StartSpan(ctx, "search.suggest")
	result := &models.AISearchResult{
		Repairers:    repairers,
		Intent:       parsed,
		TotalResults: len(repairers),
		UsedFallback: usedFallback,
		Degraded:     degraded,
		Suggestions:  BuildSuggestions(parsed, len(repairers)),
	}
	if usedFallback || len(repairers) == 0 {
		result.DidYouMean = intent.DidYouMean(query)
	}
	suggestSpan.End()

	o.logQuery(query, opts, result)

	elapsed := o.now().Sub(start)
	result.SearchTime = elapsed.Milliseconds()
	span.SetAttributes(
		attribute.Int("results", result.TotalResults),
		attribute.Bool("usedFallback", usedFallback),
		attribute.Bool("degraded", degraded),
	)
	o.observe(ctx, OperationSearch, elapsed, len(repairers), degraded, map[string]interface{}{
		"query":        query,
		"confidence":   parsed.Confidence,
		"usedFallback": usedFallback,
	})
	return result
}

// QuickSearch ranks repairers from raw keywords and an optional city, skipping the parser.
func (o *Orchestrator) QuickSearch(ctx context.Context, term, city string, opts models.MatchOptions) []models.MatchedRepairer {
	start := o.now()
	ctx, span := o.obs.StartSpan(ctx, "search.quick", attribute.String("city", city))
	defer span.End()

	repairers, degraded := o.match(ctx, OperationQuickSearch, intent.FromKeywords(term, city), opts)

	o.observe(ctx, OperationQuickSearch, o.now().Sub(start), len(repairers), degraded, map[string]interface{}{
		"term": term,
		"city": city,
	})
	return repairers
}

// SearchNearby ranks repairers within radiusKm of a coordinate. A non-positive radius means 10 km.
func (o *Orchestrator) SearchNearby(ctx context.Context, lat, lng, radiusKm float64, filters models.NearbyFilters) []models.MatchedRepairer {
	start := o.now()
	if radiusKm <= 0 || math.IsNaN(radiusKm) {
		radiusKm = models.DefaultNearbyRadius
	}
	ctx, span := o.obs.StartSpan(ctx, "search.nearby",
		attribute.Float64("lat", lat),
		attribute.Float64("lng", lng),
		attribute.Float64("radiusKm", radiusKm),
	)
	defer span.End()

	opts := models.MatchOptions{
		UserLocation:  &models.GeoPoint{Lat: lat, Lng: lng},
		MaxDistanceKm: radiusKm,
		MinRating:     filters.MinRating,
	}
	repairers, degraded := o.match(ctx, OperationNearby, intent.ForNearby(filters.Brand, filters.RepairType), opts)

	o.observe(ctx, OperationNearby, o.now().Sub(start), len(repairers), degraded, map[string]interface{}{
		"radiusKm": radiusKm,
	})
	return repairers
}

// Close waits for pending query log writes, bounded by the write timeout.
func (o *Orchestrator) Close() error {
	return o.pool.ReleaseTimeout(o.config.LogWriteTimeout + time.Second)
}

func (o *Orchestrator) match(ctx context.Context, operation string, in models.ParsedSearchIntent, opts models.MatchOptions) ([]models.MatchedRepairer, bool) {
	ctx, span := o.obs.StartSpan(ctx, "search.match")
	defer span.End()

	repairers, err := o.matcher.Match(ctx, in, opts)
	if err == nil {
		return repairers, false
	}

	span.RecordError(err)
	metrics.SearchDegraded.WithLabelValues(operation).Inc()
	o.logger.Warn("search degraded", map[string]interface{}{
		"operation": operation,
		"error":     err.Error(),
	})
	o.alert(operation, err)
	return []models.MatchedRepairer{}, true
}

func (o *Orchestrator) alert(operation string, cause error) {
	if o.alerter == nil {
		return
	}
	err := o.pool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), o.config.LogWriteTimeout)
		defer cancel()
		if err := o.alerter.NotifyDegraded(ctx, operation, cause); err != nil {
			o.logger.Warn("degraded alert failed", map[string]interface{}{"error": err.Error()})
		}
	})
	if err != nil {
		o.logger.Debug("degraded alert skipped", map[string]interface{}{"error": err.Error()})
	}
}

// logQuery hands the entry to the pool and returns immediately.
// The write runs on its own timeout, detached from the caller's context.
func (o *Orchestrator) logQuery(query string, opts models.SearchOptions, result *models.AISearchResult) {
	if o.queryLog == nil {
		return
	}

	ids := make([]string, 0, LoggedMatchIDs)
	for i := 0; i < len(result.Repairers) && i < LoggedMatchIDs; i++ {
		ids = append(ids, result.Repairers[i].ID)
	}
	entry := models.QueryLogEntry{
		ID:           uuid.NewString(),
		RawQuery:     query,
		ParsedIntent: result.Intent,
		MatchedIDs:   ids,
		ResultsCount: result.TotalResults,
		UsedFallback: result.UsedFallback,
		SessionID:    opts.SessionID,
		UserID:       opts.UserID,
		CreatedAt:    o.now().UTC(),
	}

	err := o.pool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), o.config.LogWriteTimeout)
		defer cancel()
		if err := o.queryLog.Write(ctx, entry); err != nil {
			metrics.QueryLogWrites.WithLabelValues("error").Inc()
			o.logger.Warn("query log write failed", map[string]interface{}{
				"entryId": entry.ID,
				"error":   err.Error(),
			})
			return
		}
		metrics.QueryLogWrites.WithLabelValues("ok").Inc()
	})
	if err != nil {
		metrics.QueryLogWrites.WithLabelValues("dropped").Inc()
		o.logger.Warn("query log entry dropped", map[string]interface{}{
			"entryId": entry.ID,
			"error":   err.Error(),
		})
	}
}

func (o *Orchestrator) observe(ctx context.Context, operation string, elapsed time.Duration, results int, degraded bool, fields map[string]interface{}) {
	metrics.SearchRequests.WithLabelValues(operation).Inc()
	metrics.SearchDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
	metrics.SearchResults.WithLabelValues(operation).Observe(float64(results))
	o.obs.RecordSearch(ctx, operation, elapsed, degraded)

	fields["operation"] = operation
	fields["results"] = results
	fields["degraded"] = degraded
	fields["durationMs"] = elapsed.Milliseconds()
	if elapsed > o.config.SlowThreshold {
		o.logger.Warn("slow search", fields)
		return
	}
	o.logger.Info("search completed", fields)
}
