package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/tripforge/tripforge/internal/domain/provider"
	"github.com/tripforge/tripforge/internal/domain/travel"
	"github.com/tripforge/tripforge/internal/observability"
)

// DefaultUpstreamTimeout bounds a single provider call.
const DefaultUpstreamTimeout = 30 * time.Second

// SearchResult is the orchestrator's search outcome: the offers, the
// provider that produced them, and whether the fallback path or the cache
// served the request.
type SearchResult struct {
	Offers       []travel.Offer `json:"offers"`
	Provider     string         `json:"provider"`
	UsedFallback bool           `json:"usedFallback"`
	CacheHit     bool           `json:"cacheHit"`
}

// OrchestratorService routes provider calls through the registry with
// sequential fallback for searches. Only search is retried against a
// fallback provider: it has no side effects. Offer detail and booking
// always go to one named provider.
type OrchestratorService struct {
	registry        *provider.Registry
	cache           provider.SearchCache
	metrics         *observability.Metrics
	validate        *validator.Validate
	logger          *slog.Logger
	fallbackEnabled bool
	upstreamTimeout time.Duration
}

// OrchestratorOption configures OrchestratorService.
type OrchestratorOption func(*OrchestratorService)

// WithSearchCache attaches a search result cache.
func WithSearchCache(cache provider.SearchCache) OrchestratorOption {
	return func(s *OrchestratorService) {
		s.cache = cache
	}
}

// WithMetrics attaches Prometheus metrics.
func WithMetrics(m *observability.Metrics) OrchestratorOption {
	return func(s *OrchestratorService) {
		s.metrics = m
	}
}

// WithFallback enables or disables the fallback path for searches.
func WithFallback(enabled bool) OrchestratorOption {
	return func(s *OrchestratorService) {
		s.fallbackEnabled = enabled
	}
}

// WithUpstreamTimeout overrides the per-call provider timeout.
func WithUpstreamTimeout(d time.Duration) OrchestratorOption {
	return func(s *OrchestratorService) {
		s.upstreamTimeout = d
	}
}

// NewOrchestratorService creates the orchestrator. Fallback is enabled by
// default; no cache is attached unless WithSearchCache is given.
func NewOrchestratorService(registry *provider.Registry, logger *slog.Logger, opts ...OrchestratorOption) *OrchestratorService {
	s := &OrchestratorService{
		registry:        registry,
		validate:        validator.New(),
		logger:          logger,
		fallbackEnabled: true,
		upstreamTimeout: DefaultUpstreamTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SearchWithFallback searches the preferred provider, or the primary when
// preferred is empty. When the primary attempt fails with any error and
// fallback is enabled, the next available provider is tried sequentially;
// if the fallback also fails, the primary's error is surfaced. Naming a
// provider explicitly bypasses fallback entirely.
func (s *OrchestratorService) SearchWithFallback(ctx context.Context, params travel.SearchParams, preferred string) (*SearchResult, error) {
	if err := s.validate.Struct(params); err != nil {
		return nil, &travel.ValidationError{Field: "searchParams", Message: err.Error()}
	}

	key := searchCacheKey(params, preferred)
	if s.cache != nil {
		if offers, name, ok := s.cache.Get(ctx, key); ok {
			s.countCacheLookup("hit")
			s.logger.Debug("search served from cache", "provider", name, "offers", len(offers))
			return &SearchResult{Offers: offers, Provider: name, CacheHit: true}, nil
		}
		s.countCacheLookup("miss")
	}

	primary, err := s.resolveAdapter(preferred)
	if err != nil {
		return nil, err
	}

	ctx, span := observability.Tracer().Start(ctx, "orchestrator.search")
	defer span.End()
	span.SetAttributes(
		attribute.String("provider.primary", primary.Name()),
		attribute.String("search.origin", params.Origin),
		attribute.String("search.destination", params.Destination),
	)

	offers, primaryErr := s.searchOne(ctx, primary, params)
	if primaryErr == nil {
		s.cachePut(ctx, key, primary.Name(), offers)
		return &SearchResult{Offers: offers, Provider: primary.Name()}, nil
	}

	if preferred != "" || !s.fallbackEnabled {
		span.SetStatus(codes.Error, primaryErr.Error())
		return nil, primaryErr
	}

	fallback := s.registry.FallbackFor(primary.Name())
	if fallback == nil {
		span.SetStatus(codes.Error, primaryErr.Error())
		return nil, primaryErr
	}

	s.logger.Warn("primary provider failed, trying fallback",
		"primary", primary.Name(), "fallback", fallback.Name(), "error", primaryErr)
	span.SetAttributes(attribute.String("provider.fallback", fallback.Name()))

	offers, fallbackErr := s.searchOne(ctx, fallback, params)
	if fallbackErr != nil {
		s.logger.Error("fallback provider also failed",
			"fallback", fallback.Name(), "error", fallbackErr)
		span.SetStatus(codes.Error, primaryErr.Error())
		// The primary's error is the one the caller acts on.
		return nil, primaryErr
	}

	if s.metrics != nil {
		s.metrics.FallbacksTotal.WithLabelValues(primary.Name(), fallback.Name()).Inc()
	}
	s.cachePut(ctx, key, fallback.Name(), offers)
	return &SearchResult{Offers: offers, Provider: fallback.Name(), UsedFallback: true}, nil
}

// GetOfferDetail fetches current offer state from the named provider, or
// the primary when name is empty. Never retried against a fallback: offer
// ids are provider-scoped.
func (s *OrchestratorService) GetOfferDetail(ctx context.Context, offerID, providerName string) (*travel.Offer, error) {
	adapter, err := s.resolveAdapter(providerName)
	if err != nil {
		return nil, err
	}

	ctx, span := observability.Tracer().Start(ctx, "orchestrator.offer_detail")
	defer span.End()
	span.SetAttributes(attribute.String("provider", adapter.Name()))

	callCtx, cancel := context.WithTimeout(ctx, s.upstreamTimeout)
	defer cancel()

	offer, err := adapter.GetOfferDetail(callCtx, offerID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return offer, nil
}

// CreateBooking books an offer with the named provider, or the primary
// when name is empty. Booking is never retried against a fallback to avoid
// duplicate real-world side effects.
func (s *OrchestratorService) CreateBooking(ctx context.Context, params provider.BookingParams, providerName string) (*travel.BookingConfirmation, error) {
	if err := s.validate.Struct(params); err != nil {
		return nil, &travel.ValidationError{Field: "bookingParams", Message: err.Error()}
	}

	adapter, err := s.resolveAdapter(providerName)
	if err != nil {
		return nil, err
	}

	ctx, span := observability.Tracer().Start(ctx, "orchestrator.create_booking")
	defer span.End()
	span.SetAttributes(
		attribute.String("provider", adapter.Name()),
		attribute.String("offer.id", params.OfferID),
	)

	callCtx, cancel := context.WithTimeout(ctx, s.upstreamTimeout)
	defer cancel()

	conf, err := adapter.CreateBooking(callCtx, params)
	outcome := "ok"
	if err != nil {
		outcome = "error"
		span.SetStatus(codes.Error, err.Error())
	}
	if s.metrics != nil {
		s.metrics.BookingsTotal.WithLabelValues(adapter.Name(), outcome).Inc()
	}
	if err != nil {
		return nil, err
	}
	s.logger.Info("booking created",
		"provider", adapter.Name(), "reference", conf.Reference, "status", conf.Status)
	return conf, nil
}

// SeatMaps fetches seat maps from the named provider, or the primary when
// name is empty. Providers without the capability return
// provider.ErrCapabilityNotSupported.
func (s *OrchestratorService) SeatMaps(ctx context.Context, offerID, providerName string) ([]provider.SeatMap, error) {
	adapter, err := s.resolveAdapter(providerName)
	if err != nil {
		return nil, err
	}
	callCtx, cancel := context.WithTimeout(ctx, s.upstreamTimeout)
	defer cancel()
	return adapter.SeatMaps(callCtx, offerID)
}

// AvailableServices lists ancillary services from the named provider, or
// the primary when name is empty.
func (s *OrchestratorService) AvailableServices(ctx context.Context, offerID, providerName string) ([]provider.Service, error) {
	adapter, err := s.resolveAdapter(providerName)
	if err != nil {
		return nil, err
	}
	callCtx, cancel := context.WithTimeout(ctx, s.upstreamTimeout)
	defer cancel()
	return adapter.AvailableServices(callCtx, offerID)
}

// Providers reports every known provider name and whether it is usable.
func (s *OrchestratorService) Providers() map[string]bool {
	out := make(map[string]bool)
	for _, name := range s.registry.Names() {
		out[name] = s.registry.Available(name)
	}
	return out
}

func (s *OrchestratorService) resolveAdapter(name string) (provider.Adapter, error) {
	if name != "" {
		return s.registry.Get(name)
	}
	return s.registry.Primary()
}

// searchOne runs one provider search with the per-call timeout and records
// its metrics.
func (s *OrchestratorService) searchOne(ctx context.Context, adapter provider.Adapter, params travel.SearchParams) ([]travel.Offer, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.upstreamTimeout)
	defer cancel()

	start := time.Now()
	offers, err := adapter.Search(callCtx, params)
	elapsed := time.Since(start)

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	if s.metrics != nil {
		s.metrics.SearchesTotal.WithLabelValues(adapter.Name(), outcome).Inc()
		s.metrics.SearchDuration.WithLabelValues(adapter.Name()).Observe(elapsed.Seconds())
	}
	if err != nil {
		return nil, fmt.Errorf("provider %s search: %w", adapter.Name(), err)
	}
	return offers, nil
}

func (s *OrchestratorService) cachePut(ctx context.Context, key uint64, providerName string, offers []travel.Offer) {
	if s.cache == nil {
		return
	}
	s.cache.Put(ctx, key, providerName, offers)
}

func (s *OrchestratorService) countCacheLookup(result string) {
	if s.metrics != nil {
		s.metrics.CacheLookupsTotal.WithLabelValues(result).Inc()
	}
}

// searchCacheKey hashes the normalized search parameters. The preferred
// provider is part of the key: an explicit provider request must never be
// served from another provider's cached results.
func searchCacheKey(params travel.SearchParams, preferred string) uint64 {
	var b strings.Builder
	b.WriteString(strings.ToUpper(params.Origin))
	b.WriteByte('|')
	b.WriteString(strings.ToUpper(params.Destination))
	b.WriteByte('|')
	b.WriteString(params.DepartureDate)
	b.WriteByte('|')
	b.WriteString(params.ReturnDate)
	b.WriteByte('|')
	fmt.Fprintf(&b, "%d|%d|%d|%s|%d|%s",
		params.Adults, params.Children, params.Infants,
		params.CabinClass, params.MaxResults, preferred)
	return xxhash.Sum64String(b.String())
}
