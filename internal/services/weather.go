package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"eventplanner/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

// DefaultWeatherTTL is how long a weather record, or a failure marker, stays cached.
const DefaultWeatherTTL = 24 * time.Hour

const defaultWeatherFetchTimeout = 10 * time.Second

// WeatherGateway is a cache-aside front for a WeatherProvider. Misses on the same key
// are collapsed into one upstream call.
type WeatherGateway struct {
	provider     domain.WeatherProvider
	cache        domain.WeatherCache
	ttl          time.Duration
	fetchTimeout time.Duration
	group        singleflight.Group
	logger       *slog.Logger
}

// NewWeatherGateway returns a gateway caching records for ttl (DefaultWeatherTTL when zero).
func NewWeatherGateway(provider domain.WeatherProvider, cache domain.WeatherCache, ttl time.Duration, logger *slog.Logger) *WeatherGateway {
	if ttl <= 0 {
		ttl = DefaultWeatherTTL
	}
	return &WeatherGateway{
		provider:     provider,
		cache:        cache,
		ttl:          ttl,
		fetchTimeout: defaultWeatherFetchTimeout,
		logger:       logger,
	}
}

// WeatherKey encodes the exact (location, date) pair. The length prefix keeps pairs like
// ("a:b", "c") and ("a", "b:c") apart.
func WeatherKey(location, date string) string {
	return fmt.Sprintf("weather:%d:%s:%s", len(location), location, date)
}

// GetWeather returns the cached record for (location, date), fetching it on a miss.
// Provider failures are cached as the error marker for the full TTL. A caller whose
// context ends first gets the marker; the shared fetch still completes and is cached.
func (g *WeatherGateway) GetWeather(ctx context.Context, location, date string) *domain.WeatherRecord {
	ctx, span := tracer.Start(ctx, "WeatherGateway.GetWeather", trace.WithAttributes(
		attribute.String("weather.location", location),
		attribute.String("weather.date", date),
	))
	defer span.End()

	key := WeatherKey(location, date)
	if rec, ok := g.lookup(ctx, key); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return rec
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	ch := g.group.DoChan(key, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.fetchTimeout)
		defer cancel()
		// Another flight may have filled the key between our miss and this call.
		if rec, ok := g.lookup(fetchCtx, key); ok {
			return rec, nil
		}
		return g.fetch(fetchCtx, key, location, date), nil
	})
	select {
	case res := <-ch:
		rec := *res.Val.(*domain.WeatherRecord)
		return &rec
	case <-ctx.Done():
		g.logger.Debug("weather lookup abandoned by caller", "key", key, "error", ctx.Err())
		return domain.WeatherFailure()
	}
}

func (g *WeatherGateway) lookup(ctx context.Context, key string) (*domain.WeatherRecord, bool) {
	raw, ok, err := g.cache.Get(ctx, key)
	if err != nil {
		g.logger.Warn("weather cache read failed", "key", key, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	rec := &domain.WeatherRecord{}
	if err := json.Unmarshal(raw, rec); err != nil {
		g.logger.Warn("weather cache entry unreadable", "key", key, "error", err)
		return nil, false
	}
	return rec, true
}

func (g *WeatherGateway) fetch(ctx context.Context, key, location, date string) *domain.WeatherRecord {
	cond, err := g.provider.FetchCurrentConditions(ctx, location)
	var rec *domain.WeatherRecord
	if err != nil {
		g.logger.Warn("weather fetch failed", "location", location, "date", date, "error", err)
		rec = domain.WeatherFailure()
	} else {
		temp, precip := cond.TempC, cond.PrecipMM
		rec = &domain.WeatherRecord{
			Location:        location,
			Date:            date,
			Condition:       cond.ConditionText,
			TemperatureC:    &temp,
			PrecipitationMM: &precip,
		}
	}

	raw, err := json.Marshal(rec)
	if err != nil {
		g.logger.Warn("weather record encode failed", "key", key, "error", err)
		return rec
	}
	if err := g.cache.Set(ctx, key, raw, g.ttl); err != nil {
		g.logger.Warn("weather cache write failed", "key", key, "error", err)
	}
	return rec
}
