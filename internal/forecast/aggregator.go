package forecast

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Shubhankar4862/weather/internal/health"
	"github.com/Shubhankar4862/weather/internal/models"
	"github.com/Shubhankar4862/weather/internal/observability"
)

// Fetcher issues one provider request for a stored location. Implemented by
// client.OpenWeatherClient; mocked in tests.
type Fetcher interface {
	GetForecast(ctx context.Context, location models.Location) (models.ProviderForecast, error)
}

// Aggregator turns a user's stored locations into one ordered result list.
// Each location's forecast succeeds or fails independently: a provider
// failure is recorded inline and never aborts the other locations.
type Aggregator struct {
	fetcher Fetcher
	logger  *zap.Logger
}

// New creates an Aggregator over the given fetcher.
func New(fetcher Fetcher, logger *zap.Logger) *Aggregator {
	return &Aggregator{fetcher: fetcher, logger: logger}
}

// Aggregate issues one forecast request per location, concurrently, and
// reassembles the outcomes in input order regardless of completion order.
// Exactly one provider attempt per location; no retries.
func (a *Aggregator) Aggregate(ctx context.Context, locations []models.Location) []models.ForecastResult {
	start := time.Now()
	results := make([]models.ForecastResult, len(locations))

	var wg sync.WaitGroup
	for i, loc := range locations {
		i, loc := i, loc
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = a.fetchOne(ctx, loc)
		}()
	}
	wg.Wait()

	observability.AggregationDuration.Observe(time.Since(start).Seconds())
	observability.AggregationLocations.Observe(float64(len(locations)))
	if a.logger != nil {
		failures := 0
		for _, r := range results {
			if r.Error != "" {
				failures++
			}
		}
		a.logger.Debug("aggregation complete",
			zap.Int("locations", len(locations)),
			zap.Int("failures", failures),
			zap.Duration("duration", time.Since(start)))
	}
	return results
}

func (a *Aggregator) fetchOne(ctx context.Context, location models.Location) models.ForecastResult {
	result := models.ForecastResult{Location: location}

	forecast, err := a.fetcher.GetForecast(ctx, location)
	if err != nil {
		health.RecordProviderError()
		result.Error = err.Error()
		return result
	}
	health.RecordProviderSuccess()
	result.Place = forecast.Place
	result.Forecast = forecast.Forecast
	return result
}
