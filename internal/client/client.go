package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Shubhankar4862/weather/internal/circuitbreaker"
	"github.com/Shubhankar4862/weather/internal/models"
	"github.com/Shubhankar4862/weather/internal/observability"
)

// ForecastClient issues one forecast request for a stored location.
type ForecastClient interface {
	GetForecast(ctx context.Context, location models.Location) (models.ProviderForecast, error)
}

var (
	// ErrInvalidLocation is returned when a location has neither a zip nor a
	// complete coordinate pair. Unreachable for validated writes, but stored
	// rows may predate the validator, so the builder defends independently.
	ErrInvalidLocation = errors.New("location has neither zip nor coordinates")

	// ErrInvalidAPIKey is returned when the provider rejects the API key.
	ErrInvalidAPIKey = errors.New("invalid API key")

	// ErrUpstreamFailure is returned on non-success provider responses.
	ErrUpstreamFailure = errors.New("upstream failure")
)

// defaultCountry is appended to bare zip codes that carry no explicit country.
const defaultCountry = "us"

// OpenWeatherClient fetches forecasts from the OpenWeatherMap forecast
// endpoint. One attempt per call; the aggregator never retries.
type OpenWeatherClient struct {
	apiKey  string
	apiURL  string
	timeout time.Duration
	client  *http.Client
	breaker *circuitbreaker.CircuitBreaker
}

// NewOpenWeatherClient creates a client for the given endpoint and key.
func NewOpenWeatherClient(apiKey, apiURL string, timeout time.Duration) (*OpenWeatherClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: API key is required", ErrInvalidAPIKey)
	}
	return &OpenWeatherClient{
		apiKey:  apiKey,
		apiURL:  apiURL,
		timeout: timeout,
		client: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// SetCircuitBreaker wraps provider calls in the given breaker.
func (c *OpenWeatherClient) SetCircuitBreaker(cb *circuitbreaker.CircuitBreaker) {
	c.breaker = cb
}

// forecastResponse is the subset of the provider document we interpret.
// City name and country are both optional; the forecast list passes through
// opaquely.
type forecastResponse struct {
	City struct {
		Name    string `json:"name"`
		Country string `json:"country"`
	} `json:"city"`
	List json.RawMessage `json:"list"`
}

// BuildForecastURL maps a location to the exact provider request target.
// Coordinate mode wins when both lat and lon are present (presence is a nil
// check, so 0 is a valid coordinate); otherwise zip mode with the zip
// normalized to carry a country suffix.
func BuildForecastURL(apiURL, apiKey string, location models.Location) (string, error) {
	base, err := url.Parse(apiURL)
	if err != nil {
		return "", fmt.Errorf("invalid API URL: %w", err)
	}

	params := url.Values{}
	switch {
	case location.Lat != nil && location.Lon != nil:
		params.Set("lat", strconv.FormatFloat(*location.Lat, 'f', -1, 64))
		params.Set("lon", strconv.FormatFloat(*location.Lon, 'f', -1, 64))
	case location.Zip != nil:
		params.Set("zip", NormalizeZip(*location.Zip))
	default:
		return "", ErrInvalidLocation
	}
	params.Set("appid", apiKey)
	params.Set("units", "metric")
	base.RawQuery = params.Encode()

	return base.String(), nil
}

// NormalizeZip appends the default country to a zip that has no explicit one.
// A zip that already contains a comma passes through unchanged.
func NormalizeZip(zip string) string {
	if strings.Contains(zip, ",") {
		return zip
	}
	return zip + "," + defaultCountry
}

// GetForecast issues a single forecast request for the location. Exactly one
// provider attempt; failures come back as errors for the aggregator to record
// inline.
func (c *OpenWeatherClient) GetForecast(ctx context.Context, location models.Location) (models.ProviderForecast, error) {
	if c.breaker == nil {
		return c.callAPI(ctx, location)
	}
	var result models.ProviderForecast
	err := c.breaker.Call(ctx, func() error {
		var callErr error
		result, callErr = c.callAPI(ctx, location)
		return callErr
	})
	if err != nil {
		return models.ProviderForecast{}, err
	}
	return result, nil
}

func (c *OpenWeatherClient) callAPI(ctx context.Context, location models.Location) (models.ProviderForecast, error) {
	start := time.Now()

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	target, err := BuildForecastURL(c.apiURL, c.apiKey, location)
	if err != nil {
		observability.ProviderCallsTotal.WithLabelValues("error").Inc()
		return models.ProviderForecast{}, err
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, target, nil)
	if err != nil {
		observability.ProviderCallsTotal.WithLabelValues("error").Inc()
		return models.ProviderForecast{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if corrID := extractCorrelationID(ctx); corrID != "" {
		req.Header.Set("X-Correlation-ID", corrID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		duration := time.Since(start).Seconds()
		observability.ProviderCallsTotal.WithLabelValues("error").Inc()
		observability.ProviderCallDuration.WithLabelValues("error").Observe(duration)

		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return models.ProviderForecast{}, fmt.Errorf("request timeout: %w", err)
		}
		return models.ProviderForecast{}, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	duration := time.Since(start).Seconds()
	status := statusLabel(resp.StatusCode)
	observability.ProviderCallsTotal.WithLabelValues(status).Inc()
	observability.ProviderCallDuration.WithLabelValues(status).Observe(duration)

	if err := handleErrorResponse(resp); err != nil {
		return models.ProviderForecast{}, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.ProviderForecast{}, fmt.Errorf("read response body: %w", err)
	}

	var apiResp forecastResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return models.ProviderForecast{}, fmt.Errorf("parse response: %w", err)
	}

	return models.ProviderForecast{
		Place:    composePlace(apiResp.City.Name, apiResp.City.Country),
		Forecast: apiResp.List,
	}, nil
}

// composePlace builds the display name: country-qualified when the country is
// known, bare city otherwise, empty when neither is reported.
func composePlace(name, country string) string {
	if name == "" {
		return ""
	}
	if country == "" {
		return name
	}
	return name + ", " + country
}

func handleErrorResponse(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: provider rejected API key", ErrInvalidAPIKey)
	case http.StatusNotFound:
		return fmt.Errorf("%w: location not found by provider", ErrUpstreamFailure)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: HTTP %d", ErrUpstreamFailure, resp.StatusCode)
	}
	return nil
}

func statusLabel(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "success"
	case statusCode >= 400 && statusCode < 500:
		return "client_error"
	case statusCode >= 500:
		return "server_error"
	default:
		return "error"
	}
}

func extractCorrelationID(ctx context.Context) string {
	if v := ctx.Value("correlation_id"); v != nil {
		if corrID, ok := v.(string); ok {
			return corrID
		}
	}
	return ""
}

var _ ForecastClient = (*OpenWeatherClient)(nil)
