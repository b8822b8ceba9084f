package weatherapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"eventplanner/internal/domain"
)

// DefaultBaseURL is the weatherapi.com v1 API root.
const DefaultBaseURL = "http://api.weatherapi.com/v1"

const defaultTimeout = 10 * time.Second

type forecastResponse struct {
	Current *struct {
		TempC     *float64 `json:"temp_c"`
		PrecipMM  *float64 `json:"precip_mm"`
		Condition struct {
			Text string `json:"text"`
		} `json:"condition"`
	} `json:"current"`
}

type weatherAPIClient struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewClient returns a WeatherProvider backed by the weatherapi.com forecast endpoint.
func NewClient(client *http.Client, baseURL, apiKey string) domain.WeatherProvider {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &weatherAPIClient{client: client, baseURL: baseURL, apiKey: apiKey}
}

// FetchCurrentConditions asks for a one-day forecast of location and returns its current block.
// Transport errors, non-2xx answers and payloads without current data all wrap
// domain.ErrUpstreamUnavailable.
func (c *weatherAPIClient) FetchCurrentConditions(ctx context.Context, location string) (domain.CurrentConditions, error) {
	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("q", location)
	q.Set("days", "1")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/forecast.json?"+q.Encode(), nil)
	if err != nil {
		return domain.CurrentConditions{}, fmt.Errorf("%w: create request: %v", domain.ErrUpstreamUnavailable, err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return domain.CurrentConditions{}, fmt.Errorf("%w: fetch forecast: %w", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return domain.CurrentConditions{}, fmt.Errorf("%w: weather api returned status: %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
	}

	var data forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return domain.CurrentConditions{}, fmt.Errorf("%w: decode forecast: %v", domain.ErrUpstreamUnavailable, err)
	}
	if data.Current == nil || data.Current.TempC == nil {
		return domain.CurrentConditions{}, fmt.Errorf("%w: forecast has no current conditions", domain.ErrUpstreamUnavailable)
	}
	cond := domain.CurrentConditions{
		ConditionText: data.Current.Condition.Text,
		TempC:         *data.Current.TempC,
	}
	if data.Current.PrecipMM != nil {
		cond.PrecipMM = *data.Current.PrecipMM
	}
	return cond, nil
}
