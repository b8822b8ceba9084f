package domain

import (
	"context"
	"time"
)

// WeatherFetchError is the message carried by a WeatherRecord when the provider failed.
const WeatherFetchError = "Failed to fetch weather data"

// WeatherRecord is derived weather data for a (location, date) pair. It only lives in
// the weather cache. When Error is set the other fields are empty.
// swagger:model WeatherRecord
type WeatherRecord struct {
	Location        string   `json:"location,omitempty"`
	Date            string   `json:"date,omitempty"`
	Condition       string   `json:"weather,omitempty"`
	TemperatureC    *float64 `json:"temperature,omitempty"`
	PrecipitationMM *float64 `json:"precipitation,omitempty"`
	Error           string   `json:"error,omitempty"`
}

// Failed reports whether the record is an error marker.
func (w *WeatherRecord) Failed() bool { return w.Error != "" }

// WeatherFailure returns the error marker record.
func WeatherFailure() *WeatherRecord {
	return &WeatherRecord{Error: WeatherFetchError}
}

// CurrentConditions is the provider's answer for a location.
type CurrentConditions struct {
	ConditionText string
	TempC         float64
	PrecipMM      float64
}

// WeatherProvider fetches current conditions from an external service.
type WeatherProvider interface {
	FetchCurrentConditions(ctx context.Context, location string) (CurrentConditions, error)
}

// WeatherCache stores encoded weather records with a time-to-live. Get reports a miss
// with ok == false and a nil error.
type WeatherCache interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// WeatherService returns weather for a location on a date. It never fails: provider
// errors come back as an error-marker record.
type WeatherService interface {
	GetWeather(ctx context.Context, location, date string) *WeatherRecord
}
