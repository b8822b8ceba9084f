package weatherapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"eventplanner/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_FetchCurrentConditions(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    domain.CurrentConditions
		wantErr bool
	}{
		{
			name:   "success",
			status: http.StatusOK,
			body:   `{"location":{"name":"Lisbon"},"current":{"temp_c":24.5,"precip_mm":0.1,"condition":{"text":"Partly cloudy"}},"forecast":{}}`,
			want:   domain.CurrentConditions{ConditionText: "Partly cloudy", TempC: 24.5, PrecipMM: 0.1},
		},
		{
			name:    "non-2xx",
			status:  http.StatusBadRequest,
			body:    `{"error":{"code":1006,"message":"No matching location found."}}`,
			wantErr: true,
		},
		{
			name:    "server error",
			status:  http.StatusInternalServerError,
			body:    `oops`,
			wantErr: true,
		},
		{
			name:    "malformed json",
			status:  http.StatusOK,
			body:    `{"current":`,
			wantErr: true,
		},
		{
			name:    "missing current block",
			status:  http.StatusOK,
			body:    `{"location":{"name":"Lisbon"}}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotPath, gotKey, gotQ, gotDays string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				gotKey = r.URL.Query().Get("key")
				gotQ = r.URL.Query().Get("q")
				gotDays = r.URL.Query().Get("days")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(srv.Client(), srv.URL, "secret-key")
			got, err := c.FetchCurrentConditions(context.Background(), "São Paulo, BR")

			assert.Equal(t, "/forecast.json", gotPath)
			assert.Equal(t, "secret-key", gotKey)
			assert.Equal(t, "São Paulo, BR", gotQ)
			assert.Equal(t, "1", gotDays)
			if tt.wantErr {
				require.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	c := NewClient(&http.Client{Timeout: 20 * time.Millisecond}, srv.URL, "k")
	_, err := c.FetchCurrentConditions(context.Background(), "Lisbon")
	require.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(nil, "", "k").(*weatherAPIClient)
	assert.Equal(t, DefaultBaseURL, c.baseURL)
	assert.Equal(t, defaultTimeout, c.client.Timeout)
}
