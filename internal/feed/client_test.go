package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "github.com/f451labs/sysmon/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{
		BaseURL:  srv.URL,
		Username: "tester",
		Key:      "aio_secret",
	}, Dependencies{
		HTTPClient: srv.Client(),
		Limiter:    rate.NewLimiter(rate.Inf, 1),
		Now:        func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) },
	})
	require.NoError(t, err)
	return client, srv
}

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := NewClient(Config{Username: "u"}, Dependencies{})
	assert.Error(t, err)

	_, err = NewClient(Config{Key: "k"}, Dependencies{})
	assert.Error(t, err)

	c, err := NewClient(Config{Username: "u", Key: "k"}, Dependencies{})
	require.NoError(t, err)
	assert.NotEmpty(t, c.SessionID())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantErr  bool
		wantCode string
	}{
		{"feed exists", http.StatusOK, false, ""},
		{"feed missing", http.StatusNotFound, true, apperrors.ErrFeed},
		{"bad key", http.StatusUnauthorized, true, apperrors.ErrFeed},
		{"server error", http.StatusInternalServerError, true, apperrors.ErrFeed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotPath, gotKey string
			client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				gotKey = r.Header.Get("X-AIO-Key")
				w.WriteHeader(tt.status)
			}))

			err := client.Validate(context.Background(), "sysmon.download")
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsCode(err, tt.wantCode))
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, "/api/v2/tester/feeds/sysmon.download", gotPath)
			assert.Equal(t, "aio_secret", gotKey)
		})
	}
}

func TestSendValue(t *testing.T) {
	var gotBody dataPoint
	var gotPath string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))

	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	err := client.SendValue(context.Background(), "sysmon.ping", 23.5, ts)
	require.NoError(t, err)

	assert.Equal(t, "/api/v2/tester/feeds/sysmon.ping/data", gotPath)
	assert.Equal(t, "23.5", gotBody.Value)
	assert.Equal(t, "2026-01-02T03:04:05Z", gotBody.CreatedAt)
}

func TestSendValueThrottled(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	err := client.SendValue(context.Background(), "sysmon.ping", 1, time.Now())
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrThrottle),
		"429 must map to the distinguishable throttle error kind")
}

func TestSendValueOtherFailure(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	err := client.SendValue(context.Background(), "sysmon.ping", 1, time.Now())
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrUpload))
	assert.False(t, apperrors.IsCode(err, apperrors.ErrThrottle))
}
