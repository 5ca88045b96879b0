package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkghttp "github.com/dharmateja03/GoodTurkey/pkg/http"
)

func TestClient_Snapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/sync", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"timestamp":"2024-03-09T10:00:00Z","rules":[
			{"id":"r1","pattern":"reddit.com","windows":[{"id":"w1","day_of_week":null,"start_time":"19:00:00","end_time":"21:00:00"}]}
		]}`))
	}))
	defer srv.Close()

	snap, err := New(srv.URL, "secret", time.Second).Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Rules, 1)
	assert.Equal(t, "reddit.com", snap.Rules[0].Pattern)
	assert.Nil(t, snap.Rules[0].Windows[0].DayOfWeek)
	assert.Equal(t, time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC), snap.Timestamp)
}

func TestClient_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		pkghttp.WriteUnauthorized(w, "missing authorization header")
	}))
	defer srv.Close()

	_, err := New(srv.URL, "", time.Second).Snapshot(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestClient_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pkghttp.WriteInternalError(w, "database unavailable")
	}))
	defer srv.Close()

	_, err := New(srv.URL, "t", time.Second).Snapshot(context.Background())
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	assert.Equal(t, "internal_error", statusErr.Code)
}

func TestClient_ReportAttempt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/sites/attempt", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "https://old.reddit.com/r/golang", body["url"])

		pkghttp.WriteJSON(w, http.StatusOK, AttemptResult{Host: "old.reddit.com", Blocked: true, Matched: []string{"r1"}})
	}))
	defer srv.Close()

	res, err := New(srv.URL, "t", time.Second).ReportAttempt(context.Background(), "https://old.reddit.com/r/golang")
	require.NoError(t, err)
	assert.True(t, res.Blocked)
	assert.Equal(t, []string{"r1"}, res.Matched)
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url, "t", time.Second).Snapshot(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnauthorized)
}
