package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoJSON_RetriesTemporaryStatus(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"text":"ok"}`))
	}))
	defer server.Close()

	client := NewClient(time.Second, WithRetries(2), WithBackoff(time.Millisecond))

	var out struct {
		Text string `json:"text"`
	}
	err := client.DoJSON(context.Background(), http.MethodPost, server.URL, map[string]string{"Authorization": "Bearer k"}, map[string]string{"a": "b"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "ok", out.Text)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestDoJSON_ClientErrorNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("bad prompt"))
	}))
	defer server.Close()

	client := NewClient(time.Second, WithRetries(3), WithBackoff(time.Millisecond))
	err := client.DoJSON(context.Background(), http.MethodGet, server.URL, nil, nil, nil)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
	assert.False(t, statusErr.Temporary())
	assert.Equal(t, "bad prompt", statusErr.Body)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDoJSON_DecodeErrorNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := NewClient(time.Second, WithRetries(3), WithBackoff(time.Millisecond))
	var out map[string]interface{}
	err := client.DoJSON(context.Background(), http.MethodGet, server.URL, nil, nil, &out)

	var decodeErr *DecodeError
	assert.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDoJSON_ContextDeadline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(0, WithRetries(5), WithBackoff(200*time.Millisecond))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := client.DoJSON(ctx, http.MethodGet, server.URL, nil, nil, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
