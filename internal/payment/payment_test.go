package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockProvider(t *testing.T) {
	p := NewMockProvider()
	a, err := p.CreateCheckout(context.Background(), 100, "ref")
	require.NoError(t, err)
	b, err := p.CreateCheckout(context.Background(), 100, "ref")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(a, "mock_"))
	assert.NotEqual(t, a, b)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.CreateCheckout(ctx, 100, "ref")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHTTPProvider_CreateCheckout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/checkouts", r.URL.Path)
		assert.Equal(t, "Bearer key-1", r.Header.Get("Authorization"))
		assert.Equal(t, "ref-42", r.Header.Get("Idempotency-Key"))

		var req checkoutRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(2500), req.AmountCents)
		assert.Equal(t, "ref-42", req.Reference)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"chk_789"}`))
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL+"/", "key-1", time.Second)
	id, err := p.CreateCheckout(context.Background(), 2500, "ref-42")
	require.NoError(t, err)
	assert.Equal(t, "chk_789", id)
}

func TestHTTPProvider_Failures(t *testing.T) {
	t.Run("Gateway error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "card network down", http.StatusBadGateway)
		}))
		defer srv.Close()

		_, err := NewHTTPProvider(srv.URL, "k", time.Second).CreateCheckout(context.Background(), 1, "r")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "502")
		assert.Contains(t, err.Error(), "card network down")
	})

	t.Run("Empty id", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		}))
		defer srv.Close()

		_, err := NewHTTPProvider(srv.URL, "k", time.Second).CreateCheckout(context.Background(), 1, "r")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty checkout id")
	})

	t.Run("Timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer srv.Close()

		_, err := NewHTTPProvider(srv.URL, "k", 20*time.Millisecond).CreateCheckout(context.Background(), 1, "r")
		assert.Error(t, err)
	})
}
