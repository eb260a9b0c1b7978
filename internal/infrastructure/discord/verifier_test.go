package discord

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "mfa.abcdefghijklmnopqrstuvwxyz.0123456789abcdefghij"

func newUpstream(t *testing.T, handler http.HandlerFunc) *Verifier {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewVerifier(srv.URL, srv.Client())
}

func TestCheck_ValidProfile(t *testing.T) {
	var gotAuth string
	v := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, "/users/@me", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"123","username":"jay","discriminator":"0","avatar":null,"email":null,"phone":null}`))
	})

	res := v.Check(context.Background(), testToken)

	assert.Equal(t, testToken, gotAuth, "token travels as the Authorization header")
	assert.True(t, res.Valid)
	assert.Empty(t, res.Error)
	require.NotNil(t, res.User)
	assert.Equal(t, "123", res.User.ID)
	assert.Equal(t, "jay", res.User.Username)
	assert.Equal(t, "0", res.User.Discriminator)
	assert.Nil(t, res.User.Avatar)
}

func TestCheck_Unauthorized(t *testing.T) {
	v := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"401: Unauthorized","code":0}`, http.StatusUnauthorized)
	})

	res := v.Check(context.Background(), testToken)

	assert.False(t, res.Valid)
	assert.Nil(t, res.User)
	assert.Contains(t, res.Error, "invalid or has expired")
}

func TestCheck_RateLimited(t *testing.T) {
	v := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	res := v.Check(context.Background(), testToken)

	assert.False(t, res.Valid)
	assert.Contains(t, res.Error, "Rate limited")
}

func TestCheck_OtherStatusPassesUpstreamMessage(t *testing.T) {
	v := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"message":"upstream is on fire"}`))
	})

	res := v.Check(context.Background(), testToken)

	assert.False(t, res.Valid)
	assert.Equal(t, "upstream is on fire", res.Error)
}

func TestCheck_OtherStatusWithoutMessage(t *testing.T) {
	v := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	res := v.Check(context.Background(), testToken)

	assert.False(t, res.Valid)
	assert.Equal(t, "Failed to verify token with Discord API", res.Error)
}

func TestCheck_MalformedProfileIsInvalidOutcome(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<!doctype html>`},
		{"missing required fields", `{"locale":"en-US"}`},
		{"empty id", `{"id":"","username":"jay","discriminator":"0"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})

			res := v.Check(context.Background(), testToken)

			assert.False(t, res.Valid)
			assert.Contains(t, res.Error, "Unexpected response shape")
		})
	}
}

func TestCheck_TransportFailureIsInvalidOutcome(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	v := NewVerifier(srv.URL, srv.Client())
	srv.Close() // connection refused from here on

	res := v.Check(context.Background(), testToken)

	assert.False(t, res.Valid)
	assert.Contains(t, res.Error, "Failed to reach Discord API")
}
