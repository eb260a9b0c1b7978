package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/token-check-api/internal/domain"
	"github.com/token-check-api/internal/pkg/validate"
)

// maxBodySize bounds how much of an upstream response is read.
const maxBodySize = 1 << 20

// Verifier checks tokens against the Discord-shaped identity API by fetching
// the profile of the account the token belongs to.
type Verifier struct {
	baseURL string
	client  *http.Client
}

// NewVerifier creates a Verifier. baseURL is injectable so tests can point it
// at a local double.
func NewVerifier(baseURL string, client *http.Client) *Verifier {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Verifier{baseURL: baseURL, client: client}
}

// Check verifies one token. It always returns a TokenResult: upstream
// rejections, transport faults and malformed response bodies all fold into an
// invalid outcome rather than an error, so one bad token can never abort a
// batch.
func (v *Verifier) Check(ctx context.Context, token string) domain.TokenResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/users/@me", nil)
	if err != nil {
		return invalid(token, fmt.Sprintf("Failed to build Discord API request: %v", err))
	}
	req.Header.Set("Authorization", token)

	resp, err := v.client.Do(req)
	if err != nil {
		return invalid(token, fmt.Sprintf("Failed to reach Discord API: %v", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return invalid(token, fmt.Sprintf("Failed to read Discord API response: %v", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return invalid(token, rejectionMessage(resp.StatusCode, body))
	}

	profile, err := parseProfile(body)
	if err != nil {
		return invalid(token, "Unexpected response shape from Discord API")
	}
	return domain.TokenResult{Token: token, Valid: true, User: profile}
}

// rejectionMessage maps an upstream non-2xx response to a caller-facing error
// string. 401 and 429 get decisive messages; anything else passes through the
// upstream-provided message when present.
func rejectionMessage(status int, body []byte) string {
	switch status {
	case http.StatusUnauthorized:
		return "Invalid token. The token you provided is invalid or has expired."
	case http.StatusTooManyRequests:
		return "Rate limited. Please try again later."
	}
	var upstream struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &upstream); err == nil && upstream.Message != "" {
		return upstream.Message
	}
	return "Failed to verify token with Discord API"
}

// parseProfile decodes and structurally checks the upstream profile document.
// A body that decodes but lacks the required identity fields is a parse
// failure, not a valid profile.
func parseProfile(body []byte) (*domain.Profile, error) {
	var p domain.Profile
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	if err := validate.Struct(&p); err != nil {
		return nil, fmt.Errorf("profile shape: %w", err)
	}
	return &p, nil
}

func invalid(token, msg string) domain.TokenResult {
	return domain.TokenResult{Token: token, Valid: false, Error: msg}
}
