// Package webhook posts audit events to a Discord-style webhook as embeds.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/token-check-api/internal/audit"
	"github.com/token-check-api/internal/pkg/sanitize"
)

// maxDetailsLen caps the serialized data block inside an embed field.
const maxDetailsLen = 1000

type embedFooter struct {
	Text string `json:"text"`
}

type embedField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Color       int          `json:"color"`
	Timestamp   string       `json:"timestamp"`
	Footer      embedFooter  `json:"footer"`
	Fields      []embedField `json:"fields"`
}

type payload struct {
	Username  string  `json:"username"`
	AvatarURL string  `json:"avatar_url,omitempty"`
	Embeds    []embed `json:"embeds"`
}

// Sink implements audit.Sink against a webhook URL.
type Sink struct {
	url    string
	client *http.Client
	now    func() time.Time // injectable for tests
}

func NewSink(url string, client *http.Client) *Sink {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Sink{url: url, client: client, now: time.Now}
}

// Send formats the event as a single-embed webhook payload and posts it.
// Data is sanitized before serialization so no credential material leaves the
// process. Returns an error on transport failure or a non-2xx response; the
// caller (audit.Logger) swallows it.
func (s *Sink) Send(ctx context.Context, e audit.Event) error {
	ts := s.now().UTC()

	em := embed{
		Title:       fmt.Sprintf("%s %s", emojiFor(e.Kind), e.Kind),
		Description: e.Message,
		Color:       colorFor(e.Kind),
		Timestamp:   ts.Format(time.RFC3339),
		Footer: embedFooter{
			Text: fmt.Sprintf("Timestamp: %s • Token Checker", ts.Format("01/02/2006, 15:04:05")),
		},
		Fields: []embedField{},
	}
	if e.Data != nil {
		if details := formatDetails(e.Data); details != "" {
			em.Fields = append(em.Fields, embedField{Name: "📄 Details", Value: details})
		}
	}

	body, err := json.Marshal(payload{
		Username:  "Token Checker Bot",
		AvatarURL: "https://cdn-icons-png.flaticon.com/512/6295/6295417.png",
		Embeds:    []embed{em},
	})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errText, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("webhook responded %d: %s", resp.StatusCode, errText)
	}
	return nil
}

// formatDetails serializes sanitized data into a fenced JSON block, truncated
// with an ellipsis marker once it exceeds maxDetailsLen.
func formatDetails(data map[string]interface{}) string {
	clean := sanitize.Data(data)
	raw, err := json.MarshalIndent(clean, "", "  ")
	if err != nil {
		return ""
	}
	jsonStr := string(raw)
	if len(jsonStr) > maxDetailsLen {
		jsonStr = jsonStr[:maxDetailsLen-3] + "..."
	}
	return fmt.Sprintf("```json\n%s\n```", jsonStr)
}

func emojiFor(k audit.Kind) string {
	switch k {
	case audit.KindInfo:
		return "📘"
	case audit.KindRequest:
		return "🔄"
	case audit.KindTokenCheck:
		return "🔍"
	case audit.KindLogin:
		return "🔑"
	case audit.KindError:
		return "⚠️"
	default:
		return "📝"
	}
}

func colorFor(k audit.Kind) int {
	switch k {
	case audit.KindInfo:
		return 0x3498db
	case audit.KindRequest:
		return 0x2ecc71
	case audit.KindTokenCheck:
		return 0x9b59b6
	case audit.KindLogin:
		return 0xf1c40f
	case audit.KindError:
		return 0xe74c3c
	default:
		return 0x95a5a6
	}
}
