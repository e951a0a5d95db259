package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Mahbub2001/morgan-backend/pkg/httpclient"
)

// RelaySender posts messages as JSON to an HTTP mail relay.
type RelaySender struct {
	client *httpclient.BreakerClient
	url    string
	token  string
	logger *slog.Logger
}

// NewRelaySender creates a RelaySender. token, when set, is sent as a
// bearer credential.
func NewRelaySender(client *httpclient.BreakerClient, url, token string, logger *slog.Logger) *RelaySender {
	return &RelaySender{client: client, url: url, token: token, logger: logger}
}

func (s *RelaySender) Name() string { return "relay" }

// Send delivers msg. Any non-2xx reply is an error.
func (s *RelaySender) Send(ctx context.Context, msg Message) error {
	req, err := httpclient.NewJSONRequest(ctx, s.url, msg)
	if err != nil {
		return err
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("send email via relay: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return httpclient.ParseResponseError(resp, "mail relay")
	}
	_ = resp.Body.Close()

	s.logger.DebugContext(ctx, "email relayed",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
	)
	return nil
}
