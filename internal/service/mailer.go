package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/supercivilization/membership-service/internal/config"
)

// EmailSender delivers transactional email. Implementations receive only
// recipient, subject and body; templating and identity stay with the caller.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// httpEmailSender posts messages to a transactional-email HTTP endpoint.
type httpEmailSender struct {
	cfg    config.NotificationConfig
	client *http.Client
	logger *zap.Logger
}

// NewEmailSender builds the HTTP-backed sender. With no endpoint configured
// it degrades to logging the message instead of failing callers.
func NewEmailSender(cfg config.NotificationConfig, logger *zap.Logger) EmailSender {
	return &httpEmailSender{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
}

type emailPayload struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func (s *httpEmailSender) Send(ctx context.Context, to, subject, body string) error {
	if strings.TrimSpace(s.cfg.EmailAPIURL) == "" {
		s.logger.Info("email delivery skipped; no endpoint configured",
			zap.String("to", to),
			zap.String("subject", subject))
		return nil
	}

	raw, err := json.Marshal(emailPayload{
		From:    s.cfg.EmailFrom,
		To:      to,
		Subject: subject,
		Body:    body,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.EmailAPIURL, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.cfg.EmailAPIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.EmailAPIKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("email endpoint returned status %d", resp.StatusCode)
	}
	return nil
}
