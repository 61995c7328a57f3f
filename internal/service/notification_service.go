package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/supercivilization/membership-service/internal/config"
	"github.com/supercivilization/membership-service/internal/events"
	"github.com/supercivilization/membership-service/internal/repository"
)

// NotificationService mails members about membership lifecycle events and
// mirrors them to an optional webhook.
type NotificationService struct {
	dispatcher events.Dispatcher
	profiles   repository.ProfileRepository
	mailer     EmailSender
	logger     *zap.Logger
	cfg        config.NotificationConfig
	client     *http.Client
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, profiles repository.ProfileRepository, mailer EmailSender, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		profiles:   profiles,
		mailer:     mailer,
		logger:     logger,
		cfg:        cfg,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventInviteIssued, n.handleInviteIssued)
	n.dispatcher.Subscribe(events.EventMemberActivated, n.handleMemberActivated)
	n.dispatcher.Subscribe(events.EventMemberRejected, n.handleMemberRejected)
	n.dispatcher.Subscribe(events.EventMemberBanned, n.handleMemberBanned)
}

func (n *NotificationService) handleInviteIssued(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.InviteIssuedPayload)
	if !ok {
		return nil
	}
	n.logger.Info("InviteIssued", zap.String("profile_id", event.ProfileID))

	body := fmt.Sprintf("Your invite code is %s. It expires at %s.",
		payload.Code, payload.ExpiresAt.Format(time.RFC3339))
	n.mailProfile(ctx, event.ProfileID, "Your Supercivilization invite", body)
	n.postWebhook(ctx, event)
	return nil
}

func (n *NotificationService) handleMemberActivated(ctx context.Context, event events.Event) error {
	n.logger.Info("MemberActivated", zap.String("profile_id", event.ProfileID))
	n.mailProfile(ctx, event.ProfileID, "Your membership is active",
		"Two members vouched for you. Welcome to Supercivilization.")
	n.postWebhook(ctx, event)
	return nil
}

func (n *NotificationService) handleMemberRejected(ctx context.Context, event events.Event) error {
	n.logger.Info("MemberRejected", zap.String("profile_id", event.ProfileID))
	n.mailProfile(ctx, event.ProfileID, "Your membership application",
		"Your application was not approved.")
	n.postWebhook(ctx, event)
	return nil
}

func (n *NotificationService) handleMemberBanned(ctx context.Context, event events.Event) error {
	n.logger.Info("MemberBanned", zap.String("profile_id", event.ProfileID))
	n.postWebhook(ctx, event)
	return nil
}

func (n *NotificationService) mailProfile(ctx context.Context, profileID, subject, body string) {
	if n.mailer == nil {
		return
	}
	profile, err := n.profiles.GetByID(ctx, profileID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			n.logger.Warn("notification recipient lookup failed", zap.Error(err))
		}
		return
	}
	if err := n.mailer.Send(ctx, profile.Email, subject, body); err != nil {
		n.logger.Warn("notification email failed",
			zap.String("profile_id", profileID),
			zap.Error(err))
	}
}

func (n *NotificationService) postWebhook(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	raw, err := json.Marshal(event)
	if err != nil {
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.WebhookURL, bytes.NewReader(raw))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Warn("webhook delivery failed", zap.Error(err))
		return
	}
	_ = resp.Body.Close()
}
