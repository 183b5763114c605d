package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/registration-service/internal/config"
	"github.com/spec-kit/registration-service/internal/events"
)

// NotificationService handles emitting notifications for domain events.
// Delivery is best-effort; a failed send never rolls back a consumed
// token or a finalized registration.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
	baseURL    string
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig, baseURL string) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventRegistrationSubmitted, n.handleRegistrationSubmitted)
	n.dispatcher.Subscribe(events.EventApprovalDecided, n.handleApprovalDecided)
	n.dispatcher.Subscribe(events.EventRecoveryRequested, n.handleRecoveryRequested)
	n.dispatcher.Subscribe(events.EventCredentialReset, n.handleCredentialReset)
}

func (n *NotificationService) handleRegistrationSubmitted(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.RegistrationSubmittedPayload)
	if !ok {
		return nil
	}
	// The token travels only as a URL path segment.
	n.sendEmailNotificationStub(ctx, event, n.baseURL+"/approvals/"+payload.TokenValue)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleApprovalDecided(ctx context.Context, event events.Event) error {
	n.logger.Info("ApprovalDecided", zap.String("subject_id", event.SubjectID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleRecoveryRequested(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.RecoveryRequestedPayload)
	if !ok {
		return nil
	}
	n.logger.Info("RecoveryRequested",
		zap.String("subject_id", event.SubjectID),
		zap.String("context", payload.Context))
	n.sendEmailNotificationStub(ctx, event, n.baseURL+"/recovery/reset/"+payload.TokenValue)
	return nil
}

func (n *NotificationService) handleCredentialReset(ctx context.Context, event events.Event) error {
	n.logger.Info("CredentialReset", zap.String("subject_id", event.SubjectID))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(ctx context.Context, event events.Event, link string) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("subject_id", event.SubjectID),
		zap.String("event_type", string(event.Type)),
		zap.String("link", link))
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("subject_id", event.SubjectID),
		zap.String("event_type", string(event.Type)))
}
