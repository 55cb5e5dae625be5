package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/organization-service/internal/config"
	"github.com/spec-kit/organization-service/internal/events"
)

// AuditService consumes audit events and forwards them to the audit log and,
// when configured, the external audit webhook. Everything here is best
// effort: failures are logged and swallowed.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.AuditConfig
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.AuditConfig) *AuditService {
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventDepartmentCreated, a.handleEvent)
	a.dispatcher.Subscribe(events.EventSpecialtyCreated, a.handleEvent)
	a.dispatcher.Subscribe(events.EventSpecialtyUpdated, a.handleEvent)
	a.dispatcher.Subscribe(events.EventAffiliationCreated, a.handleEvent)
}

func (a *AuditService) handleEvent(ctx context.Context, event events.Event) error {
	a.logger.Info("audit",
		zap.String("event_id", event.ID),
		zap.String("type", string(event.Type)),
		zap.String("actor", event.ActorEmail),
		zap.Any("payload", event.Payload))
	a.sendWebhookStub(ctx, event)
	return nil
}

func (a *AuditService) sendWebhookStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(a.cfg.WebhookURL) == "" {
		return
	}
	a.logger.Debug("sendAuditWebhookStub",
		zap.String("url", a.cfg.WebhookURL),
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)))
}
