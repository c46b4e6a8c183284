package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/idp-service/internal/config"
	"github.com/spec-kit/idp-service/internal/events"
)

// AuditService writes a structured audit line for every auth event.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.AuditConfig
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.AuditConfig) *AuditService {
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger.Named("audit"),
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil || !a.cfg.Enabled {
		return
	}
	a.dispatcher.Subscribe(events.EventUserRegistered, a.handleUserRegistered)
	a.dispatcher.Subscribe(events.EventTokenIssued, a.handleTokenIssued)
	a.dispatcher.Subscribe(events.EventTokenRejected, a.handleTokenRejected)
	a.dispatcher.Subscribe(events.EventLoginFailed, a.handleLoginFailed)
	a.dispatcher.Subscribe(events.EventPasswordChanged, a.handlePasswordChanged)
}

func (a *AuditService) handleUserRegistered(_ context.Context, event events.Event) error {
	fields := a.baseFields(event)
	if p, ok := event.Payload.(events.UserRegisteredPayload); ok {
		fields = append(fields, zap.String("user_id", p.UserID))
	}
	a.logger.Info("UserRegistered", fields...)
	return nil
}

func (a *AuditService) handleTokenIssued(_ context.Context, event events.Event) error {
	fields := a.baseFields(event)
	if p, ok := event.Payload.(events.TokenIssuedPayload); ok {
		fields = append(fields,
			zap.String("issuer", p.Issuer),
			zap.Time("expires_at", p.ExpiresAt))
	}
	a.logger.Info("TokenIssued", fields...)
	return nil
}

func (a *AuditService) handleTokenRejected(_ context.Context, event events.Event) error {
	fields := a.baseFields(event)
	if p, ok := event.Payload.(events.TokenRejectedPayload); ok {
		fields = append(fields, zap.String("code", p.Code), zap.String("reason", p.Reason))
	}
	a.logger.Warn("TokenRejected", fields...)
	return nil
}

func (a *AuditService) handleLoginFailed(_ context.Context, event events.Event) error {
	fields := a.baseFields(event)
	if p, ok := event.Payload.(events.LoginFailedPayload); ok {
		fields = append(fields, zap.String("reason", p.Reason))
	}
	a.logger.Warn("LoginFailed", fields...)
	return nil
}

func (a *AuditService) handlePasswordChanged(_ context.Context, event events.Event) error {
	a.logger.Info("PasswordChanged", a.baseFields(event)...)
	return nil
}

func (a *AuditService) baseFields(event events.Event) []zap.Field {
	return []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.String("subject", event.Subject),
		zap.Time("at", event.Timestamp),
	}
}
