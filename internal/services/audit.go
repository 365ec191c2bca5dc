package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/pkg/logger"
)

// SecurityEventType names an auditable action
type SecurityEventType string

const (
	EventWalletCreated  SecurityEventType = "wallet_created"
	EventWalletImported SecurityEventType = "wallet_imported"
	EventWalletUpdated  SecurityEventType = "wallet_updated"
	EventWalletDeleted  SecurityEventType = "wallet_deleted"
	EventLoginAttempt   SecurityEventType = "login_attempt"
	EventPasswordCheck  SecurityEventType = "password_check"
)

// SecurityEvent is one audit record
type SecurityEvent struct {
	Type     SecurityEventType
	UserID   string
	WalletID string
	Success  bool
	Metadata map[string]interface{}
}

// AuditLogger writes security events as structured log lines
type AuditLogger struct {
	log *logger.Logger
	now func() time.Time
}

// NewAuditLogger creates an AuditLogger; a nil logger discards events
func NewAuditLogger(log *logger.Logger) *AuditLogger {
	if log == nil {
		log = logger.NewNop()
	}
	return &AuditLogger{log: log.Component("audit"), now: time.Now}
}

// Log records event. The user id falls back to the one carried by ctx.
func (a *AuditLogger) Log(ctx context.Context, event SecurityEvent) {
	if a == nil {
		return
	}

	userID := event.UserID
	if userID == "" {
		userID = logger.GetUserIDFromContext(ctx)
	}

	fields := []zap.Field{
		zap.String("event_type", string(event.Type)),
		zap.Bool("success", event.Success),
		zap.Time("event_time", a.now().UTC()),
	}
	if userID != "" {
		fields = append(fields, zap.String("audit_user_id", userID))
	}
	if event.WalletID != "" {
		fields = append(fields, zap.String("wallet_id", event.WalletID))
	}
	if len(event.Metadata) > 0 {
		fields = append(fields, zap.Any("metadata", event.Metadata))
	}

	log := a.log.WithContext(ctx)
	if event.Success {
		log.Info("Security audit", fields...)
	} else {
		log.Warn("Security audit", fields...)
	}
}
