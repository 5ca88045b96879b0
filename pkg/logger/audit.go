package logger

import (
	"context"
	"log/slog"
	"time"
)

// AuditEvent represents an authentication audit event
type AuditEvent struct {
	EventType     string
	UserID        string
	Email         string
	IPAddress     string
	UserAgent     string
	Success       bool
	FailureReason string
}

// LifecycleEvent records an attempted change to a blocked site's lock.
type LifecycleEvent struct {
	Action      string // request_unlock, cancel_unlock, deactivate, reactivate, delete
	UserID      string
	SiteID      string
	Pattern     string
	FromPhase   string
	ToPhase     string
	Success     bool
	Reason      string
	RemainingMs *int64
}

// AuditLogger writes audit records through the application logger.
type AuditLogger struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{logger: logger, now: time.Now}
}

func (al *AuditLogger) level(success bool) slog.Level {
	if success {
		return slog.LevelInfo
	}
	return slog.LevelWarn
}

// LogAuthAttempt logs registration and login attempts
func (al *AuditLogger) LogAuthAttempt(event AuditEvent) {
	attrs := []slog.Attr{
		slog.String("audit_type", "auth"),
		slog.String("event_type", event.EventType),
		slog.Bool("success", event.Success),
		slog.String("timestamp", al.now().UTC().Format(time.RFC3339)),
	}

	if event.UserID != "" {
		attrs = append(attrs, slog.String("user_id", event.UserID))
	}
	if event.Email != "" {
		attrs = append(attrs, slog.String("email", SanitizedEmail(event.Email)))
	}
	if event.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", event.IPAddress))
	}
	if event.UserAgent != "" {
		attrs = append(attrs, slog.String("user_agent", event.UserAgent))
	}
	if event.FailureReason != "" {
		attrs = append(attrs, slog.String("failure_reason", event.FailureReason))
	}

	al.logger.LogAttrs(context.Background(), al.level(event.Success), "audit", attrs...)
}

// LogLifecycle logs unlock requests and gated changes. Rejected attempts are
// logged at warn so bypass attempts stand out.
func (al *AuditLogger) LogLifecycle(ctx context.Context, event LifecycleEvent) {
	attrs := []slog.Attr{
		slog.String("audit_type", "lifecycle"),
		slog.String("event_type", event.Action),
		slog.Bool("success", event.Success),
		slog.String("user_id", event.UserID),
		slog.String("site_id", event.SiteID),
		slog.String("timestamp", al.now().UTC().Format(time.RFC3339)),
	}

	if event.Pattern != "" {
		attrs = append(attrs, slog.String("pattern", event.Pattern))
	}
	if event.FromPhase != "" {
		attrs = append(attrs, slog.String("from_phase", event.FromPhase))
	}
	if event.ToPhase != "" {
		attrs = append(attrs, slog.String("to_phase", event.ToPhase))
	}
	if event.Reason != "" {
		attrs = append(attrs, slog.String("failure_reason", event.Reason))
	}
	if event.RemainingMs != nil {
		attrs = append(attrs, slog.Int64("remaining_ms", *event.RemainingMs))
	}

	al.logger.LogAttrs(ctx, al.level(event.Success), "audit", attrs...)
}
