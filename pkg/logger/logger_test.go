package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizedEmail(t *testing.T) {
	assert.Equal(t, "a****@*******.com", SanitizedEmail("alice@example.com"))
	assert.Equal(t, "b@****.io", SanitizedEmail("b@host.io"))
	assert.Equal(t, "[invalid-email]", SanitizedEmail("not-an-email"))
	assert.Equal(t, "[invalid-email]", SanitizedEmail("a@b@c"))
}

func TestSanitizeQueryString(t *testing.T) {
	assert.False(t, SanitizeQueryString(""))
	assert.False(t, SanitizeQueryString("url=https%3A%2F%2Freddit.com"))
	assert.True(t, SanitizeQueryString("access_token=abc"))
	assert.True(t, SanitizeQueryString("Email=a%40b.c"))
	assert.True(t, SanitizeQueryString("%zz"))
}

func TestRedactedAttr(t *testing.T) {
	assert.Equal(t, "[REDACTED]", RedactedAttr("k", "v", "production").Value.String())
	assert.Equal(t, "v", RedactedAttr("k", "v", "development").Value.String())
}

func captureAudit(t *testing.T) (*AuditLogger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	return NewAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil))), &buf
}

func TestLogLifecycle_RejectedIsWarn(t *testing.T) {
	al, buf := captureAudit(t)
	remaining := int64(3600000)

	al.LogLifecycle(context.Background(), LifecycleEvent{
		Action:      "delete",
		UserID:      "u1",
		SiteID:      "s1",
		FromPhase:   "unlock_pending",
		Success:     false,
		Reason:      "unlock_not_ready",
		RemainingMs: &remaining,
	})

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "WARN", rec["level"])
	assert.Equal(t, "lifecycle", rec["audit_type"])
	assert.Equal(t, "delete", rec["event_type"])
	assert.Equal(t, "s1", rec["site_id"])
	assert.Equal(t, float64(3600000), rec["remaining_ms"])
	assert.NotContains(t, rec, "to_phase")
}

func TestLogAuthAttempt_MasksEmail(t *testing.T) {
	al, buf := captureAudit(t)

	al.LogAuthAttempt(AuditEvent{EventType: "login", Email: "alice@example.com", Success: true})

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "INFO", rec["level"])
	assert.Equal(t, "a****@*******.com", rec["email"])
}
