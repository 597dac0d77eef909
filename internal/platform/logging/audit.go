package logging

import (
	"context"

	"go.uber.org/zap"
)

// Audit results.
const (
	AuditSuccess = "success"
	AuditFailure = "failure"
)

// AuditEvent describes a state change made on behalf of a user.
type AuditEvent struct {
	Action       string // create, update, draw, approve, ...
	ActorID      string
	ResourceType string // item, request, lottery, payment, profile
	ResourceID   string
	Result       string
	Details      map[string]any
}

// Audit logs a structured audit event.
func Audit(ctx context.Context, ev AuditEvent) {
	fields := []zap.Field{
		zap.String("audit.action", ev.Action),
		zap.String("audit.actor_id", ev.ActorID),
		zap.String("audit.resource_type", ev.ResourceType),
		zap.String("audit.resource_id", ev.ResourceID),
		zap.String("audit.result", ev.Result),
	}
	if len(ev.Details) > 0 {
		fields = append(fields, zap.Any("audit.details", ev.Details))
	}
	LoggerFromContext(ctx).Info("audit event", fields...)
}

// AuditResult logs ev with Result derived from err. Failures carry the
// category returned by categorize, never the raw error text.
func AuditResult(ctx context.Context, ev AuditEvent, err error, categorize func(error) string) {
	if err == nil {
		ev.Result = AuditSuccess
		Audit(ctx, ev)
		return
	}
	ev.Result = AuditFailure
	details := make(map[string]any, len(ev.Details)+1)
	for k, v := range ev.Details {
		details[k] = v
	}
	details["error"] = categorize(err)
	ev.Details = details
	Audit(ctx, ev)
}
