// Package audit writes structured audit records for mutating and analytic
// API calls.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"intelhub.dev/internal/auth"
	"intelhub.dev/internal/obs"
)

type ctxKey struct{}

// WithRequestID attaches the request identifier to ctx.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, requestID)
}

func requestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(ctxKey{}).(string)
	return v
}

// Entry is one audited action. SubjectID and RecordID are optional.
type Entry struct {
	Action    string
	SubjectID string
	RecordID  string
	Details   map[string]any
}

// redacted detail keys never reach the log.
var redacted = []string{"token", "secret", "password"}

// Record writes e as a single JSON line tagged type=audit, enriched with the
// request id and the authenticated principal found in ctx.
func Record(ctx context.Context, e Entry) error {
	action := strings.TrimSpace(e.Action)
	if action == "" {
		return errors.New("audit: action is required")
	}
	line := map[string]any{
		"ts":     time.Now().UTC().Format(time.RFC3339Nano),
		"type":   "audit",
		"action": action,
	}
	if e.SubjectID != "" {
		line["subject_id"] = e.SubjectID
	}
	if e.RecordID != "" {
		line["record_id"] = e.RecordID
	}
	if rid := requestID(ctx); rid != "" {
		line["request_id"] = rid
	}
	if p, ok := auth.PrincipalFromContext(ctx); ok {
		line["user_id"] = p.UserID
		line["roles"] = p.Roles
	}
	details := make(map[string]any, len(e.Details))
	for k, v := range e.Details {
		if isRedacted(k) {
			v = "[redacted]"
		}
		details[k] = v
	}
	line["details"] = details

	data, err := json.Marshal(line)
	if err != nil {
		return err
	}
	obs.Logger().Println(string(data))
	return nil
}

func isRedacted(key string) bool {
	key = strings.ToLower(key)
	for _, r := range redacted {
		if strings.Contains(key, r) {
			return true
		}
	}
	return false
}
