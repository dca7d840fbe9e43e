package ctxutil

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// private keys to avoid collisions
type key int

const (
	keyStudentID key = iota
	keyOpName
)

// WithStudentID / StudentID carry the student a request is about.
func WithStudentID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, keyStudentID, id)
}

func StudentID(ctx context.Context) (int64, bool) {
	v := ctx.Value(keyStudentID)
	if v == nil {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

// WithOp / Op: operation name for logs and error reports.
func WithOp(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, keyOpName, name)
}

func Op(ctx context.Context) (string, bool) {
	v := ctx.Value(keyOpName)
	if v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Fields returns the context values as log fields.
func Fields(ctx context.Context) []zap.Field {
	var out []zap.Field
	if op, ok := Op(ctx); ok {
		out = append(out, zap.String("op", op))
	}
	if id, ok := StudentID(ctx); ok {
		out = append(out, zap.Int64("student_id", id))
	}
	return out
}

// DefaultDBTimeout bounds a single storage call. Overridden from config at startup.
var DefaultDBTimeout = 5 * time.Second

func WithTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, d)
}

// WithDBTimeout bounds a storage call without extending the parent deadline.
func WithDBTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if dl, ok := parent.Deadline(); ok {
		remain := time.Until(dl)
		if remain < DefaultDBTimeout {
			return context.WithTimeout(parent, remain)
		}
	}
	return WithTimeout(parent, DefaultDBTimeout)
}
