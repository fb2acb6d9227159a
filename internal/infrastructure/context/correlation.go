package context

import (
	"context"
	"sync"
)

type contextKey string

const (
	// CorrelationIDKey is the context key for correlation IDs.
	CorrelationIDKey contextKey = "correlation_id"
	requestInfoKey   contextKey = "request_info"
)

// WithCorrelationID adds a correlation ID to the context. Generation records
// and log lines of one request share it.
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, CorrelationIDKey, correlationID)
}

// GetCorrelationID returns the correlation ID, or "" when none is set.
func GetCorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(CorrelationIDKey).(string); ok {
		return id
	}
	return ""
}

// RequestInfo carries attributes learned by inner handlers back to the
// middleware that created it.
type RequestInfo struct {
	mu      sync.Mutex
	subject string
}

// WithRequestInfo attaches an empty RequestInfo to ctx.
func WithRequestInfo(ctx context.Context) (context.Context, *RequestInfo) {
	info := &RequestInfo{}
	return context.WithValue(ctx, requestInfoKey, info), info
}

// RequestInfoFrom returns the RequestInfo attached to ctx, or nil.
func RequestInfoFrom(ctx context.Context) *RequestInfo {
	info, _ := ctx.Value(requestInfoKey).(*RequestInfo)
	return info
}

// SetSubject records the authenticated caller. It is a no-op on a nil receiver.
func (i *RequestInfo) SetSubject(subject string) {
	if i == nil {
		return
	}
	i.mu.Lock()
	i.subject = subject
	i.mu.Unlock()
}

func (i *RequestInfo) Subject() string {
	if i == nil {
		return ""
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.subject
}
