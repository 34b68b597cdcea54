package chunky

import "context"

// requestMeta bundles every piece of per-request identity this package
// stamps onto a context. Unlike a set of independently-keyed values,
// all of it lives behind one context.WithValue layer: attaching a
// correlation ID never shadows a request ID set earlier on the same
// context, because WithCorrelationID reads the existing requestMeta
// before writing the new one back.
type requestMeta struct {
	requestID     string
	correlationID string
}

// metaKey is the context key requestMeta is stored under. Its type is
// an empty struct rather than an int, so there is exactly one possible
// key value and no risk of two enum members drifting apart from the
// values actually stored.
type metaKey struct{}

func metaFrom(ctx context.Context) requestMeta {
	m, _ := ctx.Value(metaKey{}).(requestMeta)
	return m
}

// WithRequestID attaches id — the dispatcher-generated Request.ID — to
// ctx, preserving any correlation ID already stamped on it.
// Transaction.ensureHead calls this for every parsed request, so any
// handler that pulls its context via Request.Context() can recover the
// same ID it would otherwise have to thread through manually to
// correlate a log line or a metric with the request that produced it.
func WithRequestID(ctx context.Context, id string) context.Context {
	m := metaFrom(ctx)
	m.requestID = id
	return context.WithValue(ctx, metaKey{}, m)
}

// RequestIDFrom extracts the request ID stamped by WithRequestID, if
// any.
func RequestIDFrom(ctx context.Context) (string, bool) {
	m := metaFrom(ctx)
	return m.requestID, m.requestID != ""
}

// WithCorrelationID attaches a caller-supplied correlation ID to ctx,
// preserving any request ID already stamped on it. Transaction.ensureHead
// calls this when a request arrives carrying an X-Correlation-ID
// header, keeping the caller's own tracing ID distinct from the
// locally-generated Request.ID.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	m := metaFrom(ctx)
	m.correlationID = id
	return context.WithValue(ctx, metaKey{}, m)
}

// CorrelationIDFrom extracts the correlation ID stamped by
// WithCorrelationID, if any.
func CorrelationIDFrom(ctx context.Context) (string, bool) {
	m := metaFrom(ctx)
	return m.correlationID, m.correlationID != ""
}
