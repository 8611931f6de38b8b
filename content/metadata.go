package content

import (
	"context"
	"maps"
	"strconv"

	"github.com/google/uuid"
)

// Metadata is the request-scoped key/value bag carried on a context.
type Metadata map[string]string

// Recognized metadata keys.
const (
	// MetaRequestID identifies a request in logs and events. One is
	// assigned when absent.
	MetaRequestID = "request-id"

	// MetaBypassReadonly allows administrative writes and deletes against
	// readonly hosted stores.
	MetaBypassReadonly = "bypass-readonly"

	// MetaForceChecksum makes Digest hash the content even when checksum
	// files exist.
	MetaForceChecksum = "force-checksum"
)

type metadataKey struct{}

// WithMetadata returns a context carrying md merged over any metadata
// already on ctx.
func WithMetadata(ctx context.Context, md Metadata) context.Context {
	merged := MetadataFrom(ctx)
	maps.Copy(merged, md)
	return context.WithValue(ctx, metadataKey{}, merged)
}

// MetadataFrom returns a copy of the metadata on ctx. It is never nil.
func MetadataFrom(ctx context.Context) Metadata {
	md, _ := ctx.Value(metadataKey{}).(Metadata)
	if md == nil {
		return Metadata{}
	}
	return maps.Clone(md)
}

// Bool reports whether key holds a true value.
func (md Metadata) Bool(key string) bool {
	v, err := strconv.ParseBool(md[key])
	return err == nil && v
}

// RequestID returns the request id on ctx, if any.
func RequestID(ctx context.Context) string {
	md, _ := ctx.Value(metadataKey{}).(Metadata)
	return md[MetaRequestID]
}

// withRequestID assigns a request id unless ctx already carries one.
func withRequestID(ctx context.Context) context.Context {
	if RequestID(ctx) != "" {
		return ctx
	}
	return WithMetadata(ctx, Metadata{MetaRequestID: uuid.NewString()})
}
