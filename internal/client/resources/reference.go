package resources

import (
	"errors"
	"strings"
)

// Kind is the transport classification of a resource reference.
type Kind int

const (
	// KindStatic marks a path under the uploaded-file storage prefix,
	// fetched directly from the origin rather than through the API base.
	KindStatic Kind = iota + 1
	// KindAPI marks an API-relative path fetched through the gateway.
	KindAPI
)

// Ref is a classified resource reference. Exactly one Kind applies.
type Ref struct {
	Kind Kind
	Path string
}

var ErrEmptyRef = errors.New("empty resource reference")

// Classify derives the transport variant of raw from its prefix. A leading
// apiPrefix is stripped from API references so the gateway does not prefix
// the path twice.
func Classify(raw, staticPrefix, apiPrefix string) (Ref, error) {
	if raw == "" {
		return Ref{}, ErrEmptyRef
	}

	if staticPrefix != "" && strings.HasPrefix(raw, staticPrefix) {
		return Ref{Kind: KindStatic, Path: raw}, nil
	}

	path := raw
	if apiPrefix != "" {
		path = strings.TrimPrefix(path, apiPrefix)
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return Ref{Kind: KindAPI, Path: path}, nil
}
