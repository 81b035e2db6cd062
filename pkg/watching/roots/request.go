package roots

import (
	"github.com/google/uuid"
)

// RequestID uniquely identifies a watch request for the lifetime of a session.
type RequestID string

// NewRequestID generates a new random request identifier.
func NewRequestID() RequestID {
	return RequestID(uuid.NewString())
}

// WatchRequest represents a single caller's request to watch a path. Requests
// are treated as immutable once submitted for normalization, with the
// exception of Dominated, which is owned by the normalization pass.
type WatchRequest struct {
	// ID is the request identifier.
	ID RequestID
	// Path is the normalized absolute path to watch.
	Path string
	// Recursive indicates whether the whole subtree rooted at Path should be
	// watched, rather than just Path and its immediate children.
	Recursive bool
	// Dominated indicates whether another active request already covers this
	// one. It is derived by Normalize and never supplied by callers.
	Dominated bool
}

// Split separates a list of requests into recursive and flat paths, preserving
// order.
func Split(requests []*WatchRequest) (recursive, flat []string) {
	for _, request := range requests {
		if request.Recursive {
			recursive = append(recursive, request.Path)
		} else {
			flat = append(flat, request.Path)
		}
	}
	return
}
