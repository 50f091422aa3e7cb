package types

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrPoolExhausted     = errors.New("address pool exhausted")
	ErrAuthFailure       = errors.New("hypervisor authentication failed")
	ErrRemoteUnavailable = errors.New("hypervisor unavailable")
	ErrValidation        = errors.New("invalid request")
)

var kinds = []struct {
	err  error
	kind string
}{
	{ErrValidation, "validation"},
	{ErrNotFound, "not_found"},
	{ErrConflict, "conflict"},
	{ErrPoolExhausted, "pool_exhausted"},
	{ErrAuthFailure, "auth_failure"},
	{ErrRemoteUnavailable, "remote_unavailable"},
}

// Kind returns a stable machine-readable name for err's category.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "internal"
}
