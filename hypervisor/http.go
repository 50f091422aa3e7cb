package hypervisor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/BYEONGHWALEE-dev/cloud-service/types"
	"github.com/BYEONGHWALEE-dev/cloud-service/utils"
)

// IsMissing reports whether a REST error means the VM does not exist.
// Proxmox answers 500 with "does not exist" in the reason for unknown VMIDs.
func IsMissing(err error) bool {
	var ae *utils.APIError
	if !errors.As(err, &ae) {
		return false
	}
	if ae.Code == http.StatusNotFound {
		return true
	}
	return ae.Code == http.StatusInternalServerError && strings.Contains(ae.Message, "does not exist")
}

// IsTransient is the retry predicate for hypervisor REST calls.
func IsTransient(err error) bool {
	return utils.IsRetryable(err) && !IsMissing(err)
}

// Classify wraps a transport/REST error with the matching sentinel so callers
// can branch with errors.Is. Context errors pass through unchanged.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, types.ErrAuthFailure), errors.Is(err, types.ErrNotFound),
		errors.Is(err, types.ErrRemoteUnavailable):
		return fmt.Errorf("%s: %w", op, err)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("%s: %w", op, err)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w: %w", op, types.ErrRemoteUnavailable, err)
	case IsMissing(err):
		return fmt.Errorf("%s: %w: %w", op, types.ErrNotFound, err)
	case utils.IsStatus(err, http.StatusUnauthorized), utils.IsStatus(err, http.StatusForbidden):
		return fmt.Errorf("%s: %w: %w", op, types.ErrAuthFailure, err)
	default:
		return fmt.Errorf("%s: %w: %w", op, types.ErrRemoteUnavailable, err)
	}
}
