package service

import (
	stderrors "errors"

	"github.com/hackcrew/service_layer/internal/app/storage"
	"github.com/hackcrew/service_layer/internal/errors"
)

// FromStore maps a store error onto the service error surface. resource names
// the entity in NOT_FOUND and CONFLICT messages. Errors that already carry a
// service code pass through unchanged; anything else is an UPSTREAM_ERROR.
func FromStore(resource string, err error) error {
	if err == nil {
		return nil
	}
	if errors.GetServiceError(err) != nil {
		return err
	}
	switch {
	case stderrors.Is(err, storage.ErrNotFound):
		return errors.NotFound(resource)
	case stderrors.Is(err, storage.ErrConflict):
		return errors.Conflict(resource+" already exists", err)
	}
	return errors.Upstream("persistence gateway request failed", err)
}

// Found reports whether err is nil, treats storage.ErrNotFound as a clean
// miss, and returns any other error translated by FromStore.
func Found(resource string, err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case stderrors.Is(err, storage.ErrNotFound):
		return false, nil
	default:
		return false, FromStore(resource, err)
	}
}
