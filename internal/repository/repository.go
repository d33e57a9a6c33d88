// Package repository gives typed access to the store collections and to the
// sign-in credentials table.
package repository

import (
	"errors"

	apperrors "technofest/internal/errors"
	"technofest/internal/store"
)

// storeErr tags remote failures with ErrStoreUnavailable and maps a missing
// record to notFound when one is given.
func storeErr(err, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		if notFound != nil {
			return notFound
		}
		return err
	default:
		return errors.Join(apperrors.ErrStoreUnavailable, err)
	}
}
