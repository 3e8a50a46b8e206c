package common

import (
	"errors"

	"identity-service/domain"
)

func IsRecordNotFound(err error) bool {
	return errors.Is(err, domain.ErrRecordNotFound)
}

// NotFoundAsNil turns a record-not-found error into (nil, nil) so callers
// can branch on presence without inspecting the error.
func NotFoundAsNil[T any](v *T, err error) (*T, error) {
	if IsRecordNotFound(err) {
		return nil, nil
	}
	return v, err
}
