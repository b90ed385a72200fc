package service

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidInput     = errors.New("invalid input")

	// Both wrap ErrInvalidInput so handlers answer 400.
	ErrUnknownCity = fmt.Errorf("%w: unknown origin or destination city", ErrInvalidInput)
	ErrCityInUse   = fmt.Errorf("%w: city is referenced by trips", ErrInvalidInput)
)
