package booking

import (
	"fmt"

	"github.com/BruksfildServices01/counsel-console/internal/httperr"
)

const (
	CodeInvalidState           = "invalid_state"
	CodeOutOfWindow            = "out_of_window"
	CodeValidation             = "validation_failed"
	CodeNotFound               = "booking_not_found"
	CodeConcurrentModification = "concurrent_modification"
	CodeForbidden              = "forbidden"
)

var (
	ErrNotFound = httperr.ErrBusinessMsg(CodeNotFound, "booking not found")

	ErrConcurrentModification = httperr.ErrBusinessMsg(
		CodeConcurrentModification,
		"booking was modified concurrently, reload and retry",
	)

	ErrForbidden = httperr.ErrBusinessMsg(CodeForbidden, "actor may not act on this booking")
)

func ErrInvalidState(current Status, ev Event) error {
	return httperr.ErrBusinessMsg(
		CodeInvalidState,
		fmt.Sprintf("%s is not allowed while booking is %s", ev, current),
	)
}

func ErrOutOfWindow(msg string) error {
	return httperr.ErrBusinessMsg(CodeOutOfWindow, msg)
}

// ErrValidation names every missing or malformed field.
func ErrValidation(fields ...string) error {
	return httperr.ErrBusinessMsg(
		CodeValidation,
		fmt.Sprintf("missing or invalid fields: %v", fields),
		fields...,
	)
}
