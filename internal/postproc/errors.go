package postproc

import "errors"

var (
	// ErrUnknownPostProcessor is returned when no creator is registered under
	// the requested name.
	ErrUnknownPostProcessor = errors.New("unknown post processor")

	// ErrDuplicateName is returned when a creator name is registered twice.
	ErrDuplicateName = errors.New("post processor already registered")

	// ErrMissingInput marks a required band or variable that is absent from
	// the inputs handed to a processor. It is a configuration error.
	ErrMissingInput = errors.New("missing required input")

	// ErrInputShape marks inputs a processor cannot use, such as the wrong
	// number of observation dates. The run continues without output for that
	// processor.
	ErrInputShape = errors.New("unusable input shape")
)
