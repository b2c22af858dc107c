package calc

import "errors"

var (
	// ErrInvalidArgument indicates a scale target outside its valid domain.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidScaleOperation indicates an attempt to scale a blend with no weight.
	ErrInvalidScaleOperation = errors.New("no weight to scale from")

	// ErrUnreachableConcentration indicates the target dilution cannot be reached
	// by changing the diluent alone.
	ErrUnreachableConcentration = errors.New("not possible to scale to the desired dilution; adjust ingredient dilutions")
)

// dilutionRangeMessage is shown to users verbatim when a dilution target is rejected.
const dilutionRangeMessage = "enter a valid dilution percentage between 1 and 100"
