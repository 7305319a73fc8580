package utils

import "errors"

var (
	ErrorRecordNotFound = errors.New("record not found")

	// ErrorInvalidAmount is returned when a monetary field arrives non-numeric
	// or non-finite. Amounts are parsed once at the JSON boundary; computation
	// code never coerces.
	ErrorInvalidAmount = errors.New("invalid monetary amount")
)
