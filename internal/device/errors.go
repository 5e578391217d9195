package device

import (
	"errors"
	"fmt"
)

// Translation errors.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrMalformedState) {
//	    // report the device as failed, continue with the rest
//	}
var (
	// ErrMalformedState is returned when an item state cannot be parsed where
	// a number or HSV tuple is required.
	ErrMalformedState = errors.New("device: malformed state")

	// ErrMissingParam is returned when a command lacks a required parameter.
	ErrMissingParam = errors.New("device: missing command parameter")

	// ErrInvalidParam is returned when a command parameter is out of range.
	ErrInvalidParam = errors.New("device: invalid command parameter")

	// ErrModeItemMissing is returned when a thermostat group has no member
	// tagged homekit:HeatingCoolingMode.
	ErrModeItemMissing = errors.New("device: thermostat mode item not found")

	// ErrSetpointItemMissing is returned when a thermostat group has no member
	// tagged TargetTemperature.
	ErrSetpointItemMissing = errors.New("device: thermostat setpoint item not found")
)

// TranslationError ties a translation failure to the device it happened on.
type TranslationError struct {
	DeviceID string
	Err      error
}

func (e *TranslationError) Error() string {
	return fmt.Sprintf("translating %s: %v", e.DeviceID, e.Err)
}

func (e *TranslationError) Unwrap() error {
	return e.Err
}

func translationError(deviceID string, err error) error {
	return &TranslationError{DeviceID: deviceID, Err: err}
}
