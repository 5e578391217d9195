package api

import (
	"context"
	"errors"
	"net"

	"github.com/nerrad567/openhab-ghome/internal/device"
	"github.com/nerrad567/openhab-ghome/internal/infrastructure/mqtt"
	"github.com/nerrad567/openhab-ghome/internal/openhab"
)

// Google per-device error codes.
const (
	codeDeviceNotFound       = "deviceNotFound"
	codeFunctionNotSupported = "functionNotSupported"
	codeValueOutOfRange      = "valueOutOfRange"
	codeHardError            = "hardError"
	codeTransientError       = "transientError"
	codeAuthFailure          = "authFailure"
	codeProtocolError        = "protocolError"
)

// errFunctionNotSupported marks executions the translator does not handle.
var errFunctionNotSupported = errors.New("api: function not supported")

// googleErrorCode maps a per-device failure to the assistant error code.
func googleErrorCode(err error) string {
	var netErr net.Error
	switch {
	case errors.Is(err, openhab.ErrItemNotFound):
		return codeDeviceNotFound
	case errors.Is(err, openhab.ErrUnauthorised):
		return codeAuthFailure
	case errors.Is(err, errFunctionNotSupported),
		errors.Is(err, device.ErrModeItemMissing),
		errors.Is(err, device.ErrSetpointItemMissing):
		return codeFunctionNotSupported
	case errors.Is(err, device.ErrInvalidParam):
		return codeValueOutOfRange
	case errors.Is(err, device.ErrMissingParam):
		return codeProtocolError
	case errors.Is(err, mqtt.ErrNotConnected),
		errors.Is(err, mqtt.ErrPublishFailed),
		errors.Is(err, openhab.ErrUnexpectedStatus),
		errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr):
		return codeTransientError
	default:
		return codeHardError
	}
}
