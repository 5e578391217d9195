package openhab

import "errors"

var (
	// ErrItemNotFound is returned when openHAB answers 404 for an item.
	ErrItemNotFound = errors.New("openhab: item not found")

	// ErrUnauthorised is returned for 401 and 403 responses.
	ErrUnauthorised = errors.New("openhab: unauthorised")

	// ErrUnexpectedStatus is returned for any other non-2xx response.
	ErrUnexpectedStatus = errors.New("openhab: unexpected status")

	// ErrInvalidItemName is returned for names that cannot form a request path.
	ErrInvalidItemName = errors.New("openhab: invalid item name")
)
