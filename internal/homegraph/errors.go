package homegraph

import "errors"

var (
	// ErrDisabled is returned when report state is not configured.
	ErrDisabled = errors.New("homegraph: disabled")

	// ErrInvalidServiceAccount is returned for unusable service account keys.
	ErrInvalidServiceAccount = errors.New("homegraph: invalid service account")

	// ErrTokenExchange is returned when the OAuth token endpoint rejects the assertion.
	ErrTokenExchange = errors.New("homegraph: token exchange failed")

	// ErrReportFailed is returned when HomeGraph rejects a report.
	ErrReportFailed = errors.New("homegraph: report state failed")
)
