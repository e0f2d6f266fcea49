package phoenixd

import "errors"

var (
	// ErrMissingHomeDir is returned when no config path is given and the
	// user's home directory can't be determined.
	ErrMissingHomeDir = errors.New("home directory not set")

	// ErrConfigFile is returned when the phoenixd config file can't be
	// read.
	ErrConfigFile = errors.New("phoenix config file not found")

	// ErrMissingPassword is returned when the config file has no
	// http-password entry.
	ErrMissingPassword = errors.New("http-password missing from " +
		"phoenix config")

	// ErrBackendUnreachable is returned when the request to phoenixd
	// could not be completed.
	ErrBackendUnreachable = errors.New("phoenixd unreachable")

	// ErrBackendStatus is returned when phoenixd answers with a non-2xx
	// status code.
	ErrBackendStatus = errors.New("unexpected phoenixd status")

	// ErrMalformedResponse is returned when a phoenixd response can't be
	// decoded or lacks a required field.
	ErrMalformedResponse = errors.New("malformed phoenixd response")
)
