package models

import "github.com/pkg/errors"

var (
	// ErrLocationNotFound is returned when the provider does not recognise the location.
	ErrLocationNotFound = errors.New("location not found")
	// ErrUpstreamUnavailable is returned when current conditions could not be fetched.
	ErrUpstreamUnavailable = errors.New("weather provider unavailable")
)

// ErrResourceNotFound is returned by resource providers when a named asset or font does not exist.
var ErrResourceNotFound = errors.New("resource not found")
