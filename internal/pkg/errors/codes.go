package errors

import "net/http"

// Error kinds per the tile-pipeline error model: invalid input, too-large
// viewport, store outage, per-tile deadline, internal failure.
const (
	CodeInvalidInput     = "INVALID_INPUT"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeTooLarge         = "TOO_LARGE"
	CodeStoreUnavailable = "STORE_UNAVAILABLE"
	CodeDeadline         = "DEADLINE"
	CodeInternal         = "INTERNAL_SERVER_ERROR"
)

var (
	ErrInvalidInput = New(
		CodeInvalidInput,
		"Invalid request parameters",
		http.StatusBadRequest,
	)

	ErrInvalidCoordinates = New(
		CodeInvalidInput,
		"Invalid coordinates provided",
		http.StatusBadRequest,
	)

	ErrInvalidBounds = New(
		CodeInvalidInput,
		"Invalid bounds: south must be below north and west must be left of east",
		http.StatusBadRequest,
	)

	ErrInvalidZoom = New(
		CodeInvalidInput,
		"Invalid zoom level",
		http.StatusBadRequest,
	)

	ErrInvalidTileCoordinates = New(
		CodeInvalidInput,
		"Invalid tile coordinates",
		http.StatusBadRequest,
	)

	ErrInvalidWeight = New(
		CodeInvalidInput,
		"Factor weight must be between -100 and 100",
		http.StatusBadRequest,
	)

	ErrInvalidSensitivity = New(
		CodeInvalidInput,
		"Sensitivity must be between 0.1 and 10",
		http.StatusBadRequest,
	)

	ErrInvalidDistanceCurve = New(
		CodeInvalidInput,
		"Unknown distance curve",
		http.StatusBadRequest,
	)

	ErrUnauthorized = New(
		CodeUnauthorized,
		"Missing or invalid admin credentials",
		http.StatusUnauthorized,
	)

	ErrViewportTooLarge = New(
		CodeTooLarge,
		"Viewport covers too many tiles",
		http.StatusRequestEntityTooLarge,
	)

	ErrStoreUnavailable = New(
		CodeStoreUnavailable,
		"POI store unavailable",
		http.StatusBadGateway,
	)

	ErrTileDeadline = New(
		CodeDeadline,
		"Tile computation exceeded its deadline",
		http.StatusGatewayTimeout,
	)

	ErrInternalServer = New(
		CodeInternal,
		"Internal server error",
		http.StatusInternalServerError,
	)
)
