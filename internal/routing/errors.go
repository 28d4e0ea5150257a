package routing

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	ErrNoRoute            = errors.New("no route found")
	ErrRateLimited        = errors.New("too many requests")
	ErrConnectivity       = errors.New("routing service unavailable")
)

const messagePrefix = "Gagal menghitung rute. "

// UserMessage renders err as the message shown to the user. Cancellation
// is not a failure and yields an empty message.
func UserMessage(err error) string {
	if err == nil || errors.Is(err, context.Canceled) {
		return ""
	}
	switch {
	case errors.Is(err, ErrInvalidCoordinates):
		return messagePrefix + "Koordinat tidak valid."
	case errors.Is(err, ErrNoRoute):
		return messagePrefix + "Tidak dapat menemukan rute ke tujuan."
	case errors.Is(err, ErrRateLimited):
		return messagePrefix + "Terlalu banyak permintaan. Tunggu sebentar."
	default:
		return messagePrefix + "Periksa koneksi internet."
	}
}

// Kind labels the error class for logs, metrics and API responses.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled):
		return "cancelled"
	case errors.Is(err, ErrInvalidCoordinates):
		return "validation"
	case errors.Is(err, ErrNoRoute):
		return "no_route"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	default:
		return "connectivity"
	}
}

// classify makes sure every fetch failure carries one of the sentinels.
// Timeouts and unknown transport errors count as connectivity failures.
func classify(err error) error {
	switch {
	case errors.Is(err, ErrInvalidCoordinates),
		errors.Is(err, ErrNoRoute),
		errors.Is(err, ErrRateLimited),
		errors.Is(err, ErrConnectivity):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrConnectivity, err)
	}
}
