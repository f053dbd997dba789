package resample

import "errors"

var (
	// ErrSourceNotFound is returned when the source path does not exist or is a directory.
	ErrSourceNotFound = errors.New("resample: source image not found")

	// ErrDecodeFailed covers every read, format detection and decode failure.
	ErrDecodeFailed = errors.New("resample: failed to decode source image")

	// ErrTooLarge is joined with ErrDecodeFailed when a source exceeds the pixel limit.
	ErrTooLarge = errors.New("resample: source image too large")

	// ErrUnknownKernel is returned by ParseKernel.
	ErrUnknownKernel = errors.New("resample: unknown kernel")

	// ErrCancelled is returned when the context is done before the buffer is produced.
	ErrCancelled = errors.New("resample: cancelled")

	// ErrInvalidBuffer is returned by NewBuffer when the pixel slice does not match the dimensions.
	ErrInvalidBuffer = errors.New("resample: pixel data does not match dimensions")
)
