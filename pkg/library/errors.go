package library

import "errors"

var (
	ErrManifestNotFound = errors.New("library: manifest not found")
	ErrInvalidManifest  = errors.New("library: invalid manifest")
	ErrLoadCancelled    = errors.New("library: load cancelled")
)
