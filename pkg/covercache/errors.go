package covercache

import "errors"

var (
	// ErrClosed is the failure recorded for loads that finish after Close.
	ErrClosed = errors.New("covercache: coordinator closed")

	// ErrInconsistent reports that the entry map and the ledger disagree.
	// It is a programming error and is raised with panic.
	ErrInconsistent = errors.New("covercache: entry map and ledger out of sync")
)
