package cache

import "errors"

// ErrDuplicate is returned by Insert when the key is already tracked.
// Callers must Touch first to find out whether a key is present.
var ErrDuplicate = errors.New("cache: key already in ledger")
