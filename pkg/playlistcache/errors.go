package playlistcache

import "errors"

var (
	// caller did not supply fields that identify content, not retried
	ErrInvalidRequest = errors.New("invalid request")
	// lookup could not reach backing store, callers should treat it as cache miss
	ErrStorageUnavailable = errors.New("storage unavailable")
	// store write failed, callers should fall back to inline content
	ErrPersistFailure = errors.New("persist failure")
	// single entry could not be deleted during sweep
	ErrSweepEntryDelete = errors.New("sweep entry delete failure")
	// sweep was requested while another one is running
	ErrSweepInProgress = errors.New("sweep already in progress")
)
