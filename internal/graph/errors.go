package graph

import "errors"

// Error taxonomy shared by the store and session layers.
var (
	// ErrInvalidArgument reports a malformed caller input: a bad predicate
	// parameter, an empty tag or channel name, or a nil backend handle.
	// It fails fast with no state change.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrSchemaNotInitialized reports that the backend was accessed before
	// the registrar has successfully ensured the schema.
	ErrSchemaNotInitialized = errors.New("schema not initialized")

	// ErrStorageUnavailable reports that the backend is unreachable or a
	// transaction failed; no partial mutation survives.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
