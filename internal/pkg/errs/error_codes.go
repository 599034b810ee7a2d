/*
Package errs provides custom error types and application-level error code constants.

These error codes identify each failure class of the relay: malformed client lines,
unverified senders, rejected registrations, transport and persistence faults, and
denied platform permissions.
*/
package errs

// 1xxx: Client Protocol and Request Errors
const (
	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1007

	// ErrFieldCount indicates that a client line did not split into exactly three fields.
	ErrFieldCount = 1101

	// ErrBadStatus indicates that the world status field is not an integer in [0,6].
	ErrBadStatus = 1102
)

// 2xxx: Identity and Registration Errors
const (
	// ErrUnknownUser indicates that a client line names a user missing from the registry.
	ErrUnknownUser = 2101

	// ErrBadFormat indicates that a registration used an external ID without the required prefix.
	ErrBadFormat = 2201
)

// 3xxx: Transport Errors
const (
	// ErrTransport indicates a send or connection failure on a client session.
	ErrTransport = 3001

	// ErrSessionClosed indicates an operation on a session that is already closed.
	ErrSessionClosed = 3002
)

// 4xxx: Persistence and Platform Errors
const (
	// ErrPersistence indicates that the registry store could not be read or written.
	ErrPersistence = 4001

	// ErrPermission indicates that the chat platform denied a webhook operation.
	ErrPermission = 4101
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000
)
