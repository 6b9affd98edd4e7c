package subscription

import "errors"

// Registry errors.
var (
	// ErrTypeConflict indicates a handler was registered on a subject whose
	// existing subscription declares different payload or response types.
	ErrTypeConflict = errors.New("subscription type conflict")

	// ErrCategoryConflict indicates a plain registration on a subject already
	// holding a request/response registration, or vice versa.
	ErrCategoryConflict = errors.New("subscription category conflict")

	// ErrNotRequestSubscription indicates a request message was dispatched to
	// a wire id whose subscription is not a request/response registration.
	ErrNotRequestSubscription = errors.New("not a request/response subscription")

	// ErrRegistryClosed indicates the registry has been disposed.
	ErrRegistryClosed = errors.New("subscription registry closed")

	// ErrNilHandler indicates a nil handler was passed to Subscribe.
	ErrNilHandler = errors.New("handler must not be nil")
)
