package graphics

import "errors"

// Usage faults. These indicate a bug in the calling code, not a runtime
// condition to recover from; callers should stop the current execution
// when one is returned.
var (
	// ErrAlreadyCreated is returned when a create call finds the record
	// already holding a physical resource.
	ErrAlreadyCreated = errors.New("graphics: resource already created")

	// ErrNeverCreated is returned when a release call finds no physical
	// resource on the record.
	ErrNeverCreated = errors.New("graphics: resource never created")

	// ErrNotPooled is returned when a pooled operation runs on a record
	// that has no pool bound.
	ErrNotPooled = errors.New("graphics: record not bound to a pool")

	// ErrImportedResource is returned when an operation would destroy or
	// pool a resource owned by external code.
	ErrImportedResource = errors.New("graphics: resource is imported")

	// ErrIndexRange is returned when a handle index would exceed the
	// 16-bit index space.
	ErrIndexRange = errors.New("graphics: handle index out of range")
)

// Execution errors.
var (
	// ErrStaleHandle is returned when resolving a handle whose validity
	// tag does not match the current execution.
	ErrStaleHandle = errors.New("graphics: stale resource handle")

	// ErrKindMismatch is returned when a handle of one kind is resolved
	// as another.
	ErrKindMismatch = errors.New("graphics: handle kind mismatch")

	// ErrNoBackend is returned when a graph is constructed without a
	// usable backend.
	ErrNoBackend = errors.New("graphics: no backend configured")

	// ErrExecutionActive is returned when BeginExecution is called while
	// a previous execution has not finished.
	ErrExecutionActive = errors.New("graphics: execution already in progress")

	// ErrNoExecution is returned when declarations or Execute run outside
	// BeginExecution.
	ErrNoExecution = errors.New("graphics: no execution in progress")
)
