package gpu

import "github.com/cockroachdb/errors"

// Error taxonomy for the whole substrate. Components outside gpu wrap these
// same sentinels so callers can classify failures with errors.Is regardless
// of which layer produced them.
var (
	// ErrInitialization: no physical device exposes a queue family with
	// graphics+present support plus every required extension and feature.
	// Unrecoverable; callers are expected to terminate.
	ErrInitialization = errors.New("no compatible device")

	// ErrResourceExhausted: the allocator could not satisfy a buffer or
	// image request. Recoverable by retrying with a smaller allocation.
	ErrResourceExhausted = errors.New("device allocator exhausted")

	// ErrInvalidAccess: a host-side read or write was attempted on a
	// resource that is not host-visible.
	ErrInvalidAccess = errors.New("host access to non-host-visible resource")

	// ErrUnsupportedFormat: a vertex or index accessor uses a component
	// type or dimensionality the builder cannot express. Aborts the
	// current scene load only.
	ErrUnsupportedFormat = errors.New("unsupported accessor format")

	// ErrUnsupportedSceneTopology: the scene document holds zero or more
	// than one top-level scene. Rejected before any device allocation.
	ErrUnsupportedSceneTopology = errors.New("document must hold exactly one scene")

	// ErrDeviceLost: the device reported a fatal loss. Unrecoverable.
	ErrDeviceLost = errors.New("device lost")

	// ErrSynchronization: a caller broke the fence-before-reuse contract
	// in a way this layer could observe (e.g. resetting a Pending command
	// buffer, or referencing an unbuilt BLAS from a TLAS build). Most
	// violations of the contract are undefined behavior and are not
	// detected; this sentinel covers the detectable subset.
	ErrSynchronization = errors.New("synchronization contract violated")
)
