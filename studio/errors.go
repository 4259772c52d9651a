package studio

import "errors"

// Command failures surfaced to the API layer. Gateway failures (policy block,
// empty result, transport) are defined in the gateway package and pass
// through wrapped.
var (
	// ErrOffline is returned when the connectivity gate is closed. The
	// gateway is never called; nothing is queued or retried.
	ErrOffline = errors.New("cannot connect to the image service, check your connection and try again")

	// ErrBusy is returned when another command for the same session is
	// still in flight.
	ErrBusy = errors.New("another action is already in progress")

	// ErrNoSession is returned for commands that need an active model.
	ErrNoSession = errors.New("no active model, create a model first")

	// ErrNothingToSave rejects saving an outfit with no garments on it.
	ErrNothingToSave = errors.New("add at least one garment before saving an outfit")

	// ErrModelMismatch rejects loading an outfit created from a different
	// base model.
	ErrModelMismatch = errors.New("this outfit was created with a different model photo")

	// ErrOutfitNotFound is returned when loading an unknown outfit id.
	ErrOutfitNotFound = errors.New("outfit not found")

	// ErrUnknownPose rejects a pose index outside the fixed pose list.
	ErrUnknownPose = errors.New("unknown pose")
)
