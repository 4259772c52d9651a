package gateway

import "errors"

// Failure kinds the studio distinguishes. Anything else coming out of a call
// is a transport error and passes through wrapped.
var (
	// ErrPolicyBlocked means the image service refused the request on
	// content-policy grounds. Never retried automatically.
	ErrPolicyBlocked = errors.New("request was blocked by the image service content policy")

	// ErrEmptyResult means the call succeeded but carried no usable image.
	ErrEmptyResult = errors.New("image service returned no image")
)
