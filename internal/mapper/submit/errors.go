package submit

import "errors"

// Failure taxonomy of a submission. Every error returned by a submitter
// wraps exactly one of these.
var (
	// ErrTimeout means the call did not complete within its timeout.
	ErrTimeout = errors.New("submission timed out")

	// ErrConnection means the endpoint could not be reached.
	ErrConnection = errors.New("connection to endpoint failed")

	// ErrHTTPStatus means the endpoint answered with a non-2xx status.
	ErrHTTPStatus = errors.New("unexpected http status")

	// ErrInvalidResponse means the response body is not a JSON-RPC response.
	ErrInvalidResponse = errors.New("invalid response")

	// ErrRemote means the response carried a JSON-RPC error member.
	ErrRemote = errors.New("remote error")

	// ErrRejected means the response carried no result or a falsy one.
	ErrRejected = errors.New("submission rejected")

	// ErrEncode means the payload could not be serialized.
	ErrEncode = errors.New("failed to encode payload")
)
