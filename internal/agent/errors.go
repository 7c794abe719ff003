// Package agent implements the intent resolution and action execution
// pipeline: validating model output into action descriptors, routing a
// descriptor to its handler, and driving the per-turn conversation state
// machine.
package agent

import "errors"

// Error taxonomy for the pipeline. Callers classify failures with
// errors.Is; wrapped messages carry the diagnostic detail.
var (
	// ErrTransport covers network/model-unreachable failures of the
	// language-model call.
	ErrTransport = errors.New("model transport failed")

	// ErrMalformedResponse means the model output was not JSON-parseable
	// after cleanup.
	ErrMalformedResponse = errors.New("malformed model response")

	// ErrIncompleteResponse means the output parsed but is missing a
	// required field.
	ErrIncompleteResponse = errors.New("incomplete model response")

	// ErrMissingIdentifier means no supplied parameter resolves to an
	// existing item for update/delete/complete.
	ErrMissingIdentifier = errors.New("no identifier resolves to an existing item")

	// ErrEmptyUpdate means an update was requested with no effective fields.
	ErrEmptyUpdate = errors.New("update contains no fields")

	// ErrUpstream means an external service returned a non-success status.
	ErrUpstream = errors.New("upstream service error")

	// ErrUpstreamParse means an external service returned a success status
	// with an unparsable body.
	ErrUpstreamParse = errors.New("upstream response not parseable")

	// ErrConfiguration means a credential required by the target service is
	// absent. Checked before any network call is attempted.
	ErrConfiguration = errors.New("required credential not configured")

	// ErrUnauthorized means the caller failed the auth check.
	ErrUnauthorized = errors.New("unauthorized")
)
