package engine

import "errors"

// User-facing messages carried by Error states.
const (
	MessageNoResults       = "no results"
	MessageRetrievalFailed = "retrieval failed"
)

// Submission errors.
var (
	// ErrEmptyQuery rejects a submission whose trimmed text is empty. No state transition happens.
	ErrEmptyQuery = errors.New("query is empty")

	// ErrNoResults marks a valid response that carried no usable answer.
	ErrNoResults = errors.New(MessageNoResults)

	// ErrTransport marks a network, HTTP or decoding failure talking to the service.
	ErrTransport = errors.New(MessageRetrievalFailed)

	// ErrSuperseded is returned when a newer submission started before this one finished.
	// The submission's result was discarded; the newer submission owns the state.
	ErrSuperseded = errors.New("superseded by a newer submission")

	// ErrUnknownCompany is returned when a company filter matches nothing in the vocabulary.
	ErrUnknownCompany = errors.New("unknown company")
)
