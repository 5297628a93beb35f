package models

// InvalidInputError rejects a request before any document or network work
// starts: unsupported content type, missing or empty question list, or no
// usable document reference.
type InvalidInputError struct {
	Detail string
}

func (e *InvalidInputError) Error() string {
	return e.Detail
}

// DocumentError reports a document fetch, read, or extraction failure.
// The run is terminal at this point.
type DocumentError struct {
	Detail string // Full user-facing message including the cause
	Err    error
}

func (e *DocumentError) Error() string {
	return e.Detail
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}

// IndexError reports an index construction failure: empty passage set or
// an embedding call that did not produce a usable vector.
type IndexError struct {
	Detail string
	Err    error
}

func (e *IndexError) Error() string {
	return e.Detail
}

func (e *IndexError) Unwrap() error {
	return e.Err
}
