package bolt

// Observer is the triad of callbacks bound to an in-flight request,
// per spec.md §3. Missing callbacks default to no-ops.
type Observer struct {
	// OnNext is called once per RECORD response, with the record's
	// single field (a list of values).
	OnNext func(fields []any)

	// OnCompleted is called once, with the terminal SUCCESS metadata,
	// if the request succeeds.
	OnCompleted func(metadata map[string]any)

	// OnError is called once, in place of OnCompleted, if the request
	// fails (ServerFailure, IgnoredFailure) or the connection breaks
	// (TransportError, HandshakeError, ProtocolError,
	// SerializationError).
	OnError func(err error)
}

func (o Observer) next(fields []any) {
	if o.OnNext != nil {
		o.OnNext(fields)
	}
}

func (o Observer) completed(metadata map[string]any) {
	if o.OnCompleted != nil {
		o.OnCompleted(metadata)
	}
}

func (o Observer) errored(err error) {
	if o.OnError != nil {
		o.OnError(err)
	}
}
