package bolt

// Channel is the full-duplex ordered byte transport the core consumes,
// per spec.md §2/§6. Transport selection (TCP, WebSocket), URL parsing,
// and TLS configuration are external collaborators: a Channel
// implementation supplies the bytes, nothing more.
type Channel interface {
	// Write sends buf to the peer. It does not need to be safe for
	// concurrent use; the Connection never calls it concurrently with
	// itself.
	Write(buf []byte) error

	// OnReceive installs the callback invoked with each inbound buffer
	// as it arrives. The Channel must deliver buffers in the order
	// received and must not invoke the callback concurrently with
	// itself.
	OnReceive(fn func(buf []byte))

	// OnError installs the callback invoked when the transport fails
	// asynchronously (e.g. the peer resets the connection).
	OnError(fn func(err error))

	// AlreadyErrored reports a transport error that occurred before
	// OnError was installed, so such an error is never silently lost.
	AlreadyErrored() error

	// IsEncrypted reports whether this channel is wrapped in transport
	// security.
	IsEncrypted() bool

	// Close closes the underlying transport. cb, if non-nil, is invoked
	// once the close completes (successfully or not).
	Close(cb func(error)) error
}
