package bolt

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/orneryd/nornic-bolt/pkg/bolt/packstream"
	"github.com/orneryd/nornic-bolt/pkg/config"
)

// Connection is the single client-side Bolt v1 wire connection spec.md §2
// describes: handshake negotiation, chunked framing, the PackStream codec,
// and pipelined request/response dispatch, all serialized through one
// internal goroutine so callers never need their own locking.
//
// Session/transaction semantics, connection pooling, retry policy, and
// cluster-aware routing are layers a caller builds on top; none of them
// live here.
type Connection struct {
	id      string
	channel Channel
	logger  *log.Logger

	packer   *packstream.Packer
	unpacker *packstream.Unpacker
	chunker  *chunker

	dechunker    *dechunker
	handshakeBuf *packstream.Buffer
	handshakeOK  bool

	initFuture *initFuture

	// cmdCh serializes every state mutation (outbound requests and
	// inbound dispatch alike) through a single goroutine, the
	// command-queue idiom spec.md §5 calls for in place of per-field
	// locking.
	cmdCh chan func()

	// openState/brokenState mirror isOpen/isBroken for lock-free reads
	// from IsOpen, which callers may poll from any goroutine.
	openState   atomic.Bool
	brokenState atomic.Bool

	// The remaining fields are only ever touched from the cmdCh loop
	// goroutine.
	currentObserver   *Observer
	pendingObservers  []Observer
	isHandlingFailure bool
	currentFailure    *ServerFailure
	version           serverVersion
	lastErr           error
}

// Connect dials address and returns a Connection with the handshake
// already in flight. It does not block for the handshake or INIT to
// complete; call InitializationCompleted to wait for INIT, or inspect
// the Observer passed to Initialize.
func Connect(ctx context.Context, address string, cfg *config.DriverConfig) (*Connection, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	channel, err := NewTCPChannel(ctx, address)
	if err != nil {
		return nil, &TransportError{Cause: err}
	}
	return newConnection(channel, cfg.Logger), nil
}

func newConnection(channel Channel, logger *log.Logger) *Connection {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	c := &Connection{
		id:           uuid.NewString(),
		channel:      channel,
		logger:       logger,
		packer:       packstream.NewPacker(),
		unpacker:     packstream.NewUnpacker(),
		handshakeBuf: packstream.NewBuffer(4),
		initFuture:   newInitFuture(),
		cmdCh:        make(chan func()),
	}
	registerDomainMappers(c.unpacker)
	c.chunker = newChunker(channel.Write)
	c.dechunker = newDechunker(c.handleMessage)
	c.openState.Store(true)

	go c.loop()

	channel.OnReceive(func(buf []byte) {
		cp := append([]byte(nil), buf...)
		c.enqueueCmd(func() { c.handleInbound(cp) })
	})
	channel.OnError(func(err error) {
		c.enqueueCmd(func() { c.handleFatalError(&TransportError{Cause: err}) })
	})
	if err := channel.AlreadyErrored(); err != nil {
		c.enqueueCmd(func() { c.handleFatalError(&TransportError{Cause: err}) })
	}

	// Write the handshake immediately; TCP ordering lets INIT be
	// pipelined right behind it without waiting for the reply.
	c.enqueueCmd(func() {
		if err := channel.Write(handshakeRequest); err != nil {
			c.handleFatalError(&TransportError{Cause: err})
		}
	})

	return c
}

func (c *Connection) loop() {
	for fn := range c.cmdCh {
		fn()
	}
}

func (c *Connection) enqueueCmd(fn func()) {
	c.cmdCh <- fn
}

func (c *Connection) logf(format string, args ...any) {
	c.logger.Printf("[bolt %s] "+format, append([]any{c.id}, args...)...)
}

// ID returns this connection's identifier, used to correlate log lines
// across a pool of connections.
func (c *Connection) ID() string {
	return c.id
}

// IsEncrypted reports whether the underlying channel is wrapped in
// transport security. Safe to call from any goroutine.
func (c *Connection) IsEncrypted() bool {
	return c.channel.IsEncrypted()
}

// IsOpen reports whether the connection has neither broken nor closed.
// Safe to call from any goroutine without going through the command
// queue.
func (c *Connection) IsOpen() bool {
	return c.openState.Load() && !c.brokenState.Load()
}

// InitializationCompleted blocks until INIT settles (or ctx is done) and
// returns the INIT error, if any.
func (c *Connection) InitializationCompleted(ctx context.Context) error {
	return c.initFuture.wait(ctx)
}

// ---- inbound dispatch (runs only inside the cmdCh loop) ----

func (c *Connection) handleInbound(buf []byte) {
	if c.brokenState.Load() {
		return
	}
	if !c.handshakeOK {
		c.handleHandshakeBytes(buf)
		return
	}
	c.dechunker.feed(buf)
}

func (c *Connection) handleHandshakeBytes(buf []byte) {
	c.handshakeBuf.Append(buf)
	if c.handshakeBuf.Remaining() < 4 {
		return
	}
	raw, _ := c.handshakeBuf.ReadSlice(4)
	agreed := binary.BigEndian.Uint32(raw)
	tail := append([]byte(nil), c.handshakeBuf.Tail()...)
	c.handshakeOK = true
	c.handshakeBuf = nil

	switch agreed {
	case agreedVersion1:
		c.logf("handshake agreed on Bolt v1")
		if len(tail) > 0 {
			c.dechunker.feed(tail)
		}
	case httpMisdial:
		c.handleFatalError(&HandshakeError{
			Message: "server responded with HTTP; check that the address points at the Bolt port, not an HTTP port",
		})
	default:
		c.handleFatalError(&HandshakeError{
			Message: fmt.Sprintf("server proposed unsupported version 0x%08X", agreed),
		})
	}
}

func (c *Connection) handleMessage(payload []byte) {
	if c.brokenState.Load() {
		return
	}
	v, err := c.unpacker.Unpack(payload)
	if err != nil {
		c.handleFatalError(&ProtocolError{Message: err.Error()})
		return
	}
	s, ok := v.(*packstream.Structure)
	if !ok {
		c.handleFatalError(&ProtocolError{Message: fmt.Sprintf("message decoded to %T, want a structure", v)})
		return
	}

	switch s.Signature {
	case msgRecord:
		c.dispatchRecord(s.Fields)
	case msgSuccess:
		c.dispatchSuccess(s.Fields)
	case msgFailure:
		c.dispatchFailure(s.Fields)
	case msgIgnored:
		c.dispatchIgnored(s.Fields)
	default:
		c.handleFatalError(&ProtocolError{Message: fmt.Sprintf("unexpected message signature 0x%02X", s.Signature)})
	}
}

func (c *Connection) dispatchRecord(fields []any) {
	if len(fields) != 1 {
		c.handleFatalError(&ProtocolError{Message: fmt.Sprintf("RECORD has %d fields, want 1", len(fields))})
		return
	}
	values, ok := fields[0].([]any)
	if !ok {
		c.handleFatalError(&ProtocolError{Message: fmt.Sprintf("RECORD field is %T, want list", fields[0])})
		return
	}
	if c.currentObserver != nil {
		c.currentObserver.next(values)
	}
}

func (c *Connection) dispatchSuccess(fields []any) {
	meta := firstMetadata(fields)
	obs := c.currentObserver
	c.advanceObserver()
	if obs != nil {
		obs.completed(meta)
	}
}

func (c *Connection) dispatchFailure(fields []any) {
	meta := firstMetadata(fields)
	failure := failureFromMetadata(meta)
	c.currentFailure = failure

	obs := c.currentObserver
	c.advanceObserver()
	if obs != nil {
		obs.errored(failure)
	}

	if !c.isHandlingFailure {
		c.isHandlingFailure = true
		c.logf("failure episode: %v; sending ACK_FAILURE", failure)
		c.sendAckFailure()
	}
}

func (c *Connection) dispatchIgnored(fields []any) {
	obs := c.currentObserver
	c.advanceObserver()
	if obs == nil {
		return
	}
	obs.errored(&IgnoredFailure{Origin: c.currentFailure})
}

func firstMetadata(fields []any) map[string]any {
	if len(fields) == 0 {
		return nil
	}
	m, _ := asMap(fields[0])
	return m
}

func (c *Connection) advanceObserver() {
	if len(c.pendingObservers) == 0 {
		c.currentObserver = nil
		return
	}
	next := c.pendingObservers[0]
	c.pendingObservers = c.pendingObservers[1:]
	c.currentObserver = &next
}

func (c *Connection) enqueueObserver(o Observer) {
	if c.currentObserver == nil {
		c.currentObserver = &o
		return
	}
	c.pendingObservers = append(c.pendingObservers, o)
}

// handleFatalError marks the connection permanently broken and drains
// every queued observer with err, in queue order, per spec.md §7.
func (c *Connection) handleFatalError(err error) {
	if c.brokenState.Load() {
		return
	}
	c.brokenState.Store(true)
	c.lastErr = err
	c.logf("fatal: %v", err)

	obs := c.currentObserver
	pending := c.pendingObservers
	c.currentObserver = nil
	c.pendingObservers = nil

	if obs != nil {
		obs.errored(err)
	}
	for _, p := range pending {
		p.errored(err)
	}
	c.initFuture.reject(err)
}

// ---- outbound requests (public API; each hop through cmdCh) ----

func (c *Connection) doRequest(sig byte, fields []any, observer Observer, flushNow bool) {
	if c.brokenState.Load() {
		observer.errored(c.lastErr)
		return
	}
	c.enqueueObserver(observer)
	payload, err := c.packer.Pack(&packstream.Structure{Signature: sig, Fields: fields})
	if err != nil {
		c.handleFatalError(&SerializationError{Cause: err})
		return
	}
	c.chunker.message(payload)
	if flushNow {
		c.doSync()
	}
}

func (c *Connection) doSync() {
	if c.brokenState.Load() {
		return
	}
	if err := c.chunker.flush(); err != nil {
		c.handleFatalError(&TransportError{Cause: err})
	}
}

func (c *Connection) sendAckFailure() {
	ack := Observer{
		OnCompleted: func(map[string]any) {
			c.isHandlingFailure = false
			c.currentFailure = nil
		},
		OnError: func(error) {
			c.isHandlingFailure = false
		},
	}
	c.doRequest(msgAckFailure, nil, ack, true)
}

// Initialize sends INIT with clientName and an opaque authToken (see
// pkg/auth), wrapping observer so the negotiated server version and the
// byte-array capability gate (spec.md §4.2/§4.3) are recorded before the
// caller's own callbacks run, and InitializationCompleted settles.
func (c *Connection) Initialize(clientName string, authToken map[string]any, observer Observer) {
	c.enqueueCmd(func() {
		wrapped := c.wrapInitObserver(observer)
		c.doRequest(msgInit, []any{clientName, authToken}, wrapped, true)
	})
}

func (c *Connection) wrapInitObserver(o Observer) Observer {
	return Observer{
		OnNext: o.next,
		OnCompleted: func(meta map[string]any) {
			serverName, _ := meta["server"].(string)
			v := parseServerVersion(serverName)
			c.version = v
			if !v.supportsByteArrays() {
				c.packer.DisableByteArrays()
			}
			c.initFuture.resolve(v)
			o.completed(meta)
		},
		OnError: func(err error) {
			c.initFuture.reject(err)
			o.errored(err)
			c.handleFatalError(err)
		},
	}
}

// Run sends RUN with a statement and its parameters.
func (c *Connection) Run(statement string, params map[string]any, observer Observer) {
	c.enqueueCmd(func() {
		c.doRequest(msgRun, []any{statement, params}, observer, false)
	})
}

// PullAll sends PULL_ALL, streaming every remaining record through
// observer.OnNext before observer.OnCompleted.
func (c *Connection) PullAll(observer Observer) {
	c.enqueueCmd(func() {
		c.doRequest(msgPullAll, nil, observer, false)
	})
}

// DiscardAll sends DISCARD_ALL, dropping every remaining record without
// delivering it to observer.
func (c *Connection) DiscardAll(observer Observer) {
	c.enqueueCmd(func() {
		c.doRequest(msgDiscardAll, nil, observer, false)
	})
}

// Reset sends RESET, returning the connection to a clean state once
// observer's terminal callback fires.
func (c *Connection) Reset(observer Observer) {
	c.enqueueCmd(func() {
		c.doRequest(msgReset, nil, observer, false)
	})
}

// ResetAsync sends RESET the way a pool returning a connection from a
// failure episode needs to: it suppresses the normal one-ACK_FAILURE
// discipline for the duration, since RESET itself clears server-side
// failure state.
func (c *Connection) ResetAsync(observer Observer) {
	c.enqueueCmd(func() {
		c.isHandlingFailure = true
		wrapped := Observer{
			OnNext: observer.next,
			OnCompleted: func(meta map[string]any) {
				c.isHandlingFailure = false
				c.currentFailure = nil
				observer.completed(meta)
			},
			OnError: func(err error) {
				c.isHandlingFailure = false
				observer.errored(err)
			},
		}
		c.doRequest(msgReset, nil, wrapped, false)
	})
}

// Sync flushes every message buffered since the last flush to the wire
// in one write.
func (c *Connection) Sync() {
	c.enqueueCmd(func() { c.doSync() })
}

// Close closes the underlying channel. cb, if non-nil, is invoked once
// the close completes.
func (c *Connection) Close(cb func(error)) {
	c.enqueueCmd(func() {
		c.openState.Store(false)
		if err := c.channel.Close(cb); err != nil && cb == nil {
			c.logf("close: %v", err)
		}
	})
}
