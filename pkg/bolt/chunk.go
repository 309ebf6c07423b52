package bolt

import (
	"github.com/orneryd/nornic-bolt/pkg/bolt/packstream"
)

// maxChunkSize is the largest payload a single chunk may carry; longer
// messages span multiple chunks, per spec.md §4.1/§6.
const maxChunkSize = 65535

// chunker splits outbound message payloads into length-prefixed chunks no
// larger than maxChunkSize bytes, terminating each logical message with a
// zero-length chunk. It buffers everything until flush hands the
// accumulated bytes to the channel, so a burst of pipelined requests can
// be written to the wire in one syscall.
type chunker struct {
	out   *packstream.Buffer
	write func([]byte) error
}

func newChunker(write func([]byte) error) *chunker {
	return &chunker{out: packstream.NewBuffer(256), write: write}
}

// message buffers one complete logical message: payload split into
// maxChunkSize chunks, each length-prefixed, followed by the zero-length
// end marker. It never coalesces with an adjacent message.
func (c *chunker) message(payload []byte) {
	for len(payload) > 0 {
		n := len(payload)
		if n > maxChunkSize {
			n = maxChunkSize
		}
		c.out.WriteUint16(uint16(n))
		c.out.WriteBytes(payload[:n])
		payload = payload[n:]
	}
	c.out.WriteUint16(0)
}

// flush hands all buffered chunks to the channel and resets the buffer.
func (c *chunker) flush() error {
	if c.out.Len() == 0 {
		return nil
	}
	buf := c.out.Bytes()
	c.out = packstream.NewBuffer(256)
	return c.write(buf)
}

// dechunker reassembles chunked inbound bytes into complete message
// payloads, tolerating a single inbound buffer that spans the tail of one
// message, any number of whole messages, and the head of the next, and a
// single message split across arbitrarily many inbound buffers.
type dechunker struct {
	raw       *packstream.Buffer
	current   []byte
	onMessage func(payload []byte)
}

func newDechunker(onMessage func([]byte)) *dechunker {
	return &dechunker{
		raw:       packstream.NewBuffer(512),
		onMessage: onMessage,
	}
}

// feed appends newly arrived bytes and emits every complete message that
// can now be assembled.
func (d *dechunker) feed(buf []byte) {
	d.raw.Append(buf)

	for {
		mark := d.raw.Pos()

		size, err := d.raw.ReadUint16()
		if err != nil {
			// Not enough bytes yet for a chunk header; wait for more.
			d.raw.Seek(mark)
			d.raw.Compact()
			return
		}

		if size == 0 {
			msg := d.current
			d.current = nil
			d.raw.Compact()
			d.onMessage(msg)
			continue
		}

		chunk, err := d.raw.ReadSlice(int(size))
		if err != nil {
			// Header parsed but payload hasn't fully arrived yet; back
			// off to before the header and wait for more bytes.
			d.raw.Seek(mark)
			d.raw.Compact()
			return
		}
		d.current = append(d.current, chunk...)
	}
}
