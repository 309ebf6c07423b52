package bolt

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func chunkFrame(payloads ...[]byte) []byte {
	c := newChunker(func(buf []byte) error { return nil })
	for _, p := range payloads {
		c.message(p)
	}
	if c.out.Len() == 0 {
		return nil
	}
	return append([]byte(nil), c.out.Bytes()...)
}

func TestChunkerSplitsLongPayload(t *testing.T) {
	payload := bytes.Repeat([]byte{0xAB}, maxChunkSize+10)
	framed := chunkFrame(payload)

	got := make([]byte, 0, len(payload))
	got = append(got, framed[2:2+maxChunkSize]...)
	remaining := framed[2+maxChunkSize:]
	got = append(got, remaining[2:2+10]...)
	require.Equal(t, payload, got)

	tail := remaining[2+10:]
	require.Equal(t, []byte{0x00, 0x00}, tail)
}

func TestChunkerTerminatesEachMessage(t *testing.T) {
	framed := chunkFrame([]byte("hi"), []byte("bye"))

	require.Equal(t, []byte{0x00, 0x02}, framed[0:2])
	require.Equal(t, []byte("hi"), framed[2:4])
	require.Equal(t, []byte{0x00, 0x00}, framed[4:6])
	require.Equal(t, []byte{0x00, 0x03}, framed[6:8])
	require.Equal(t, []byte("bye"), framed[8:11])
	require.Equal(t, []byte{0x00, 0x00}, framed[11:13])
}

func TestDechunkerReassemblesWholeMessages(t *testing.T) {
	framed := chunkFrame([]byte("one"), []byte("two"))

	var got [][]byte
	d := newDechunker(func(payload []byte) {
		got = append(got, append([]byte(nil), payload...))
	})
	d.feed(framed)

	require.Len(t, got, 2)
	require.Equal(t, []byte("one"), got[0])
	require.Equal(t, []byte("two"), got[1])
}

func TestDechunkerToleratesArbitraryBufferSplits(t *testing.T) {
	framed := chunkFrame([]byte("hello world"))

	var got [][]byte
	d := newDechunker(func(payload []byte) {
		got = append(got, append([]byte(nil), payload...))
	})

	for i := 0; i < len(framed); i++ {
		d.feed(framed[i : i+1])
	}

	require.Len(t, got, 1)
	require.Equal(t, []byte("hello world"), got[0])
}

func TestDechunkerHandlesTailOfOneAndHeadOfNext(t *testing.T) {
	framed := chunkFrame([]byte("first"), []byte("second"))
	split := 5

	var got [][]byte
	d := newDechunker(func(payload []byte) {
		got = append(got, append([]byte(nil), payload...))
	})
	d.feed(framed[:split])
	d.feed(framed[split:])

	require.Len(t, got, 2)
	require.Equal(t, []byte("first"), got[0])
	require.Equal(t, []byte("second"), got[1])
}
