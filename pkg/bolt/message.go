package bolt

// Message signature bytes, per spec.md §3.
const (
	msgInit       byte = 0x01
	msgAckFailure byte = 0x0E
	msgReset      byte = 0x0F
	msgRun        byte = 0x10
	msgDiscardAll byte = 0x2F
	msgPullAll    byte = 0x3F

	msgSuccess byte = 0x70
	msgRecord  byte = 0x71
	msgIgnored byte = 0x7E
	msgFailure byte = 0x7F
)

// handshakeRequest is the magic preamble followed by the proposed
// versions, per spec.md §6.
var handshakeRequest = []byte{
	0x60, 0x60, 0xB0, 0x17, // magic preamble
	0x00, 0x00, 0x00, 0x01, // propose version 1
	0x00, 0x00, 0x00, 0x00, // placeholder
	0x00, 0x00, 0x00, 0x00, // placeholder
	0x00, 0x00, 0x00, 0x00, // placeholder
}

const (
	agreedVersion1 uint32 = 0x00000001
	httpMisdial    uint32 = 0x48545450 // "HTTP"
)
