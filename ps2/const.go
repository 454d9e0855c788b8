package ps2

// Reserved wire bytes shared by the keyboard and mouse protocols.
const (
	Ack            = 0xfa // acknowledge, sent after most host commands
	Resend         = 0xfe // NAK, request retransmission of the last byte
	SelfTestPassed = 0xaa // power-on / reset self-test result
)

const (
	// MaxPayload is the largest packet the link layer accepts. The longest
	// sequence any protocol emits is the 8-byte Pause make code.
	MaxPayload = 8

	// queueCapacity bounds the per-port outbound packet ring.
	queueCapacity = 32

	// busyWindow is the number of poll cycles reserved for one byte
	// transmission after handing a frame to the transport.
	busyWindow = 100

	// maxTransmitRetries caps consecutive failed transmissions of a single
	// byte before the head packet is dropped to unwedge the port.
	maxTransmitRetries = 1024
)
