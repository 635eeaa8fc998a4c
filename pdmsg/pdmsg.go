// Package pdmsg defines the collaborator interface the core hands
// validated USB-PD wire bytes to. Full PDO/RDO/VDM field decoding is out
// of scope for the protocol core: the core's job ends at recovering the
// wire bytes of a PD-wrapped event with a valid CRC.
package pdmsg

// Message is an opaque decoded USB-PD message. Its structure is owned by
// the decoder implementation, not by the protocol core.
type Message interface {
	// Raw returns the original wire bytes the message was decoded from.
	Raw() []byte
}

// Decoder decodes the wire bytes of a single USB-PD message, as recovered
// from a WrappedMessage's Wire field (protocol.WrappedMessage).
type Decoder interface {
	DecodePdWire(wire []byte) (Message, error)
}
