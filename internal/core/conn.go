package core

// Frame is an encoded outbound message payload.
type Frame []byte

// ConnID identifies one transport session for its whole lifetime.
type ConnID string

// Sender abstracts the outbound half of a connection.
// Owned by the adapter; the adapter must Close() it.
// TrySend must never block: a slow viewer is dropped from the delivery,
// not allowed to stall the room.
type Sender interface {
	TrySend(Frame) error
	Close()
}

// PublishResult reports fan-out delivery stats back to the gateway.
type PublishResult struct {
	SentTo  int
	Dropped []ConnID
}
