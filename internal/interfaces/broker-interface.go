package interfaces

// ConsumerHandler processes one message from the org event bus.
type ConsumerHandler interface {
	HandleMessage(message string) error
}

// ProducerHandler publishes one message to the org event bus.
type ProducerHandler interface {
	PublishMessage(key, value []byte) error
}
