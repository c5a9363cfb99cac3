package kafka

// NewPublisherWithWriter exposes the writer seam to tests.
func NewPublisherWithWriter(w messageWriter, topic string) *Publisher {
	return newPublisher(w, topic)
}
