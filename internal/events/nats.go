package events

import (
	"encoding/json"
	"log"
)

// Publisher sends raw payloads to a subject.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSPublisher forwards events as JSON to "<prefix>.<type>".
type NATSPublisher struct {
	pub    Publisher
	prefix string
}

// NewNATSPublisher creates a sink publishing under prefix.
func NewNATSPublisher(pub Publisher, prefix string) *NATSPublisher {
	return &NATSPublisher{pub: pub, prefix: prefix}
}

// Subject returns the subject an event of type t is published on.
func (p *NATSPublisher) Subject(t Type) string {
	return p.prefix + "." + string(t)
}

func (p *NATSPublisher) Emit(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("Warning: failed to encode event %s: %v", event.Type, err)
		return
	}
	if err := p.pub.Publish(p.Subject(event.Type), data); err != nil {
		log.Printf("Warning: failed to publish event %s: %v", event.Type, err)
	}
}
