// Package eventbus publishes domain events to the Web UI boundary over
// NATS, adapted from the teacher's internal/nvr.NATSPublisher: same
// publish-with-retry shape, generalized from one vendor-event wire shape
// to a detection/deterrence event wire shape.
package eventbus

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// DetectionEvent is the wire shape published to the Web UI's subject on
// every Detection the worker persists.
type DetectionEvent struct {
	DetectionID uuid.UUID `json:"detection_id"`
	CameraID    uuid.UUID `json:"camera_id"`
	Status      string    `json:"status"`
	FoeKinds    []string  `json:"foe_kinds"`
	SceneDesc   string    `json:"scene_desc,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// DeterrenceEvent is published when a deterrent action is attempted.
type DeterrenceEvent struct {
	DetectionID uuid.UUID `json:"detection_id"`
	CameraID    uuid.UUID `json:"camera_id"`
	Sound       string    `json:"sound"`
	Method      string    `json:"method"`
	Success     bool      `json:"success"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Publisher publishes JSON-encoded events to a NATS subject, retrying with
// linear backoff up to maxRetries before giving up.
type Publisher struct {
	conn       *nats.Conn
	subject    string
	maxRetries int
}

func NewPublisher(conn *nats.Conn, subject string, maxRetries int) *Publisher {
	return &Publisher{conn: conn, subject: subject, maxRetries: maxRetries}
}

func (p *Publisher) Publish(event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("eventbus: marshal: %w", err)
	}

	var pubErr error
	for i := 0; i <= p.maxRetries; i++ {
		pubErr = p.conn.Publish(p.subject, data)
		if pubErr == nil {
			return nil
		}
		time.Sleep(time.Duration(i*100) * time.Millisecond)
	}

	return fmt.Errorf("eventbus: publish failed after %d retries: %w", p.maxRetries, pubErr)
}
