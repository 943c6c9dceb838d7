package messagebus

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/jordanhubbard/strata/pkg/messages"
	"github.com/jordanhubbard/strata/pkg/models"
)

// Bus is the publish/subscribe surface the daemon needs. Upstream producers
// publish experience batches; the daemon publishes learning results.
type Bus interface {
	PublishResult(ctx context.Context, result *messages.ResultMessage) error
	SubscribeExperiences(mode models.Mode, handler func(*messages.ExperienceBatchMessage)) error
	Close()
}

// NatsBus implements Bus using NATS with JetStream.
type NatsBus struct {
	conn           *nats.Conn
	js             nats.JetStreamContext
	subscriptions  map[string]*nats.Subscription
	streamName     string
	consumerPrefix string
}

// Config holds NATS configuration
type Config struct {
	URL            string        // NATS server URL (e.g., "nats://nats:4222")
	StreamName     string        // JetStream stream name (default: "STRATA")
	Timeout        time.Duration // Connection timeout
	ConsumerPrefix string        // Prefix for durable consumer names (for test isolation)
}

// NewNatsBus connects to NATS and ensures the strata stream exists.
func NewNatsBus(cfg Config) (*NatsBus, error) {
	if cfg.URL == "" {
		cfg.URL = "nats://localhost:4222"
	}
	if cfg.StreamName == "" {
		cfg.StreamName = "STRATA"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	nc, err := nats.Connect(cfg.URL,
		nats.Timeout(cfg.Timeout),
		nats.ReconnectWait(1*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.Printf("NATS disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("NATS reconnected to %s", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	bus := &NatsBus{
		conn:           nc,
		js:             js,
		subscriptions:  make(map[string]*nats.Subscription),
		streamName:     cfg.StreamName,
		consumerPrefix: cfg.ConsumerPrefix,
	}

	if err := bus.ensureStream(); err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to ensure stream: %w", err)
	}

	log.Printf("Connected to NATS at %s with JetStream stream %s", cfg.URL, cfg.StreamName)
	return bus, nil
}

// ensureStream creates or updates the JetStream stream. LimitsPolicy lets
// several result consumers share the subjects.
func (b *NatsBus) ensureStream() error {
	streamConfig := &nats.StreamConfig{
		Name:      b.streamName,
		Subjects:  []string{"strata.>"},
		Retention: nats.LimitsPolicy,
		MaxAge:    24 * time.Hour,
		MaxBytes:  1024 * 1024 * 1024, // 1GB
		Storage:   nats.FileStorage,
		Replicas:  1,
		Discard:   nats.DiscardOld,
	}

	if _, err := b.js.StreamInfo(b.streamName); err != nil {
		if _, err := b.js.AddStream(streamConfig); err != nil {
			return fmt.Errorf("failed to create stream: %w", err)
		}
		log.Printf("Created JetStream stream: %s", b.streamName)
		return nil
	}
	if _, err := b.js.UpdateStream(streamConfig); err != nil {
		return fmt.Errorf("failed to update stream: %w", err)
	}
	return nil
}

// ExperienceSubject is the subject experience batches for mode arrive on.
func ExperienceSubject(mode models.Mode) string {
	return fmt.Sprintf("strata.experiences.%s", mode)
}

// ResultSubject is the subject learning results for mode are published on.
func ResultSubject(mode models.Mode) string {
	return fmt.Sprintf("strata.results.%s", mode)
}

// PublishResult publishes a learning result message.
func (b *NatsBus) PublishResult(ctx context.Context, result *messages.ResultMessage) error {
	return b.publish(ResultSubject(result.Mode), result)
}

// PublishExperiences publishes an experience batch; used by producers and
// the operator CLI.
func (b *NatsBus) PublishExperiences(ctx context.Context, batch *messages.ExperienceBatchMessage) error {
	return b.publish(ExperienceSubject(batch.Mode), batch)
}

func (b *NatsBus) publish(subject string, msg interface{}) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	if _, err := b.js.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish message to %s: %w", subject, err)
	}
	return nil
}

// SubscribeExperiences sets up a durable subscription for mode's batches.
func (b *NatsBus) SubscribeExperiences(mode models.Mode, handler func(*messages.ExperienceBatchMessage)) error {
	subject := ExperienceSubject(mode)
	consumerName := fmt.Sprintf("experiences-%s", mode)

	return b.subscribe(subject, consumerName, func(msg *nats.Msg) {
		var batch messages.ExperienceBatchMessage
		if err := json.Unmarshal(msg.Data, &batch); err != nil {
			log.Printf("Failed to unmarshal experience batch: %v", err)
			msg.Nak()
			return
		}
		handler(&batch)
		msg.Ack()
	})
}

// SubscribeResults sets up a durable subscription for mode's results.
func (b *NatsBus) SubscribeResults(mode models.Mode, handler func(*messages.ResultMessage)) error {
	subject := ResultSubject(mode)
	consumerName := fmt.Sprintf("results-%s", mode)

	return b.subscribe(subject, consumerName, func(msg *nats.Msg) {
		var result messages.ResultMessage
		if err := json.Unmarshal(msg.Data, &result); err != nil {
			log.Printf("Failed to unmarshal result message: %v", err)
			msg.Nak()
			return
		}
		handler(&result)
		msg.Ack()
	})
}

// prefixConsumer adds the optional consumer prefix for namespace isolation
func (b *NatsBus) prefixConsumer(name string) string {
	if b.consumerPrefix != "" {
		return b.consumerPrefix + "-" + name
	}
	return name
}

// subscribe is the internal method to set up durable subscriptions
func (b *NatsBus) subscribe(subject, consumerName string, handler nats.MsgHandler) error {
	prefixed := b.prefixConsumer(consumerName)
	sub, err := b.js.Subscribe(subject, handler,
		nats.Durable(prefixed),
		nats.AckExplicit(),
		nats.MaxDeliver(3),
		nats.AckWait(30*time.Second),
	)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}

	b.subscriptions[subject] = sub
	log.Printf("Subscribed to %s with consumer %s", subject, prefixed)
	return nil
}

// Close drains all subscriptions and closes the connection.
func (b *NatsBus) Close() {
	for subject, sub := range b.subscriptions {
		if err := sub.Drain(); err != nil {
			log.Printf("Failed to drain subscription %s: %v", subject, err)
		}
	}
	b.conn.Close()
}
