package mqtt

import (
	"context"
	"fmt"
	"strings"
)

// maxPayloadSize caps outgoing payloads at 1MB.
const maxPayloadSize = 1 << 20

// Publish sends a message to topic.
//
// Retained messages are kept by the broker for new subscribers; use them
// for status, never for commands.
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}

	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}

// Publisher is the subset of Client used by CommandPublisher.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// CommandPublisher writes item commands to openHAB over MQTT. It satisfies
// the same command-writer contract as the openHAB REST client.
type CommandPublisher struct {
	pub    Publisher
	topics Topics
	qos    byte
}

// NewCommandPublisher returns a CommandPublisher publishing through pub.
func NewCommandPublisher(pub Publisher, topics Topics, qos byte) *CommandPublisher {
	return &CommandPublisher{pub: pub, topics: topics, qos: qos}
}

// SendCommand publishes value to the item's command topic. The access token
// is unused; broker credentials come from configuration.
func (p *CommandPublisher) SendCommand(ctx context.Context, _ string, itemName, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if itemName == "" || strings.ContainsAny(itemName, "/+#") {
		return fmt.Errorf("%w: item name %q", ErrInvalidTopic, itemName)
	}
	if err := p.pub.Publish(p.topics.ItemCommand(itemName), []byte(value), p.qos, false); err != nil {
		return fmt.Errorf("publishing command for %s: %w", itemName, err)
	}
	return nil
}
