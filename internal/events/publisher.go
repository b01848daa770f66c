// Package events announces recorded lunch selections to other systems.
package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
	"github.com/ukydev/lunch-recommender/internal/models"
)

// Publisher announces a recorded selection.
type Publisher interface {
	PublishSelection(ctx context.Context, entry models.HistoryEntry) error
}

// NopPublisher discards every event.
type NopPublisher struct{}

func (NopPublisher) PublishSelection(context.Context, models.HistoryEntry) error { return nil }

type mqttClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTTPublisher publishes selections as JSON to an MQTT topic.
type MQTTPublisher struct {
	client         mqttClient
	topic          string
	publishTimeout time.Duration
	logger         logrus.FieldLogger
}

// DefaultPublishTimeout bounds the wait for a broker acknowledgement.
const DefaultPublishTimeout = 2 * time.Second

// ErrPublishTimeout is returned when the broker does not acknowledge in time.
var ErrPublishTimeout = errors.New("mqtt publish timed out")

// MQTTConfig configures the broker connection.
type MQTTConfig struct {
	Broker         string
	Topic          string
	ClientID       string
	ConnectTimeout time.Duration
	PublishTimeout time.Duration
}

// NewMQTTPublisher connects to the broker and returns a publisher.
func NewMQTTPublisher(cfg MQTTConfig, logger logrus.FieldLogger) (*MQTTPublisher, error) {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	logger = logger.WithField("component", "mqtt")

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			logger.WithError(err).Warn("MQTT connection lost")
		})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(timeout) {
		return nil, fmt.Errorf("mqtt connect to %s: timed out after %s", cfg.Broker, timeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", cfg.Broker, err)
	}
	logger.WithField("broker", cfg.Broker).Info("Connected to MQTT broker")

	return newMQTTPublisher(client, cfg.Topic, cfg.PublishTimeout, logger), nil
}

func newMQTTPublisher(client mqttClient, topic string, publishTimeout time.Duration, logger logrus.FieldLogger) *MQTTPublisher {
	if publishTimeout <= 0 {
		publishTimeout = DefaultPublishTimeout
	}
	return &MQTTPublisher{client: client, topic: topic, publishTimeout: publishTimeout, logger: logger}
}

// PublishSelection sends the entry with QoS 1 and waits up to the publish
// timeout for the broker acknowledgement.
func (p *MQTTPublisher) PublishSelection(ctx context.Context, entry models.HistoryEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal selection: %w", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, p.publishTimeout)
	defer cancel()

	token := p.client.Publish(p.topic, 1, false, payload)
	select {
	case <-waitCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %s after %s", ErrPublishTimeout, p.topic, p.publishTimeout)
	case <-token.Done():
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish to %s: %w", p.topic, err)
	}
	p.logger.WithFields(logrus.Fields{
		"topic":      p.topic,
		"history_id": entry.ID,
	}).Debug("Published selection event")
	return nil
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}
