package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/tkeffer/weewx-xaggs/internal/config"
	"github.com/tkeffer/weewx-xaggs/internal/modules/archive/types"
	"github.com/tkeffer/weewx-xaggs/internal/units"
)

// Subscriber receives archive record messages from the broker and hands the
// valid ones to the registered handler.
type Subscriber struct {
	client    mqtt.Client
	cfg       config.Config
	logger    *slog.Logger
	mu        sync.RWMutex
	connected bool

	stopCh   chan struct{}
	stopOnce sync.Once

	// MessageHandler is called for each valid record message.
	MessageHandler func(msg types.RecordMessage) error
}

// RecordSubscriber is the handler-attachment surface modules depend on.
type RecordSubscriber interface {
	SetMessageHandler(handler func(msg types.RecordMessage) error)
}

// SetMessageHandler sets the handler for incoming record messages.
func (s *Subscriber) SetMessageHandler(handler func(msg types.RecordMessage) error) {
	s.MessageHandler = handler
}

func NewSubscriber(cfg config.Config, logger *slog.Logger) (*Subscriber, error) {
	s := &Subscriber{
		cfg:    cfg,
		logger: logger,
		stopCh: make(chan struct{}),
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.MQTTBroker, cfg.MQTTPort))
	opts.SetClientID(cfg.MQTTClientID)

	opts.SetCleanSession(true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)

	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	// Callbacks keep internal state accurate
	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		s.setConnected(true)
		logger.Info("mqtt connected", "broker", cfg.MQTTBroker, "port", cfg.MQTTPort)
	})

	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		s.setConnected(false)
		logger.Warn("mqtt connection lost", "error", err)
	})

	s.client = mqtt.NewClient(opts)
	return s, nil
}

// Connect establishes the broker connection and subscribes to the configured
// topic. The handler must be set before Connect: the broker may deliver
// queued messages right after CONNACK.
func (s *Subscriber) Connect(ctx context.Context) error {
	select {
	case <-s.stopCh:
		return fmt.Errorf("subscriber stopped")
	default:
	}

	if s.IsConnected() {
		return nil
	}

	token := s.client.Connect()

	// Wait in a ctx/stop-aware loop.
	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect: %w", err)
			}
			// OnConnectHandler sets connected=true.
			break
		}

		select {
		case <-ctx.Done():
			s.client.Disconnect(0)
			return ctx.Err()
		case <-s.stopCh:
			s.client.Disconnect(0)
			return fmt.Errorf("subscriber stopped")
		default:
		}
	}

	if err := s.subscribe(); err != nil {
		s.client.Disconnect(0)
		return fmt.Errorf("subscribe: %w", err)
	}

	return nil
}

func (s *Subscriber) subscribe() error {
	if !s.IsConnected() {
		return fmt.Errorf("mqtt client not connected")
	}

	topic := s.cfg.MQTTTopic
	qos := byte(1) // At least once delivery

	messageHandler := func(client mqtt.Client, msg mqtt.Message) {
		s.handleMessage(msg.Topic(), msg.Payload())
	}

	token := s.client.Subscribe(topic, qos, messageHandler)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("subscribe timeout for topic %s", topic)
	}
	if token.Error() != nil {
		return fmt.Errorf("subscribe to %s: %w", topic, token.Error())
	}

	s.logger.Info("subscribed to mqtt topic", "topic", topic, "qos", qos)
	return nil
}

func (s *Subscriber) handleMessage(topic string, payload []byte) {
	s.logger.Debug("received mqtt message", "topic", topic, "size", len(payload))

	var msg types.RecordMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		s.logger.Warn("failed to parse record message",
			"topic", topic,
			"error", err,
			"payload", string(payload),
		)
		return
	}

	if err := validateRecord(msg); err != nil {
		s.logger.Warn("invalid record message",
			"topic", topic,
			"dateTime", msg.DateTime,
			"error", err,
		)
		return
	}

	if s.MessageHandler != nil {
		if err := s.MessageHandler(msg); err != nil {
			s.logger.Error("message handler failed",
				"topic", topic,
				"dateTime", msg.DateTime,
				"error", err,
			)
		}
	}
}

func validateRecord(msg types.RecordMessage) error {
	if msg.DateTime <= 0 {
		return fmt.Errorf("dateTime must be positive, got %d", msg.DateTime)
	}
	if !units.System(msg.UnitSystem).Valid() {
		return fmt.Errorf("unknown unit system %d", msg.UnitSystem)
	}
	if msg.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %d", msg.Interval)
	}
	if len(msg.Observations) == 0 {
		return fmt.Errorf("record carries no observations")
	}
	for obs := range msg.Observations {
		if !types.KnownObservation(obs) {
			return fmt.Errorf("unknown observation type %q", obs)
		}
	}
	return nil
}

func (s *Subscriber) setConnected(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = v
}

// IsConnected reports the current broker connection state.
func (s *Subscriber) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// Disconnect stops the subscriber and closes the broker connection. A
// stopped subscriber cannot be reconnected.
func (s *Subscriber) Disconnect() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	s.client.Disconnect(250)
	s.setConnected(false)
}
