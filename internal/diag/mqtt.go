package diag

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"boilerctl/internal/control"
)

// ErrNotConnected is returned while the broker connection is down.
var ErrNotConnected = errors.New("diag: mqtt not connected")

type MQTTOptions struct {
	Broker   string // tcp://host:1883
	ClientID string
	Topic    string
	QoS      byte
	Every    int
	Timeout  time.Duration
}

type publisher interface {
	IsConnectionOpen() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTT publishes records as small JSON documents. Publishing never waits for
// the broker; delivery failures surface on the next record.
type MQTT struct {
	client publisher
	topic  string
	qos    byte
	every  int
	n      int

	pending mqtt.Token
	log     *zap.Logger
}

type mqttRecord struct {
	Temp   float64 `json:"temp"`
	Power  float64 `json:"power"`
	Target float64 `json:"target"`
}

// DialMQTT connects to the broker and waits up to opt.Timeout for the
// initial connection. The client reconnects on its own afterwards.
func DialMQTT(opt MQTTOptions, log *zap.Logger) (*MQTT, error) {
	if opt.Broker == "" {
		return nil, fmt.Errorf("diag: mqtt broker is required")
	}
	if opt.Topic == "" {
		opt.Topic = "boilerctl/diag"
	}
	if opt.ClientID == "" {
		opt.ClientID = "boilerctl"
	}
	if opt.Timeout <= 0 {
		opt.Timeout = 5 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(opt.Broker)
	opts.SetClientID(opt.ClientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(opt.Timeout)
	opts.SetOnConnectHandler(func(mqtt.Client) {
		log.Info("mqtt connected", zap.String("broker", opt.Broker))
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warn("mqtt connection lost", zap.Error(err))
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); !token.WaitTimeout(opt.Timeout) {
		client.Disconnect(0)
		return nil, fmt.Errorf("connect mqtt %s: timeout", opt.Broker)
	} else if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect mqtt %s: %w", opt.Broker, err)
	}
	return newMQTT(client, opt, log), nil
}

func newMQTT(client publisher, opt MQTTOptions, log *zap.Logger) *MQTT {
	if opt.Every < 1 {
		opt.Every = 1
	}
	return &MQTT{client: client, topic: opt.Topic, qos: opt.QoS, every: opt.Every, log: log}
}

func (m *MQTT) Record(r control.Record) error {
	m.n++
	if (m.n-1)%m.every != 0 {
		return nil
	}
	if m.pending != nil {
		select {
		case <-m.pending.Done():
			if err := m.pending.Error(); err != nil {
				m.log.Warn("mqtt publish failed", zap.String("topic", m.topic), zap.Error(err))
			}
			m.pending = nil
		default:
			// Previous publish still in flight; drop this record.
			return nil
		}
	}
	if !m.client.IsConnectionOpen() {
		return ErrNotConnected
	}
	payload, err := json.Marshal(mqttRecord{Temp: r.Temperature, Power: r.Power, Target: r.Setpoint})
	if err != nil {
		return err
	}
	m.pending = m.client.Publish(m.topic, m.qos, false, payload)
	return nil
}

func (m *MQTT) Close() error {
	m.client.Disconnect(250)
	return nil
}
