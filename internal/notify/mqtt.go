package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/muezzin/muezzin/pkg/logger"
)

const (
	mqttQoS            = 1
	mqttPublishTimeout = 5 * time.Second
	mqttDisconnectWait = 250
)

var errPublishTimeout = errors.New("publish timed out")

// Publisher is the subset of mqtt.Client used for delivery.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTMessage is the JSON document published for every notification.
type MQTTMessage struct {
	Title string    `json:"title"`
	Body  string    `json:"body"`
	Time  time.Time `json:"time"`
}

// MQTTNotifier publishes notifications to <prefix>/notification.
type MQTTNotifier struct {
	client Publisher
	topic  string
	now    func() time.Time
}

// NewMQTTNotifier wraps an existing publisher.
func NewMQTTNotifier(client Publisher, prefix string) *MQTTNotifier {
	return &MQTTNotifier{client: client, topic: prefix + "/notification", now: time.Now}
}

// DialMQTT connects to broker and returns a connected client.
func DialMQTT(broker, clientID string, l logger.Logger) (mqtt.Client, error) {
	if l == nil {
		l = logger.NewNopLogger()
	}
	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.OnConnect = func(mqtt.Client) {
		l.Info("Connected to MQTT broker %s", broker)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		l.Warning("MQTT connection lost: %v", err)
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	return client, nil
}

// DisconnectMQTT closes a client returned by DialMQTT.
func DisconnectMQTT(c mqtt.Client) {
	if c != nil {
		c.Disconnect(mqttDisconnectWait)
	}
}

// Topic returns the publish topic.
func (n *MQTTNotifier) Topic() string { return n.topic }

func (n *MQTTNotifier) Show(ctx context.Context, title, body string) error {
	payload, err := json.Marshal(MQTTMessage{Title: title, Body: body, Time: n.now().UTC()})
	if err != nil {
		return &Error{Sink: "mqtt", Err: err}
	}
	token := n.client.Publish(n.topic, mqttQoS, false, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return &Error{Sink: "mqtt", Err: ctx.Err()}
	case <-time.After(mqttPublishTimeout):
		return &Error{Sink: "mqtt", Err: errPublishTimeout}
	}
	if err := token.Error(); err != nil {
		return &Error{Sink: "mqtt", Err: err}
	}
	return nil
}
