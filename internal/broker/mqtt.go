package broker

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/set-night/firelinx/internal/config"
)

const (
	mqttQoS = 1
	// quiesce time in milliseconds
	mqttDisconnectQuiesce = 250
)

// MQTT publishes each alert over a fresh TLS connection and disconnects, so a
// dead broker never leaves a background reconnect loop behind.
type MQTT struct {
	brokerURL string
	host      string
	topic     string
	username  string
	password  string
	clientID  string
}

func NewMQTT(cfg *config.Config) *MQTT {
	return &MQTT{
		brokerURL: cfg.MQTTBrokerURL(),
		host:      cfg.MQTTBroker,
		topic:     cfg.AlertTopic,
		username:  cfg.MQTTUsername,
		password:  cfg.MQTTPassword,
		clientID:  cfg.MQTTClientID,
	}
}

func (b *MQTT) clientOptions(timeout time.Duration) *mqtt.ClientOptions {
	return mqtt.NewClientOptions().
		AddBroker(b.brokerURL).
		SetClientID(b.clientID + "-" + uuid.NewString()[:8]).
		SetUsername(b.username).
		SetPassword(b.password).
		SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12, ServerName: b.host}).
		SetCleanSession(true).
		SetAutoReconnect(false).
		SetConnectRetry(false).
		SetConnectTimeout(timeout)
}

// Send connects, publishes once with QoS 1 and waits for the acknowledgement
// until ctx is done.
func (b *MQTT) Send(ctx context.Context, _ string, payload []byte) error {
	timeout := 10 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	if timeout <= 0 {
		return context.DeadlineExceeded
	}

	client := mqtt.NewClient(b.clientOptions(timeout))
	if err := wait(ctx, client.Connect()); err != nil {
		return fmt.Errorf("mqtt connect %s: %w", b.brokerURL, err)
	}
	defer client.Disconnect(mqttDisconnectQuiesce)

	if err := wait(ctx, client.Publish(b.topic, mqttQoS, false, payload)); err != nil {
		return fmt.Errorf("mqtt publish to %s: %w", b.topic, err)
	}
	return nil
}

func (b *MQTT) Close() error {
	return nil
}

func wait(ctx context.Context, tok mqtt.Token) error {
	select {
	case <-tok.Done():
		return tok.Error()
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return context.DeadlineExceeded
		}
		return ctx.Err()
	}
}
