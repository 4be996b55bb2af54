// Package broker delivers encoded alerts to the message bus the field devices
// listen on.
package broker

import (
	"context"
	"fmt"

	"github.com/set-night/firelinx/internal/config"
)

// Broker makes a single delivery attempt per Send.
type Broker interface {
	Send(ctx context.Context, key string, payload []byte) error
	Close() error
}

// New returns the broker selected by cfg.Broker.
func New(cfg *config.Config) (Broker, error) {
	switch cfg.Broker {
	case config.BrokerMQTT:
		return NewMQTT(cfg), nil
	case config.BrokerKafka:
		return NewKafka(cfg), nil
	}
	return nil, fmt.Errorf("unknown broker %q", cfg.Broker)
}
