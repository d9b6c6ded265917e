package mqtt

import (
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"led-json-bridge/internal/domain/model"
)

const (
	// defaultConnectTimeout is the maximum time to wait for the initial connection.
	defaultConnectTimeout = 10 * time.Second

	// defaultPublishTimeout is the maximum time to wait for a publish or
	// subscribe acknowledgment.
	defaultPublishTimeout = 5 * time.Second

	// defaultDisconnectQuiesce is the time in milliseconds given to pending
	// work on disconnect.
	defaultDisconnectQuiesce = 250

	defaultKeepAlive = 60 * time.Second

	reconnectInitial = 2 * time.Second
	reconnectMax     = 2 * time.Minute

	statusOnline  = "online"
	statusOffline = "offline"
)

// buildClientOptions creates paho options from the mqtt config section.
// The broker is told to publish "offline" on the status topic when the
// connection drops without a clean disconnect.
func buildClientOptions(cfg model.MQTTConfig) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Host, cfg.Port))
	opts.SetClientID(cfg.ClientID)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(reconnectInitial)
	opts.SetMaxReconnectInterval(reconnectMax)
	opts.SetConnectTimeout(defaultConnectTimeout)
	opts.SetKeepAlive(defaultKeepAlive)

	opts.SetWill(statusTopic(cfg.DeviceTopic), statusOffline, qos(cfg), true)
	return opts
}

func statusTopic(device string) string { return device + "/status" }

func qos(cfg model.MQTTConfig) byte {
	return byte(min(max(cfg.QoS, 0), 2))
}
