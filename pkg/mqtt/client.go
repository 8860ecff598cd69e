// Package mqtt publishes simulation telemetry and handover events to
// an MQTT broker.
package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	MQTT "github.com/eclipse/paho.mqtt.golang"

	"github.com/roamsim/roamsim/pkg"
	"github.com/roamsim/roamsim/pkg/logx"
	"github.com/roamsim/roamsim/pkg/telem"
)

// Client publishes telemetry samples and handover events.
type Client struct {
	client      MQTT.Client
	logger      *logx.Logger
	config      *Config
	connected   bool
	lastPublish time.Time
}

// Config holds MQTT configuration.
type Config struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker"`
	Port        int    `yaml:"port"`
	ClientID    string `yaml:"client_id"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	TopicPrefix string `yaml:"topic_prefix"`
	QoS         int    `yaml:"qos"`
	Retain      bool   `yaml:"retain"`
}

// DefaultConfig returns default MQTT configuration.
func DefaultConfig() *Config {
	return &Config{
		Broker:      "localhost",
		Port:        1883,
		ClientID:    "roamsim",
		TopicPrefix: "roamsim",
		QoS:         1,
		Retain:      false,
		Enabled:     false,
	}
}

// NewClient creates a new MQTT client. Connect must be called before
// publishing.
func NewClient(config *Config, logger *logx.Logger) *Client {
	if config.ClientID == "" {
		config.ClientID = "roamsim"
	}
	if config.TopicPrefix == "" {
		config.TopicPrefix = "roamsim"
	}
	return &Client{
		logger: logger,
		config: config,
	}
}

// Connect establishes the connection to the MQTT broker.
func (c *Client) Connect() error {
	if !c.config.Enabled {
		c.logger.Debug("MQTT client disabled")
		return nil
	}

	opts := MQTT.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", c.config.Broker, c.config.Port))
	opts.SetClientID(c.config.ClientID)

	if c.config.Username != "" {
		opts.SetUsername(c.config.Username)
		opts.SetPassword(c.config.Password)
	}

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(1 * time.Minute)

	opts.SetOnConnectHandler(c.onConnect)
	opts.SetConnectionLostHandler(c.onConnectionLost)

	c.client = MQTT.NewClient(opts)

	if token := c.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	c.logger.Info("MQTT client connected",
		"broker", c.config.Broker,
		"port", c.config.Port)

	return nil
}

// Disconnect disconnects from the MQTT broker.
func (c *Client) Disconnect() error {
	if c.client != nil && c.connected {
		c.client.Disconnect(250)
		c.connected = false
		c.logger.Info("MQTT client disconnected")
	}
	return nil
}

func (c *Client) onConnect(client MQTT.Client) {
	c.connected = true
	c.logger.Info("MQTT connection established")
}

func (c *Client) onConnectionLost(client MQTT.Client, err error) {
	c.connected = false
	c.logger.Error("MQTT connection lost", "error", err.Error())
}

// PublishSample publishes one telemetry sample.
func (c *Client) PublishSample(sample telem.Sample) error {
	if !c.config.Enabled || !c.connected {
		return nil
	}
	topic := fmt.Sprintf("%s/stations/%s/sample", c.config.TopicPrefix, sample.Station)
	return c.publishJSON(topic, sample)
}

// PublishHandover publishes one handover event.
func (c *Client) PublishHandover(event pkg.HandoverEvent) error {
	if !c.config.Enabled || !c.connected {
		return nil
	}
	topic := fmt.Sprintf("%s/stations/%s/handover", c.config.TopicPrefix, event.Station)
	return c.publishJSON(topic, event)
}

// PublishStatus publishes run status.
func (c *Client) PublishStatus(status map[string]interface{}) error {
	if !c.config.Enabled || !c.connected {
		return nil
	}

	topic := fmt.Sprintf("%s/status", c.config.TopicPrefix)
	payload := map[string]interface{}{
		"timestamp": time.Now(),
		"status":    status,
	}
	return c.publishJSON(topic, payload)
}

func (c *Client) publishJSON(topic string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	token := c.client.Publish(topic, byte(c.config.QoS), c.config.Retain, data)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", topic, token.Error())
	}

	c.lastPublish = time.Now()
	c.logger.Debug("MQTT message published",
		"topic", topic,
		"size", len(data))

	return nil
}

// IsConnected reports whether the client has an active broker connection.
func (c *Client) IsConnected() bool {
	return c.connected && c.client != nil && c.client.IsConnected()
}

// LastPublish returns the timestamp of the most recent publish.
func (c *Client) LastPublish() time.Time {
	return c.lastPublish
}
