package plan

import (
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// EventHandler receives events decoded from the events topic
type EventHandler func(Event)

// MQTTClient manages the broker connection and the remote events subscription
type MQTTClient struct {
	client      mqtt.Client
	eventsTopic string
	handler     EventHandler
	isConnected bool
	done        chan struct{}
	closeOnce   sync.Once
	mu          sync.RWMutex
}

// EventsTopic is where remote clients post viewer events
func EventsTopic(prefix, layout string) string {
	return fmt.Sprintf("%s/%s/events", prefix, layout)
}

// StatsTopic is where the viewer publishes its stats snapshot
func StatsTopic(prefix, layout string) string {
	return fmt.Sprintf("%s/%s/stats", prefix, layout)
}

// RoomsTopic is where the viewer publishes its room list
func RoomsTopic(prefix, layout string) string {
	return fmt.Sprintf("%s/%s/rooms", prefix, layout)
}

// envOr returns the environment variable when set, otherwise fallback
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// PublishPrefix resolves the topic prefix: MQTT_PUBLISH_PREFIX, then config, then the default
func PublishPrefix(config *Config) string {
	prefix := ""
	if config != nil {
		prefix = config.MQTT.PublishPrefix
	}
	if prefix == "" {
		prefix = DefaultPublishPrefix
	}
	return envOr("MQTT_PUBLISH_PREFIX", prefix)
}

// InitMQTT connects to the broker named by MQTT_BROKER or the config and
// subscribes to the layout's events topic. When no broker is configured
// MQTT is disabled and it returns nil, nil.
func InitMQTT(config *Config, layoutName string, handler EventHandler) (*MQTTClient, error) {
	broker := ""
	if config != nil {
		broker = config.MQTT.Broker
	}
	broker = envOr("MQTT_BROKER", broker)
	if broker == "" {
		log.Println("[MQTT] Disabled: MQTT_BROKER not set")
		return nil, nil
	}
	if layoutName == "" {
		return nil, fmt.Errorf("MQTT enabled but no layout name provided")
	}

	client := &MQTTClient{
		eventsTopic: EventsTopic(PublishPrefix(config), layoutName),
		handler:     handler,
		done:        make(chan struct{}),
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)

	clientID := DefaultClientID
	if config != nil && config.MQTT.ClientID != "" {
		clientID = config.MQTT.ClientID
	}
	opts.SetClientID(envOr("MQTT_CLIENT_ID", clientID))

	username, password := "", ""
	if config != nil {
		username, password = config.MQTT.Username, config.MQTT.Password
	}
	if username = envOr("MQTT_USERNAME", username); username != "" {
		opts.SetUsername(username)
		opts.SetPassword(envOr("MQTT_PASSWORD", password))
	}

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetCleanSession(true)
	opts.SetOrderMatters(true) // events must reach the loop in arrival order

	opts.SetOnConnectHandler(client.onConnect)
	opts.SetConnectionLostHandler(client.onConnectionLost)
	opts.SetReconnectingHandler(client.onReconnecting)

	client.client = mqtt.NewClient(opts)

	go client.connectWithRetry()

	return client, nil
}

// connectWithRetry connects with exponential backoff until it succeeds or
// the client is disconnected
func (c *MQTTClient) connectWithRetry() {
	retryDelay := 1 * time.Second
	maxRetryDelay := 60 * time.Second

	for {
		log.Println("[MQTT] Connecting to broker...")

		token := c.client.Connect()
		if token.WaitTimeout(10 * time.Second) {
			if token.Error() == nil {
				log.Println("[MQTT] Connected to broker")
				c.setConnected(true)
				return
			}
			log.Printf("[MQTT] Connection failed: %v", token.Error())
		} else {
			log.Println("[MQTT] Connection timeout")
		}

		log.Printf("[MQTT] Retrying connection in %v...", retryDelay)
		select {
		case <-c.done:
			return
		case <-time.After(retryDelay):
		}
		retryDelay = min(retryDelay*2, maxRetryDelay)
	}
}

func (c *MQTTClient) onConnect(client mqtt.Client) {
	c.setConnected(true)

	log.Printf("[MQTT] Subscribing to %s", c.eventsTopic)
	token := client.Subscribe(c.eventsTopic, 0, c.createEventHandler())
	if token.WaitTimeout(5*time.Second) && token.Error() != nil {
		log.Printf("[MQTT] Error subscribing to %s: %v", c.eventsTopic, token.Error())
		return
	}
	log.Printf("[MQTT] Subscribed to %s", c.eventsTopic)
}

func (c *MQTTClient) onConnectionLost(client mqtt.Client, err error) {
	log.Printf("[MQTT] Connection interrupted (%v), auto-reconnect will retry", err)
	c.setConnected(false)
}

func (c *MQTTClient) onReconnecting(client mqtt.Client, opts *mqtt.ClientOptions) {
	log.Println("[MQTT] Reconnecting...")
}

// createEventHandler decodes each payload as a viewer event
func (c *MQTTClient) createEventHandler() mqtt.MessageHandler {
	return func(client mqtt.Client, msg mqtt.Message) {
		ev, err := ParseEvent(msg.Payload())
		if err != nil {
			log.Printf("[MQTT] Dropping message on %s: %v", msg.Topic(), err)
			return
		}
		if c.handler != nil {
			c.handler(ev)
		}
	}
}

// EventsTopic returns the subscribed topic
func (c *MQTTClient) EventsTopic() string {
	return c.eventsTopic
}

// IsConnected returns true if the MQTT client is connected
func (c *MQTTClient) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isConnected
}

func (c *MQTTClient) setConnected(connected bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.isConnected = connected
}

// Disconnect stops reconnect attempts and closes the connection
func (c *MQTTClient) Disconnect() {
	c.closeOnce.Do(func() { close(c.done) })
	if c.client != nil && c.client.IsConnected() {
		log.Println("[MQTT] Disconnecting from broker...")
		c.client.Disconnect(250)
	}
	c.setConnected(false)
}

// GetClient returns the underlying client for publishing
func (c *MQTTClient) GetClient() mqtt.Client {
	return c.client
}

// newMQTTClientWithClient wraps an existing mqtt.Client, used with FakeClient in tests
func newMQTTClientWithClient(client mqtt.Client, eventsTopic string, handler EventHandler) *MQTTClient {
	return &MQTTClient{
		client:      client,
		eventsTopic: eventsTopic,
		handler:     handler,
		done:        make(chan struct{}),
	}
}
