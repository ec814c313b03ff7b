package plan

import (
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// fakeToken is an already-completed mqtt.Token
type fakeToken struct {
	err error
}

func (t fakeToken) Wait() bool                     { return true }
func (t fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t fakeToken) Error() error                   { return t.err }
func (t fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

// PublishedMessage is one message recorded by FakeClient
type PublishedMessage struct {
	Topic   string
	Payload []byte
	QoS     byte
	Retain  bool
}

// FakeClient is an in-memory mqtt.Client. It records publishes and routes
// Deliver calls to the subscribed handler, so publisher and subscriber code
// can be exercised without a broker.
type FakeClient struct {
	mu            sync.RWMutex
	connected     bool
	connectErr    error
	publishErr    error
	subscribeErr  error
	onConnect     mqtt.OnConnectHandler
	subscriptions map[string]mqtt.MessageHandler
	published     []PublishedMessage
}

// NewFakeClient returns a disconnected fake client
func NewFakeClient() *FakeClient {
	return &FakeClient{subscriptions: make(map[string]mqtt.MessageHandler)}
}

// SetConnected forces the connection state
func (c *FakeClient) SetConnected(connected bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = connected
}

// FailConnect makes Connect return err
func (c *FakeClient) FailConnect(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connectErr = err
}

// FailPublish makes Publish return err
func (c *FakeClient) FailPublish(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.publishErr = err
}

// FailSubscribe makes Subscribe return err
func (c *FakeClient) FailSubscribe(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribeErr = err
}

// OnConnect sets the handler invoked synchronously after a successful Connect
func (c *FakeClient) OnConnect(h mqtt.OnConnectHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onConnect = h
}

// Published returns a copy of every recorded publish
func (c *FakeClient) Published() []PublishedMessage {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]PublishedMessage(nil), c.published...)
}

// Subscribed reports whether a handler is registered for topic
func (c *FakeClient) Subscribed(topic string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.subscriptions[topic]
	return ok
}

// Deliver hands a payload to the handler subscribed to topic.
// It returns false when nothing is subscribed.
func (c *FakeClient) Deliver(topic string, payload []byte) bool {
	c.mu.RLock()
	h, ok := c.subscriptions[topic]
	c.mu.RUnlock()
	if !ok || h == nil {
		return false
	}
	h(c, &fakeMessage{topic: topic, payload: payload})
	return true
}

func (c *FakeClient) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

func (c *FakeClient) IsConnectionOpen() bool { return c.IsConnected() }

func (c *FakeClient) Connect() mqtt.Token {
	c.mu.Lock()
	if c.connectErr != nil {
		err := c.connectErr
		c.mu.Unlock()
		return fakeToken{err: err}
	}
	c.connected = true
	h := c.onConnect
	c.mu.Unlock()

	if h != nil {
		h(c)
	}
	return fakeToken{}
}

func (c *FakeClient) Disconnect(uint) {
	c.SetConnected(false)
}

func (c *FakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		return fakeToken{err: mqtt.ErrNotConnected}
	}
	if c.publishErr != nil {
		return fakeToken{err: c.publishErr}
	}

	var data []byte
	switch p := payload.(type) {
	case []byte:
		data = p
	case string:
		data = []byte(p)
	}
	c.published = append(c.published, PublishedMessage{Topic: topic, Payload: data, QoS: qos, Retain: retained})
	return fakeToken{}
}

func (c *FakeClient) Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token {
	return c.SubscribeMultiple(map[string]byte{topic: qos}, callback)
}

func (c *FakeClient) SubscribeMultiple(filters map[string]byte, callback mqtt.MessageHandler) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		return fakeToken{err: mqtt.ErrNotConnected}
	}
	if c.subscribeErr != nil {
		return fakeToken{err: c.subscribeErr}
	}
	for topic := range filters {
		c.subscriptions[topic] = callback
	}
	return fakeToken{}
}

func (c *FakeClient) Unsubscribe(topics ...string) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range topics {
		delete(c.subscriptions, t)
	}
	return fakeToken{}
}

func (c *FakeClient) AddRoute(topic string, callback mqtt.MessageHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscriptions[topic] = callback
}

func (c *FakeClient) OptionsReader() mqtt.ClientOptionsReader {
	return mqtt.ClientOptionsReader{}
}

// fakeMessage implements mqtt.Message
type fakeMessage struct {
	topic   string
	payload []byte
}

func (m *fakeMessage) Duplicate() bool   { return false }
func (m *fakeMessage) Qos() byte         { return 0 }
func (m *fakeMessage) Retained() bool    { return false }
func (m *fakeMessage) Topic() string     { return m.topic }
func (m *fakeMessage) MessageID() uint16 { return 0 }
func (m *fakeMessage) Payload() []byte   { return m.payload }
func (m *fakeMessage) Ack()              {}
