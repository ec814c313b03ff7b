package plan

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Publisher publishes viewer stats and the room list to MQTT
type Publisher struct {
	client        mqtt.Client
	publishPrefix string
	layout        string
	qos           byte
	retain        bool
	last          *Stats
	mu            sync.RWMutex
}

// NewPublisher creates a publisher for one layout. A nil client disables publishing.
func NewPublisher(client mqtt.Client, prefix, layout string) *Publisher {
	if prefix == "" {
		prefix = DefaultPublishPrefix
	}
	return &Publisher{
		client:        client,
		publishPrefix: prefix,
		layout:        layout,
		qos:           0,
		retain:        true,
	}
}

// PublishStats publishes a stats snapshot retained to the stats topic
func (p *Publisher) PublishStats(stats Stats) error {
	if p.client == nil || !p.client.IsConnected() {
		return fmt.Errorf("MQTT client not connected")
	}

	payload, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshaling stats: %w", err)
	}
	if err := p.publish(StatsTopic(p.publishPrefix, p.layout), payload); err != nil {
		return err
	}

	p.mu.Lock()
	cp := stats
	p.last = &cp
	p.mu.Unlock()
	return nil
}

// PublishRooms publishes the room list retained to the rooms topic
func (p *Publisher) PublishRooms(entries []RoomListEntry) error {
	if p.client == nil || !p.client.IsConnected() {
		return fmt.Errorf("MQTT client not connected")
	}

	message := map[string]interface{}{
		"layout":    p.layout,
		"rooms":     entries,
		"timestamp": time.Now().Unix(),
	}
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshaling rooms: %w", err)
	}
	if err := p.publish(RoomsTopic(p.publishPrefix, p.layout), payload); err != nil {
		return err
	}
	log.Printf("[MQTT] Published %d rooms for %s", len(entries), p.layout)
	return nil
}

func (p *Publisher) publish(topic string, payload []byte) error {
	token := p.client.Publish(topic, p.qos, p.retain, payload)
	if token.WaitTimeout(2*time.Second) && token.Error() != nil {
		return fmt.Errorf("publishing to %s: %w", topic, token.Error())
	}
	return nil
}

// lastStats returns the most recently published stats
func (p *Publisher) lastStats() (Stats, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.last == nil {
		return Stats{}, false
	}
	return *p.last, true
}
