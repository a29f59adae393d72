package telemetry

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

const (
	backlogLimit   = 64
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
)

// RealPublisher publishes board and system events to an MQTT broker.
// Publishes made during an outage land in a bounded backlog and are
// replayed when paho reconnects.
type RealPublisher struct {
	client paho.Client

	mu      sync.Mutex
	pending *backlog
}

// NewRealPublisher connects to the given broker and returns a publisher.
func NewRealPublisher(broker string) (*RealPublisher, error) {
	p := &RealPublisher{
		pending: newBacklog(backlogLimit),
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID("board-monitor").
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Printf("telemetry: connection lost: %v", err)
		}).
		SetOnConnectHandler(func(_ paho.Client) {
			p.replayBacklog()
		})

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return p, nil
}

// Publish sends a board event. Board events go QoS 0: a missed alarm edge
// is superseded by the next one and the status topic carries the current
// state anyway.
func (p *RealPublisher) Publish(event Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	return p.send(Topic, 0, false, payload)
}

// PublishSystem sends a lifecycle event at QoS 1; startup and shutdown
// must not be silently lost.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return p.send(TopicSystem, 1, event.Retained, payload)
}

func (p *RealPublisher) send(topic string, qos byte, retained bool, payload []byte) error {
	if !p.client.IsConnected() {
		p.mu.Lock()
		p.pending.add(queuedPublish{topic: topic, payload: payload, qos: qos, retained: retained})
		n := p.pending.size()
		p.mu.Unlock()
		return fmt.Errorf("not connected, queued (%d pending)", n)
	}

	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// replayBacklog runs on paho's connect-handler goroutine after every
// (re)connect and flushes whatever queued up during the outage.
func (p *RealPublisher) replayBacklog() {
	p.mu.Lock()
	queued := p.pending.takeAll()
	p.mu.Unlock()

	if len(queued) == 0 {
		return
	}
	log.Printf("telemetry: replaying %d queued publishes", len(queued))
	for _, q := range queued {
		token := p.client.Publish(q.topic, q.qos, q.retained, q.payload)
		if !token.WaitTimeout(publishTimeout) {
			log.Printf("telemetry: replay timeout on %s", q.topic)
			continue
		}
		if err := token.Error(); err != nil {
			log.Printf("telemetry: replay failed on %s: %v", q.topic, err)
		}
	}
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnected()
}

// Close disconnects from the broker, allowing in-flight work to finish.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000)
	return nil
}
