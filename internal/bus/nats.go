// Package bus publishes status transitions to NATS for downstream consumers.
package bus

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
)

const SubjectTransitions = "statuswatch.transitions"

// DrainTimeout bounds how long Close waits for buffered messages to flush.
const DrainTimeout = 5 * time.Second

// Transition is the wire message for a persisted status change.
type Transition struct {
	TargetID string    `json:"target_id"`
	Name     string    `json:"name"`
	URL      string    `json:"url"`
	Previous string    `json:"previous_status"`
	New      string    `json:"new_status"`
	Mode     string    `json:"mode"`
	At       time.Time `json:"at"`
}

type Publisher struct {
	Conn    *nats.Conn
	Subject string
	closed  chan struct{}
}

func NewPublisher(url string) (*Publisher, error) {
	conn, closed, err := connect(url, "statuswatch-api")
	if err != nil {
		return nil, err
	}
	return &Publisher{Conn: conn, Subject: SubjectTransitions, closed: closed}, nil
}

// Close drains pending publishes and returns once the connection is closed.
func (p *Publisher) Close() { drain(p.Conn, p.closed) }

func (p *Publisher) PublishTransition(t Transition) error {
	data, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return p.Conn.Publish(p.Subject, data)
}

type Subscriber struct {
	Conn   *nats.Conn
	closed chan struct{}
}

func NewSubscriber(url string) (*Subscriber, error) {
	conn, closed, err := connect(url, "statuswatch-cli")
	if err != nil {
		return nil, err
	}
	return &Subscriber{Conn: conn, closed: closed}, nil
}

// Close drains in-flight messages through their handlers, then closes.
func (s *Subscriber) Close() { drain(s.Conn, s.closed) }

// Subscribe decodes transition messages; undecodable messages are dropped.
func (s *Subscriber) Subscribe(handler func(Transition)) (*nats.Subscription, error) {
	return s.Conn.Subscribe(SubjectTransitions, func(msg *nats.Msg) {
		var t Transition
		if err := json.Unmarshal(msg.Data, &t); err != nil {
			return
		}
		handler(t)
	})
}

func connect(url, name string) (*nats.Conn, chan struct{}, error) {
	closed := make(chan struct{})
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.DrainTimeout(DrainTimeout),
		nats.ClosedHandler(func(*nats.Conn) { close(closed) }),
	)
	if err != nil {
		return nil, nil, err
	}
	return conn, closed, nil
}

// drain is asynchronous in nats.go; the closed handler marks its end.
func drain(conn *nats.Conn, closed chan struct{}) {
	if conn == nil || conn.IsClosed() {
		return
	}
	if err := conn.Drain(); err != nil {
		conn.Close()
		return
	}
	if closed == nil {
		return
	}
	select {
	case <-closed:
	case <-time.After(DrainTimeout + time.Second):
		conn.Close()
	}
}
