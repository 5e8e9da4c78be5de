// workers/notification_dispatcher.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"seikatsu-backend/metrics"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

const (
	EventLevelUp         = "level_up"
	EventStreakMilestone = "streak_milestone"
)

// NotificationEvent is the JSON payload published for each signal
type NotificationEvent struct {
	Type       string    `json:"type"`
	UserID     uint      `json:"user_id"`
	Level      int       `json:"level,omitempty"`
	StreakDays int       `json:"streak_days,omitempty"`
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher sends one encoded event. AMQPPublisher is the production one.
type Publisher interface {
	Publish(ctx context.Context, body []byte) error
	Close() error
}

// Dispatcher is a fire-and-forget notifier: Notify* only enqueue, one worker
// goroutine publishes. A full queue drops the event with a warning.
type Dispatcher struct {
	pub   Publisher
	queue chan NotificationEvent
	log   logrus.FieldLogger
	wg    sync.WaitGroup
	now   func() time.Time
}

func NewDispatcher(pub Publisher, buffer int, log logrus.FieldLogger) *Dispatcher {
	if buffer <= 0 {
		buffer = 256
	}
	return &Dispatcher{
		pub:   pub,
		queue: make(chan NotificationEvent, buffer),
		log:   log.WithField("component", "notifications"),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (d *Dispatcher) NotifyLevelUp(_ context.Context, userID uint, level int) error {
	return d.enqueue(NotificationEvent{
		Type:    EventLevelUp,
		UserID:  userID,
		Level:   level,
		Message: fmt.Sprintf("🎉 Level Up! Congratulations! You've reached level %d!", level),
	})
}

func (d *Dispatcher) NotifyStreakMilestone(_ context.Context, userID uint, days int) error {
	return d.enqueue(NotificationEvent{
		Type:       EventStreakMilestone,
		UserID:     userID,
		StreakDays: days,
		Message:    fmt.Sprintf("🔥 Streak Milestone! You've reached a %d-day streak! Keep it going!", days),
	})
}

func (d *Dispatcher) enqueue(ev NotificationEvent) error {
	ev.OccurredAt = d.now()
	select {
	case d.queue <- ev:
		return nil
	default:
		metrics.RecordNotificationFailure("dropped")
		d.log.WithFields(logrus.Fields{"type": ev.Type, "user_id": ev.UserID}).Warn("⚠️ notification queue full, event dropped")
		return nil
	}
}

// Start launches the publishing worker. It drains what is queued once ctx is done, then closes the publisher.
func (d *Dispatcher) Start(ctx context.Context) {
	d.log.Info("📨 Starting notification dispatcher…")
	d.wg.Add(1)
	go d.run(ctx)
}

// Wait blocks until the worker has stopped
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) run(ctx context.Context) {
	defer d.wg.Done()
	defer func() {
		if err := d.pub.Close(); err != nil {
			d.log.WithError(err).Warn("closing publisher failed")
		}
	}()

	for {
		select {
		case ev := <-d.queue:
			d.publish(ctx, ev)
		case <-ctx.Done():
			d.drain()
			d.log.Info("⏹️ Notification dispatcher stopped")
			return
		}
	}
}

func (d *Dispatcher) drain() {
	flush, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case ev := <-d.queue:
			d.publish(flush, ev)
		default:
			return
		}
	}
}

func (d *Dispatcher) publish(ctx context.Context, ev NotificationEvent) {
	body, err := json.Marshal(ev)
	if err != nil {
		d.log.WithError(err).Error("marshal notification failed")
		return
	}
	if err := d.pub.Publish(ctx, body); err != nil {
		metrics.RecordNotificationFailure(ev.Type)
		d.log.WithError(err).WithFields(logrus.Fields{"type": ev.Type, "user_id": ev.UserID}).Warn("❌ publish notification failed")
		return
	}
	metrics.RecordNotificationPublished()
}

// AMQPPublisher publishes persistent JSON messages to a durable queue on the default exchange
type AMQPPublisher struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
	mu    sync.Mutex
}

func DialAMQP(url, queue string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: dial failed: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: channel open failed: %w", err)
	}
	if _, err := ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // args
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: queue declare failed: %w", err)
	}
	return &AMQPPublisher{conn: conn, ch: ch, queue: queue}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.PublishWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
}

func (p *AMQPPublisher) Close() error {
	_ = p.ch.Close()
	return p.conn.Close()
}
