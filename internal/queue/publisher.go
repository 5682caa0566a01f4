package queue

import (
    "context"
    "encoding/json"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "go.uber.org/zap"

    "github.com/iliyamo/hotel-reservation/internal/logger"
)

// Publisher sends ReservationEvents to a durable queue on the default
// exchange.  It dials per publish; event volume is one message per
// reservation change.
type Publisher struct {
    url   string
    queue string
}

// NewPublisher returns a Publisher for url and queue name.
func NewPublisher(url, queue string) *Publisher {
    return &Publisher{url: url, queue: queue}
}

// Publish marshals ev and publishes it as a persistent message.  Errors
// are logged and returned so the caller can decide to ignore them.
func (p *Publisher) Publish(ctx context.Context, ev ReservationEvent) error {
    log := logger.L().With(zap.String("event", ev.Type), logger.ReservationID(ev.ReservationID))

    conn, err := amqp.Dial(p.url)
    if err != nil {
        log.Warn("rabbitmq: dial failed", zap.Error(err))
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        log.Warn("rabbitmq: channel open failed", zap.Error(err))
        return err
    }
    defer func() { _ = ch.Close() }()

    if _, err := declare(ch, p.queue); err != nil {
        log.Warn("rabbitmq: queue declare failed", zap.Error(err))
        return err
    }

    body, err := json.Marshal(ev)
    if err != nil {
        return err
    }
    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Type:         ev.Type,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
        log.Warn("rabbitmq: publish failed", zap.Error(err))
        return err
    }
    return nil
}

// declare makes sure the durable queue exists; publisher and consumer
// must agree on its arguments.
func declare(ch *amqp.Channel, name string) (amqp.Queue, error) {
    return ch.QueueDeclare(name, true, false, false, false, nil)
}
