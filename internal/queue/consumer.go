package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "go.uber.org/zap"
    "gopkg.in/natefinch/lumberjack.v2"

    "github.com/iliyamo/hotel-reservation/internal/logger"
)

// Consumer drains the reservation queue and appends one line per event
// to an audit file rotated by lumberjack.
type Consumer struct {
    URL     string
    Queue   string
    LogFile string

    once sync.Once
    out  io.WriteCloser
}

func (c *Consumer) audit() io.Writer {
    c.once.Do(func() {
        if c.out == nil {
            c.out = &lumberjack.Logger{Filename: c.LogFile, MaxSize: 50, MaxBackups: 5, Compress: true}
        }
    })
    return c.out
}

// Close releases the audit file.
func (c *Consumer) Close() error {
    if c.out == nil {
        return nil
    }
    return c.out.Close()
}

// Run keeps a connection to the broker and consumes until ctx is
// cancelled, reconnecting with exponential backoff capped at 30s.
func (c *Consumer) Run(ctx context.Context) error {
    log := logger.L().Named("reservation-consumer")
    defer func() { _ = c.Close() }()
    backoff := time.Second
    for {
        conn, err := amqp.Dial(c.URL)
        if err != nil {
            log.Warn("dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = c.consume(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        log.Warn("consume loop ended; reconnecting", zap.Error(err))
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        return fmt.Errorf("qos: %w", err)
    }
    if _, err := declare(ch, c.Queue); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(c.Queue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := c.handle(d.Body); err != nil {
                logger.L().Warn("reservation-consumer: bad message", zap.Error(err))
                _ = d.Nack(false, false) // do not requeue poison messages
                continue
            }
            _ = d.Ack(false)
        }
    }
}

func (c *Consumer) handle(body []byte) error {
    var ev ReservationEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.Type == "" || ev.ReservationID == 0 {
        return errors.New("event without type or reservation id")
    }
    return writeLine(c.audit(), ev)
}

func writeLine(w io.Writer, ev ReservationEvent) error {
    line := fmt.Sprintf("[%s] %s | reservation_id=%d | user_id=%d | room_id=%d | stay=%s..%s | status=%s",
        ev.OccurredAt, ev.Type, ev.ReservationID, ev.UserID, ev.RoomID, ev.CheckIn, ev.CheckOut, ev.Status)
    if ev.PreviousStatus != "" && ev.PreviousStatus != ev.Status {
        line += " | from=" + ev.PreviousStatus
    }
    _, err := io.WriteString(w, line+"\n")
    return err
}
