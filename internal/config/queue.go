package config

// QueueConfig controls reservation event publishing over RabbitMQ.
// An empty URL disables publishing; ConsumerEnabled starts the in-process
// consumer that writes one log line per event.
type QueueConfig struct {
    URL             string
    Queue           string
    ConsumerEnabled bool
    LogFile         string
}

func LoadQueueConfig() QueueConfig {
    return QueueConfig{
        URL:             envStr("RABBITMQ_URL", ""),
        Queue:           envStr("RABBITMQ_QUEUE", "reservation.events"),
        ConsumerEnabled: envBool("RABBITMQ_CONSUMER", false),
        LogFile:         envStr("RESERVATION_EVENT_LOG", "logs/reservations.log"),
    }
}
