package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/milan604/travelplanner-client/pkg/logger"
)

// DefaultTopic receives client notifications when no topic is configured.
const DefaultTopic = "travelplanner.client.notifications"

// MessageWriter is the subset of *kafka.Writer used by KafkaNotifier.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier publishes notifications as JSON records keyed by code, so
// other services can react to session loss or failing endpoints. Publish
// errors are logged and swallowed.
type KafkaNotifier struct {
	w       MessageWriter
	log     logger.LogManager
	timeout time.Duration
}

// KafkaOption customizes a KafkaNotifier.
type KafkaOption func(*KafkaNotifier)

// WithKafkaLogger sets the logger for publish failures.
func WithKafkaLogger(log logger.LogManager) KafkaOption {
	return func(k *KafkaNotifier) {
		if log != nil {
			k.log = log
		}
	}
}

// WithPublishTimeout bounds each publish. Zero disables the bound.
func WithPublishTimeout(d time.Duration) KafkaOption {
	return func(k *KafkaNotifier) { k.timeout = d }
}

// NewKafkaWriter returns a synchronous writer that hashes on the message key.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	if topic == "" {
		topic = DefaultTopic
	}
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
}

// NewKafkaNotifier publishes through w.
func NewKafkaNotifier(w MessageWriter, opts ...KafkaOption) *KafkaNotifier {
	k := &KafkaNotifier{w: w, log: logger.NewNop(), timeout: 2 * time.Second}
	for _, o := range opts {
		o(k)
	}
	return k
}

func (k *KafkaNotifier) Notify(ctx context.Context, n Notification) {
	payload, err := json.Marshal(n)
	if err != nil {
		k.log.ErrorFCtx(ctx, "notify: encode notification: %v", err)
		return
	}
	// Publishing must not be cut short by the request that failed.
	pctx := context.WithoutCancel(ctx)
	if k.timeout > 0 {
		var cancel context.CancelFunc
		pctx, cancel = context.WithTimeout(pctx, k.timeout)
		defer cancel()
	}
	msg := kafka.Message{
		Key:   []byte(n.Code),
		Value: payload,
		Time:  n.Time,
	}
	if err := k.w.WriteMessages(pctx, msg); err != nil {
		k.log.WarnFCtx(ctx, "notify: publish %s to kafka: %v", n.Code, err)
	}
}

// Close closes the underlying writer.
func (k *KafkaNotifier) Close() error {
	return k.w.Close()
}
