package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
	"timetable/internal/logger"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	defaultQueueSize = 256
	writeTimeout     = 10 * time.Second
)

var (
	ErrQueueFull = errors.New("очередь событий переполнена")
	ErrClosed    = errors.New("публикатор закрыт")
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher пишет события в один топик, ключ сообщения - id агрегата.
// Publish только ставит сообщение в очередь, отправкой занимается фоновая горутина,
// поэтому медленный брокер не задерживает запрос.
type KafkaPublisher struct {
	writer messageWriter
	topic  string

	queue  chan kafka.Message
	done   chan struct{}
	mtx    sync.RWMutex
	closed bool
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return newKafkaPublisher(writer, topic, defaultQueueSize)
}

func newKafkaPublisher(writer messageWriter, topic string, queueSize int) *KafkaPublisher {
	p := &KafkaPublisher{
		writer: writer,
		topic:  topic,
		queue:  make(chan kafka.Message, queueSize),
		done:   make(chan struct{}),
	}
	go p.run()
	return p
}

// Publish не ждёт брокера: при заполненной очереди событие отбрасывается с ErrQueueFull
func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("сериализация события: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.AggregateID.String()),
		Value: body,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}

	p.mtx.RLock()
	defer p.mtx.RUnlock()
	if p.closed {
		return ErrClosed
	}

	select {
	case p.queue <- msg:
		return nil
	default:
		return fmt.Errorf("событие %s: %w", event.Type, ErrQueueFull)
	}
}

func (p *KafkaPublisher) run() {
	defer close(p.done)

	for msg := range p.queue {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := p.writer.WriteMessages(ctx, msg)
		cancel()
		if err != nil {
			logger.Error("Events: Не удалось отправить событие", err,
				zap.String("topic", p.topic),
				zap.String("event_type", eventType(msg)))
		}
	}
}

func eventType(msg kafka.Message) string {
	for _, h := range msg.Headers {
		if h.Key == "event_type" {
			return string(h.Value)
		}
	}
	return ""
}

// Close дожидается отправки уже поставленных в очередь событий
func (p *KafkaPublisher) Close() error {
	p.mtx.Lock()
	if p.closed {
		p.mtx.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mtx.Unlock()

	<-p.done
	return p.writer.Close()
}
