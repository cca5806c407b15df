package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go-gin-helpdesk/internal/model"
	"go-gin-helpdesk/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	StreamKey          = "tickets:events"
	ConsumerGroupName  = "ticket-event-workers"
	ConsumerNamePrefix = "ticket-events"

	fieldEvent    = "event"
	fieldEventID  = "event_id"
	fieldTicketID = "ticket_id"
	fieldAction   = "action"

	readBatchSize = 10
)

// RedisStreamQueueConfig 重新投遞與保留設定；零值欄位使用預設。
type RedisStreamQueueConfig struct {
	ClaimMinIdleTime   time.Duration // 未 ack 的事件閒置多久後重新投遞
	MaxRetryCount      int           // 投遞次數達到上限就丟棄
	ReadGroupBlockTime time.Duration
	MaxLen             int64 // stream 約略保留的事件數，紀錄本身在 ticket_events
}

func defaultRedisStreamConfig() RedisStreamQueueConfig {
	return RedisStreamQueueConfig{
		ClaimMinIdleTime:   5 * time.Second,
		MaxRetryCount:      5,
		ReadGroupBlockTime: 2 * time.Second,
		MaxLen:             10000,
	}
}

func (c RedisStreamQueueConfig) withDefaults() RedisStreamQueueConfig {
	d := defaultRedisStreamConfig()
	if c.ClaimMinIdleTime > 0 {
		d.ClaimMinIdleTime = c.ClaimMinIdleTime
	}
	if c.MaxRetryCount > 0 {
		d.MaxRetryCount = c.MaxRetryCount
	}
	if c.ReadGroupBlockTime > 0 {
		d.ReadGroupBlockTime = c.ReadGroupBlockTime
	}
	if c.MaxLen > 0 {
		d.MaxLen = c.MaxLen
	}
	return d
}

// RedisStreamTicketEventQueue carries ticket events on a Redis stream read by
// one consumer group, so several server processes share the recording work.
// Delivery is at least once; each event carries an EventID for the recorder
// to deduplicate on.
type RedisStreamTicketEventQueue struct {
	client   *redis.Client
	consumer string
	cfg      RedisStreamQueueConfig
}

// NewRedisStreamTicketEventQueue creates the consumer group if needed. config may be nil.
func NewRedisStreamTicketEventQueue(ctx context.Context, client *redis.Client, consumerID string, config *RedisStreamQueueConfig) (TicketEventQueue, error) {
	if consumerID == "" {
		consumerID = uuid.NewString()
	}
	var cfg RedisStreamQueueConfig
	if config != nil {
		cfg = *config
	}

	q := &RedisStreamTicketEventQueue{
		client:   client,
		consumer: ConsumerNamePrefix + ":" + consumerID,
		cfg:      cfg.withDefaults(),
	}
	err := client.XGroupCreateMkStream(ctx, StreamKey, ConsumerGroupName, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return nil, fmt.Errorf("create consumer group: %w", err)
	}
	return q, nil
}

func (q *RedisStreamTicketEventQueue) Publish(ctx context.Context, event *model.TicketEvent) error {
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal ticket event: %w", err)
	}

	err = q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey,
		MaxLen: q.cfg.MaxLen,
		Approx: true,
		Values: map[string]interface{}{
			fieldEventID:  event.EventID,
			fieldTicketID: strconv.Itoa(event.TicketID),
			fieldAction:   string(event.Action),
			fieldEvent:    string(payload),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("publish ticket event %s: %w", event.EventID, err)
	}
	return nil
}

// Subscribe delivers new events and, on a ticker, events another delivery left
// unacknowledged for ClaimMinIdleTime. The channel closes when ctx is done.
func (q *RedisStreamTicketEventQueue) Subscribe(ctx context.Context) (<-chan Delivery, error) {
	out := make(chan Delivery)
	go func() {
		defer close(out)
		reclaimDone := make(chan struct{})
		go func() {
			defer close(reclaimDone)
			q.reclaimLoop(ctx, out)
		}()
		for ctx.Err() == nil {
			q.readNew(ctx, out)
		}
		<-reclaimDone
	}()
	return out, nil
}

func (q *RedisStreamTicketEventQueue) readNew(ctx context.Context, out chan<- Delivery) {
	streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    ConsumerGroupName,
		Consumer: q.consumer,
		Streams:  []string{StreamKey, ">"},
		Count:    readBatchSize,
		Block:    q.cfg.ReadGroupBlockTime,
	}).Result()
	if errors.Is(err, redis.Nil) || ctx.Err() != nil {
		return
	}
	if err != nil {
		logger.WithComponent("mq").Error("Failed to read ticket events", zap.Error(err))
		select {
		case <-time.After(time.Second):
		case <-ctx.Done():
		}
		return
	}

	for _, stream := range streams {
		if !q.deliver(ctx, out, stream.Messages, false) {
			return
		}
	}
}

// reclaimLoop 定期把閒置過久的未 ack 事件領回重新投遞
func (q *RedisStreamTicketEventQueue) reclaimLoop(ctx context.Context, out chan<- Delivery) {
	ticker := time.NewTicker(q.cfg.ClaimMinIdleTime)
	defer ticker.Stop()
	start := "0-0"

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		msgs, next, err := q.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   StreamKey,
			Group:    ConsumerGroupName,
			Consumer: q.consumer,
			MinIdle:  q.cfg.ClaimMinIdleTime,
			Start:    start,
			Count:    readBatchSize,
		}).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			if ctx.Err() == nil {
				logger.WithComponent("mq").Error("Failed to reclaim ticket events", zap.Error(err))
			}
			continue
		}
		start = next
		if start == "" {
			start = "0-0"
		}

		if !q.deliver(ctx, out, msgs, true) {
			return
		}
	}
}

// deliver returns false once ctx is done.
func (q *RedisStreamTicketEventQueue) deliver(ctx context.Context, out chan<- Delivery, msgs []redis.XMessage, redelivered bool) bool {
	for _, msg := range msgs {
		if redelivered && q.exhausted(ctx, msg.ID) {
			continue
		}
		d, ok := q.newDelivery(ctx, msg)
		if !ok {
			continue
		}
		select {
		case out <- d:
		case <-ctx.Done():
			return false
		}
	}
	return true
}

// exhausted acks and drops an event delivered MaxRetryCount times or more.
func (q *RedisStreamTicketEventQueue) exhausted(ctx context.Context, messageID string) bool {
	log := logger.WithComponent("mq").With(zap.String("message_id", messageID))

	pending, err := q.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: StreamKey,
		Group:  ConsumerGroupName,
		Start:  messageID,
		End:    messageID,
		Count:  1,
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		log.Warn("Failed to read delivery count", zap.Error(err))
		return false
	}
	if len(pending) == 0 || int(pending[0].RetryCount) < q.cfg.MaxRetryCount {
		return false
	}

	log.Warn("Dropping ticket event after too many deliveries",
		zap.Int64("deliveries", pending[0].RetryCount),
		zap.Int("max_deliveries", q.cfg.MaxRetryCount),
	)
	if err := q.client.XAck(ctx, StreamKey, ConsumerGroupName, messageID).Err(); err != nil {
		log.Error("Failed to ack dropped ticket event", zap.Error(err))
	}
	return true
}

// newDelivery decodes a stream entry. Undecodable entries are acked and skipped.
func (q *RedisStreamTicketEventQueue) newDelivery(ctx context.Context, msg redis.XMessage) (Delivery, bool) {
	log := logger.WithComponent("mq").With(zap.String("message_id", msg.ID))
	ack := func() error {
		return q.client.XAck(ctx, StreamKey, ConsumerGroupName, msg.ID).Err()
	}

	payload, _ := msg.Values[fieldEvent].(string)
	var event model.TicketEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		log.Warn("Skipping undecodable ticket event", zap.Error(err))
		if err := ack(); err != nil {
			log.Error("Failed to ack undecodable ticket event", zap.Error(err))
		}
		return Delivery{}, false
	}
	if event.EventID == "" {
		// 舊格式沒有 event_id 時用 stream ID，重新投遞時仍相同
		event.EventID = msg.ID
	}
	log = log.With(zap.String("event_id", event.EventID), zap.Int("ticket_id", event.TicketID))

	return Delivery{
		Data: &event,
		Ack: func() {
			if err := ack(); err != nil {
				log.Error("Failed to ack ticket event", zap.Error(err))
			}
		},
		Nack: func(requeue bool) {
			if requeue {
				// 不 ack，留待 reclaimLoop 重新投遞
				log.Info("Ticket event will be redelivered", zap.Duration("after", q.cfg.ClaimMinIdleTime))
				return
			}
			if err := ack(); err != nil {
				log.Error("Failed to ack rejected ticket event", zap.Error(err))
			}
		},
	}, true
}
