package kafka

import (
	"context"
	"errors"
	log "log/slog"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
)

const (
	batchSize    = 32
	batchTimeout = 1 * time.Second

	maxRetries       = 5
	retryInterval    = 100 * time.Millisecond
	maxRetryInterval = 5 * time.Second
)

// ErrSkipMessage 消息本身不可处理，重试没有意义
var ErrSkipMessage = errors.New("kafka: skip message")

type LogicFunc func(ctx context.Context, msg *sarama.ConsumerMessage) error

// pullMessageBatch 攒批拉取，满 batchSize 或超过 batchTimeout 即处理一批
func pullMessageBatch(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim, logic LogicFunc) error {
	batch := make([]*sarama.ConsumerMessage, 0, batchSize)
	ticker := time.NewTicker(batchTimeout)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				if len(batch) > 0 {
					processBatch(session, batch, logic)
				}
				return nil
			}
			batch = append(batch, msg)
			if len(batch) >= batchSize {
				processBatch(session, batch, logic)
				batch = make([]*sarama.ConsumerMessage, 0, batchSize)
				ticker.Reset(batchTimeout)
			}
		case <-ticker.C:
			if len(batch) > 0 {
				processBatch(session, batch, logic)
				batch = make([]*sarama.ConsumerMessage, 0, batchSize)
			}
		case <-session.Context().Done():
			return nil
		}
	}
}

// processBatch 并发处理一批消息，全部结束后提交最后一条的 offset
func processBatch(session sarama.ConsumerGroupSession, messages []*sarama.ConsumerMessage, logic LogicFunc) {
	var wg sync.WaitGroup

	for _, msg := range messages {
		wg.Add(1)
		go func(m *sarama.ConsumerMessage) {
			defer wg.Done()
			runWithRetry(session.Context(), m, logic)
		}(msg)
	}

	wg.Wait()

	if len(messages) > 0 {
		lastMsg := messages[len(messages)-1]
		session.MarkMessage(lastMsg, "")
	}
}

// runWithRetry 指数退避重试，超过 maxRetries 后丢弃
func runWithRetry(ctx context.Context, m *sarama.ConsumerMessage, logic LogicFunc) bool {
	interval := retryInterval
	for attempt := 1; ; attempt++ {
		err := logic(ctx, m)
		if err == nil {
			return true
		}
		if errors.Is(err, ErrSkipMessage) {
			log.DebugContext(ctx, "skip kafka message", "topic", m.Topic, "offset", m.Offset, "err", err)
			return false
		}
		if attempt >= maxRetries {
			log.ErrorContext(ctx, "drop kafka message after retries", "topic", m.Topic, "offset", m.Offset, "err", err)
			return false
		}

		log.WarnContext(ctx, "process message error", "topic", m.Topic, "attempt", attempt, "err", err)
		select {
		case <-ctx.Done():
			return false
		case <-time.After(interval):
		}

		interval *= 2
		if interval > maxRetryInterval {
			interval = maxRetryInterval
		}
	}
}

// ToCanalMessage 解析 canal 消息并校验表名
func ToCanalMessage(msg *sarama.ConsumerMessage, tableName string) (*CanalMessage, error) {
	var canalMsg CanalMessage
	if err := json.Unmarshal(msg.Value, &canalMsg); err != nil {
		log.Error("unmarshal canal message error", "err", err)
		return nil, errors.Join(ErrSkipMessage, err)
	}

	if canalMsg.IsDDL || canalMsg.Table != tableName {
		return nil, ErrSkipMessage
	}

	if len(canalMsg.Data) == 0 {
		return nil, ErrSkipMessage
	}

	return &canalMsg, nil
}
