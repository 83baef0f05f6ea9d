package kafka

import (
	"Herald/internal/api/config"
	"Herald/internal/repository"
	"context"
	log "log/slog"

	"github.com/IBM/sarama"
)

type consumer struct {
	topic   string
	group   sarama.ConsumerGroup
	handler sarama.ConsumerGroupHandler
}

// ConsumerManager 管理所有 canal 消费者
type ConsumerManager struct {
	consumers []*consumer
}

// NewConsumerManager kafka.enable 为 false 时返回空管理器
func NewConsumerManager(cfg *config.Config, postRepo repository.PostRepo, notifier Notifier) (*ConsumerManager, error) {
	m := &ConsumerManager{}
	if !cfg.Kafka.Enable {
		log.Info("kafka disabled, business events will not be consumed")
		return m, nil
	}

	saramaCfg := newSaramaConfig(cfg.Kafka)

	entries := []struct {
		consumer config.KafkaConsumerConfig
		handler  sarama.ConsumerGroupHandler
	}{
		{cfg.KafkaLikeConsumer, NewLikesHandler(postRepo, notifier)},
		{cfg.KafkaCollectionConsumer, NewCollectionsHandler(postRepo, notifier)},
		{cfg.KafkaCommentConsumer, NewCommentsHandler(postRepo, notifier)},
		{cfg.KafkaUserFollowsConsumer, NewUserFollowsHandler(notifier)},
	}

	for _, e := range entries {
		if e.consumer.Topic == "" {
			continue
		}
		group, err := sarama.NewConsumerGroup(cfg.Kafka.Brokers, e.consumer.GroupID, saramaCfg)
		if err != nil {
			m.close()
			return nil, err
		}
		m.consumers = append(m.consumers, &consumer{
			topic:   e.consumer.Topic,
			group:   group,
			handler: e.handler,
		})
	}
	return m, nil
}

// Start 启动所有消费者，阻塞到 ctx 结束
func (m *ConsumerManager) Start(ctx context.Context) error {
	for _, c := range m.consumers {
		go m.run(ctx, c)
		go m.drainErrors(ctx, c)
	}

	<-ctx.Done()
	log.Info("Kafka Manager shutting down...")
	m.close()
	return nil
}

func (m *ConsumerManager) run(ctx context.Context, c *consumer) {
	log.Info("canal consumer started", "topic", c.topic)
	for {
		// rebalance 后 Consume 会返回，需要重新加入
		if err := c.group.Consume(ctx, []string{c.topic}, c.handler); err != nil {
			log.Error("Error from consumer", "topic", c.topic, "err", err)
		}
		if ctx.Err() != nil {
			return
		}
	}
}

func (m *ConsumerManager) drainErrors(ctx context.Context, c *consumer) {
	for {
		select {
		case err, ok := <-c.group.Errors():
			if !ok {
				return
			}
			log.Warn("consumer group error", "topic", c.topic, "err", err)
		case <-ctx.Done():
			return
		}
	}
}

func (m *ConsumerManager) close() {
	for _, c := range m.consumers {
		if err := c.group.Close(); err != nil {
			log.Error("Failed to close consumer", "topic", c.topic, "err", err)
		}
	}
}
