package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/lvdashuaibi/ledgervote/config"
	"github.com/lvdashuaibi/ledgervote/internal/model"
)

// Producer 发布刷新事件
type Producer struct {
	writer         *kafka.Writer
	logger         *zap.SugaredLogger
	partitionCount int // 主题的分区数量
}

func NewProducer(ctx context.Context, cfg config.KafkaConfig, logger *zap.SugaredLogger) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("未配置Kafka地址")
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	logger = logger.With("module", "kafka-producer")

	partitions, err := topicPartitions(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger.Infow("检测到Kafka主题分区", "topic", cfg.Topic, "partitions", len(partitions))

	// 使用Hash分区器，同一实体类型的事件进入同一分区，保证顺序
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
	}

	return &Producer{
		writer:         writer,
		logger:         logger,
		partitionCount: len(partitions),
	}, nil
}

// topicPartitions 读取主题的分区ID
func topicPartitions(ctx context.Context, cfg config.KafkaConfig) ([]int, error) {
	conn, err := kafka.DialLeader(ctx, "tcp", cfg.Brokers[0], cfg.Topic, 0)
	if err != nil {
		return nil, fmt.Errorf("连接Kafka失败: %w", err)
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions()
	if err != nil {
		return nil, fmt.Errorf("读取分区信息失败: %w", err)
	}

	var ids []int
	for _, p := range partitions {
		if p.Topic == cfg.Topic {
			ids = append(ids, p.ID)
		}
	}
	return ids, nil
}

// SendRefreshEvent 发送刷新事件到Kafka
func (p *Producer) SendRefreshEvent(ctx context.Context, event *model.RefreshEvent) error {
	msg, err := encodeRefreshEvent(event)
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("发送刷新事件失败: %w", err)
	}

	p.logger.Debugw("已发送刷新事件", "key", string(msg.Key), "eventId", event.EventID, "reason", event.Reason)
	return nil
}

// encodeRefreshEvent 以实体类型作为路由键
func encodeRefreshEvent(event *model.RefreshEvent) (kafka.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("序列化刷新事件失败: %w", err)
	}

	kinds := make([]string, 0, len(event.Kinds))
	for _, k := range event.Kinds {
		kinds = append(kinds, string(k))
	}

	return kafka.Message{
		Key:   []byte(strings.Join(kinds, ",")),
		Value: data,
		Time:  event.IssuedAt,
	}, nil
}

// Close 关闭Kafka生产者
func (p *Producer) Close() error {
	return p.writer.Close()
}
