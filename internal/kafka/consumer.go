package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"

	"github.com/lvdashuaibi/ledgervote/config"
	"github.com/lvdashuaibi/ledgervote/internal/model"
)

// Consumer 订阅刷新事件。每个实例都要收到全部事件，
// 因此按分区各开一个不带消费组的reader，从最新位置开始读。
type Consumer struct {
	readers []*kafka.Reader
	ctx     context.Context
	cancel  context.CancelFunc
	logger  *zap.SugaredLogger
	wg      conc.WaitGroup
}

type MessageHandler func(ctx context.Context, event *model.RefreshEvent) error

// NewConsumer instanceID 用于消费组模式下区分实例
func NewConsumer(ctx context.Context, cfg config.KafkaConfig, instanceID string, logger *zap.SugaredLogger) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("未配置Kafka地址")
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	logger = logger.With("module", "kafka-consumer")

	partitions, err := topicPartitions(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger.Infow("检测到Kafka主题分区", "topic", cfg.Topic, "partitions", len(partitions))

	readers := make([]*kafka.Reader, 0, len(partitions))
	for _, partition := range partitions {
		reader := kafka.NewReader(kafka.ReaderConfig{
			Brokers:   cfg.Brokers,
			Topic:     cfg.Topic,
			Partition: partition,
			MinBytes:  1,
			MaxBytes:  1e6, // 1MB
			MaxWait:   500 * time.Millisecond,
		})
		if err := reader.SetOffset(kafka.LastOffset); err != nil {
			logger.Warnw("设置起始偏移量失败", "partition", partition, "err", err)
		}
		readers = append(readers, reader)
	}

	// 未检测到分区时退回消费组模式，每个实例单独一个组
	if len(readers) == 0 {
		groupID := fmt.Sprintf("%s-%s", cfg.GroupID, instanceID)
		logger.Infow("未检测到分区，将使用消费者组模式", "groupId", groupID)
		readers = append(readers, kafka.NewReader(kafka.ReaderConfig{
			Brokers:     cfg.Brokers,
			Topic:       cfg.Topic,
			GroupID:     groupID,
			StartOffset: kafka.LastOffset,
			MinBytes:    1,
			MaxBytes:    1e6,
			MaxWait:     500 * time.Millisecond,
		}))
	}

	cctx, cancel := context.WithCancel(context.Background())
	return &Consumer{
		readers: readers,
		ctx:     cctx,
		cancel:  cancel,
		logger:  logger,
	}, nil
}

// StartConsuming 每个reader一个goroutine
func (c *Consumer) StartConsuming(handler MessageHandler) {
	for i, reader := range c.readers {
		workerID, r := i, reader
		c.wg.Go(func() {
			c.consumeMessages(workerID, r, handler)
		})
	}
	c.logger.Infow("已启动Kafka消费者", "workers", len(c.readers))
}

// consumeMessages 单个消费者goroutine的消费逻辑
func (c *Consumer) consumeMessages(workerID int, reader *kafka.Reader, handler MessageHandler) {
	log := c.logger.With("worker", workerID)
	log.Debug("消费者工作线程已启动")

	for {
		m, err := reader.ReadMessage(c.ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || c.ctx.Err() != nil {
				log.Debug("消费者工作线程收到停止信号")
				return
			}
			log.Warnw("读取消息失败", "err", err)
			select {
			case <-c.ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		event, err := decodeRefreshEvent(m)
		if err != nil {
			log.Warnw("解析消息失败", "partition", m.Partition, "offset", m.Offset, "err", err)
			continue
		}

		if err := handler(c.ctx, event); err != nil {
			log.Warnw("处理刷新事件失败", "eventId", event.EventID, "err", err)
		}
	}
}

func decodeRefreshEvent(m kafka.Message) (*model.RefreshEvent, error) {
	var event model.RefreshEvent
	if err := json.Unmarshal(m.Value, &event); err != nil {
		return nil, fmt.Errorf("反序列化刷新事件失败: %w", err)
	}
	if len(event.Kinds) == 0 {
		return nil, fmt.Errorf("刷新事件缺少实体类型")
	}
	for _, k := range event.Kinds {
		if _, err := model.ParseKind(string(k)); err != nil {
			return nil, err
		}
	}
	return &event, nil
}

// Stop 停止消费
func (c *Consumer) Stop() error {
	c.logger.Info("正在停止所有Kafka消费者工作线程...")
	c.cancel()
	c.wg.Wait()

	var errs []error
	for i, reader := range c.readers {
		if err := reader.Close(); err != nil {
			errs = append(errs, fmt.Errorf("关闭消费者 #%d 失败: %w", i, err))
		}
	}

	c.logger.Info("所有Kafka消费者工作线程已停止")
	return errors.Join(errs...)
}
