// Package kafka 提供了与 Kafka 消息队列交互的功能。
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"news-rag-go/internal/config"
	"news-rag-go/pkg/log"
	"news-rag-go/pkg/tasks"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// TaskProcessor defines the interface for any service that can process a task.
// This decouples the Kafka consumer from the concrete pipeline implementation.
type TaskProcessor interface {
	Process(ctx context.Context, task tasks.ArticleTask) error
}

// Brokers 把逗号分隔的地址列表拆开。
func Brokers(cfg config.KafkaConfig) []string {
	var out []string
	for _, b := range strings.Split(cfg.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// NewProducer 创建文章任务的生产者。
func NewProducer(cfg config.KafkaConfig) *kafka.Writer {
	return &kafka.Writer{
		Addr:     kafka.TCP(Brokers(cfg)...),
		Topic:    cfg.Topic,
		Balancer: &kafka.LeastBytes{},
	}
}

// ProduceArticleTasks 发送文章入库任务到 Kafka，以 URL 作为消息键。
func ProduceArticleTasks(ctx context.Context, w *kafka.Writer, articles []tasks.ArticleTask) error {
	msgs := make([]kafka.Message, 0, len(articles))
	for _, a := range articles {
		taskBytes, err := json.Marshal(a)
		if err != nil {
			return err
		}
		msgs = append(msgs, kafka.Message{Key: []byte(a.URL), Value: taskBytes})
	}
	return w.WriteMessages(ctx, msgs...)
}

// 单条任务最多处理的次数，之后提交 offset 跳过
const maxProcessAttempts = 3

// retryBackoff 是两次处理之间的等待时间。
var retryBackoff = 500 * time.Millisecond

// messageReader 是消费者循环用到的 kafka.Reader 能力。
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// StartConsumer 启动一个 Kafka 消费者来处理文章任务，ctx 取消时退出。
func StartConsumer(ctx context.Context, cfg config.KafkaConfig, processor TaskProcessor) {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  Brokers(cfg),
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})
	log.Infof("Kafka 消费者已启动，正在监听主题 '%s'", cfg.Topic)
	consume(ctx, r, processor)
}

func consume(ctx context.Context, r messageReader, processor TaskProcessor) {
	defer func() {
		if err := r.Close(); err != nil {
			log.Errorf("关闭 Kafka 消费者失败: %v", err)
		}
	}()

	for {
		m, err := r.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				log.Info("Kafka 消费者已停止")
			} else {
				log.Error("从 Kafka 读取消息失败", err)
			}
			return
		}

		log.Infof("收到 Kafka 消息: offset %d", m.Offset)
		if !handleMessage(ctx, processor, m.Value) {
			// 只在消费者退出时发生，之后不会再提交更靠后的 offset，重启后重新投递
			log.Warnf("消费者退出，未提交 offset %d", m.Offset)
			return
		}
		if err := r.CommitMessages(ctx, m); err != nil {
			log.Errorf("提交 Kafka 消息 offset 失败: %v", err)
		}
	}
}

// handleMessage 处理一条消息并返回是否应提交 offset。
// 格式错误或缺少字段的消息直接提交，避免阻塞队列；处理失败时就地重试，
// 超过 maxProcessAttempts 次后提交并跳过。只有 ctx 取消时返回 false。
func handleMessage(ctx context.Context, processor TaskProcessor, value []byte) bool {
	var task tasks.ArticleTask
	if err := json.Unmarshal(value, &task); err != nil {
		log.Errorf("无法解析 Kafka 消息: %v, value: %s", err, string(value))
		return true
	}
	if err := task.Validate(); err != nil {
		log.Warnf("跳过无效的文章任务: %v, url: %s", err, task.URL)
		return true
	}

	log.Infof("开始处理文章任务: URL=%s", task.URL)
	for attempt := 1; ; attempt++ {
		err := processor.Process(ctx, task)
		if err == nil {
			log.Infof("文章任务处理成功: URL=%s", task.URL)
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		log.Errorf("处理文章任务失败: URL=%s, attempt: %d, Error: %v", task.URL, attempt, err)
		if attempt >= maxProcessAttempts {
			log.Errorw("文章任务多次失败，提交 offset 终止重试", "url", task.URL, "attempts", attempt)
			return true
		}
		select {
		case <-time.After(retryBackoff):
		case <-ctx.Done():
			return false
		}
	}
}
