package feed

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisFeed 基于 Redis Pub/Sub 的变更通知通道
// 多个服务实例共享同一频道，任一实例的写入都会推送到全部订阅方
type RedisFeed struct {
	rdb     *goredis.Client
	channel string
	logger  *zap.Logger
}

// NewRedisFeed 创建 Redis 通道实现
func NewRedisFeed(rdb *goredis.Client, channel string, logger *zap.Logger) *RedisFeed {
	return &RedisFeed{rdb: rdb, channel: channel, logger: logger}
}

// Publish 序列化事件并发布到频道
func (r *RedisFeed) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("序列化事件失败: %w", err)
	}
	if err := r.rdb.Publish(ctx, r.channel, payload).Err(); err != nil {
		return fmt.Errorf("发布事件失败: %w", err)
	}
	return nil
}

// Subscribe 订阅频道并按过滤器转发事件
func (r *RedisFeed) Subscribe(ctx context.Context, f Filter) (<-chan Event, func(), error) {
	pubsub := r.rdb.Subscribe(ctx, r.channel)

	// 确认订阅建立，避免竞态丢失早期事件
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, nil, fmt.Errorf("建立订阅失败: %w", err)
	}

	out := make(chan Event, busBuffer)
	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				r.logger.Warn("事件反序列化失败", zap.Error(err))
				continue
			}
			if !f.Matches(ev) {
				continue
			}
			select {
			case out <- ev:
			default:
				r.logger.Warn("订阅通道已满，丢弃事件",
					zap.String("table", ev.Table),
					zap.String("date", ev.Date),
				)
			}
		}
	}()

	cancel := func() {
		// 关闭 pubsub 会结束上面的转发协程并关闭 out
		_ = pubsub.Close()
	}
	return out, cancel, nil
}
