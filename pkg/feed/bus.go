package feed

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Bus 进程内变更通知总线
// 单进程部署与测试场景下的 Feed 实现；多实例部署用 RedisFeed
type Bus struct {
	mu     sync.RWMutex
	subs   map[int]*busSub
	nextID int
	logger *zap.Logger
}

type busSub struct {
	filter Filter
	ch     chan Event
}

// 订阅通道缓冲大小。缓冲占满说明订阅方消费过慢，此时丢弃新事件：
// 订阅方语义是"命中即整体重拉"，漏掉单条事件最终仍会被后续事件
// 或校验失败路径补齐。
const busBuffer = 16

// NewBus 创建进程内总线
func NewBus(logger *zap.Logger) *Bus {
	return &Bus{
		subs:   make(map[int]*busSub),
		logger: logger,
	}
}

// Publish 向所有命中过滤器的订阅方投递事件
func (b *Bus) Publish(_ context.Context, ev Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subs {
		if !sub.filter.Matches(ev) {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			b.logger.Warn("订阅通道已满，丢弃事件",
				zap.String("table", ev.Table),
				zap.String("date", ev.Date),
			)
		}
	}
	return nil
}

// Subscribe 注册订阅，返回事件通道与取消函数
func (b *Bus) Subscribe(_ context.Context, f Filter) (<-chan Event, func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	sub := &busSub{filter: f, ch: make(chan Event, busBuffer)}
	b.subs[id] = sub

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if s, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(s.ch)
		}
	}
	return sub.ch, cancel, nil
}

// SubscribersCount 当前订阅数（测试用）
func (b *Bus) SubscribersCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
