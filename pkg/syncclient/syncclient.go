package syncclient

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"crewboard/backend/pkg/feed"
)

// ── 客户端同步层 ────────────────────────────────────────────
//
// 以日期范围为粒度的视图缓存。每次变更走显式状态机：
//
//	Idle → OptimisticallyApplied → Submitted → {Verified | VerificationFailed} → Idle
//
//   - OptimisticallyApplied：本地缓存同步改掉，视图立即重绘
//   - Submitted：权威写异步下发
//   - Verified：固定等待期后回读权威存储，与乐观值一致则终态
//   - VerificationFailed：整个范围（而非单个键）整体重拉并替换缓存
//     —— 无条件信任服务端，不做合并
//
// 另持有一个常驻订阅：命中 表名+日期范围 过滤器的任何通知都触发
// 与 VerificationFailed 相同的整体重拉，无论变更是否本客户端发起。
// 写入一旦提交就不可取消；可放弃的只有乐观 UI 状态。
// ─────────────────────────────────────────────────────────────

// State 状态机状态
type State int

const (
	StateIdle State = iota
	StateOptimisticallyApplied
	StateSubmitted
	StateVerified
	StateVerificationFailed
)

// String 状态名（日志用）
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateOptimisticallyApplied:
		return "optimistically_applied"
	case StateSubmitted:
		return "submitted"
	case StateVerified:
		return "verified"
	case StateVerificationFailed:
		return "verification_failed"
	default:
		return "unknown"
	}
}

// Row 缓存中的一条物化指派
type Row struct {
	Kind      string // "team" | "booking"
	StaffID   string
	TeamID    string
	BookingID string
	Date      string // YYYY-MM-DD
}

// Key 行的唯一键（与存储层唯一约束同构）
func (r Row) Key() string {
	if r.Kind == "booking" {
		return fmt.Sprintf("booking/%s/%s/%s", r.BookingID, r.StaffID, r.Date)
	}
	return fmt.Sprintf("team/%s/%s", r.StaffID, r.Date)
}

// Fetcher 权威读：拉取日期范围内的全部指派行
type Fetcher interface {
	FetchScope(ctx context.Context, from, to time.Time) ([]Row, error)
}

// Mutation 一次乐观变更
type Mutation struct {
	// Upserts/DeleteKeys 描述对本地缓存的乐观修改
	Upserts    []Row
	DeleteKeys []string
	// Submit 权威写（命令下发）；提交后不可取消
	Submit func(ctx context.Context) error
}

// ErrEmptyMutation 变更未提供 Submit 回调
var ErrEmptyMutation = errors.New("mutation 缺少 Submit 回调")

// Cache 单一日期范围的视图缓存
type Cache struct {
	fetcher Fetcher
	feed    feed.Subscriber
	logger  *zap.Logger

	from, to time.Time
	settle   time.Duration
	tables   []string

	mu    sync.Mutex
	rows  map[string]Row
	state State

	// onUpdate 缓存内容变化时回调（视图重绘钩子），可为 nil
	onUpdate func(rows []Row)
}

// Options Cache 构造参数
type Options struct {
	Fetcher Fetcher
	Feed    feed.Subscriber
	Logger  *zap.Logger
	From    time.Time
	To      time.Time
	// SettleDelay 提交后到回读校验之间的固定等待（不是重试循环）
	SettleDelay time.Duration
	// Tables 订阅过滤的表名；为空时订阅两张指派表
	Tables   []string
	OnUpdate func(rows []Row)
}

// New 创建视图缓存并做首次整体拉取
func New(ctx context.Context, opts Options) (*Cache, error) {
	tables := opts.Tables
	if len(tables) == 0 {
		tables = []string{feed.TableTeamAssignments, feed.TableBookingAssignments}
	}
	c := &Cache{
		fetcher:  opts.Fetcher,
		feed:     opts.Feed,
		logger:   opts.Logger,
		from:     opts.From,
		to:       opts.To,
		settle:   opts.SettleDelay,
		tables:   tables,
		rows:     make(map[string]Row),
		state:    StateIdle,
		onUpdate: opts.OnUpdate,
	}
	if err := c.Reconcile(ctx); err != nil {
		return nil, err
	}
	c.setState(StateIdle)
	return c, nil
}

// Do 执行一次变更：乐观应用 → 提交 → 校验/和解
// 返回错误仅表示整体重拉也失败（持久性故障）；单纯的校验失败
// 由重拉透明解决，不作为错误浮出。
func (c *Cache) Do(ctx context.Context, m Mutation) error {
	if m.Submit == nil {
		return ErrEmptyMutation
	}

	c.ApplyOptimistic(m)

	if err := c.submit(ctx, m); err != nil {
		// 写请求本身失败 → 不等待，直接进入失败和解
		c.logger.Warn("权威写失败，进入整体和解", zap.Error(err))
		c.setState(StateVerificationFailed)
		return c.Reconcile(ctx)
	}

	// 固定等待期：让并发写入与派生落定后再回读
	if c.settle > 0 {
		select {
		case <-time.After(c.settle):
		case <-ctx.Done():
			// 提交已生效但校验被放弃：状态机回到空闲，不能停在 Submitted
			c.setState(StateIdle)
			return ctx.Err()
		}
	}

	ok, err := c.Verify(ctx, m)
	if err != nil {
		c.setState(StateVerificationFailed)
		return c.Reconcile(ctx)
	}
	if !ok {
		// 乐观值已被并发写覆盖：检测到即整体重拉，不猜测谁对
		c.setState(StateVerificationFailed)
		return c.Reconcile(ctx)
	}

	c.setState(StateVerified)
	c.setState(StateIdle)
	return nil
}

// ApplyOptimistic 同步修改本地缓存（网络往返之前视图即可重绘）
func (c *Cache) ApplyOptimistic(m Mutation) {
	c.mu.Lock()
	for _, key := range m.DeleteKeys {
		delete(c.rows, key)
	}
	for _, row := range m.Upserts {
		c.rows[row.Key()] = row
	}
	c.state = StateOptimisticallyApplied
	c.mu.Unlock()
	c.notify()
}

func (c *Cache) submit(ctx context.Context, m Mutation) error {
	c.setState(StateSubmitted)
	return m.Submit(ctx)
}

// Verify 回读权威存储，比对本次变更涉及的键
// 写入往返成功不代表乐观值仍然正确——期间可能被并发写合法覆盖
func (c *Cache) Verify(ctx context.Context, m Mutation) (bool, error) {
	authoritative, err := c.fetcher.FetchScope(ctx, c.from, c.to)
	if err != nil {
		return false, err
	}
	byKey := make(map[string]Row, len(authoritative))
	for _, row := range authoritative {
		byKey[row.Key()] = row
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, row := range m.Upserts {
		got, exists := byKey[row.Key()]
		if !exists || got != row {
			return false, nil
		}
	}
	for _, key := range m.DeleteKeys {
		if _, exists := byKey[key]; exists {
			return false, nil
		}
	}
	return true, nil
}

// Reconcile 整体重拉并替换缓存（"信任服务端"，不是合并）
func (c *Cache) Reconcile(ctx context.Context) error {
	authoritative, err := c.fetcher.FetchScope(ctx, c.from, c.to)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.rows = make(map[string]Row, len(authoritative))
	for _, row := range authoritative {
		c.rows[row.Key()] = row
	}
	c.state = StateIdle
	c.mu.Unlock()
	c.notify()
	return nil
}

// Run 常驻订阅循环：命中过滤器的任何事件都触发整体重拉。
// 事件载荷不参与决策——小范围场景下用带宽换简单性。
// ctx 取消时退出。
func (c *Cache) Run(ctx context.Context) error {
	events, cancel, err := c.feed.Subscribe(ctx, feed.Filter{
		Tables: c.tables,
		From:   c.from,
		To:     c.to,
	})
	if err != nil {
		return err
	}
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := c.Reconcile(ctx); err != nil {
				// 单次重拉失败不退出循环；持久故障由上层告警
				c.logger.Warn("通知触发的和解失败",
					zap.String("table", ev.Table),
					zap.String("date", ev.Date),
					zap.Error(err),
				)
			}
		}
	}
}

// Rows 当前缓存内容（稳定排序）
func (c *Cache) Rows() []Row {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Row, 0, len(c.rows))
	for _, row := range c.rows {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

// State 当前状态机状态
func (c *Cache) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Cache) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Cache) notify() {
	if c.onUpdate != nil {
		c.onUpdate(c.Rows())
	}
}
