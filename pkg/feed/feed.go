package feed

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ── 变更通知事件 ──────────────────────────────────────────────
//
// 每次指派数据落库后向订阅方广播一条事件。事件只承载"哪张表、
// 哪一天变了"这一级别的信息：订阅方按 表名+日期范围 过滤，命中
// 即整体重新拉取所属范围，而不是按字段打补丁。staff/team/booking
// 标识仅用于日志排查。
// ─────────────────────────────────────────────────────────────

// 事件涉及的表名常量
const (
	TableTeamAssignments     = "team_assignments"
	TableBookingAssignments  = "booking_assignments"
	TableCalendarOccupancies = "calendar_occupancies"
)

// DateLayout 事件日期格式
const DateLayout = "2006-01-02"

// Event 变更通知事件
type Event struct {
	ID        string    `json:"id"`
	Table     string    `json:"table"`
	Date      string    `json:"date"` // YYYY-MM-DD
	StaffID   string    `json:"staff_id,omitempty"`
	TeamID    string    `json:"team_id,omitempty"`
	BookingID string    `json:"booking_id,omitempty"`
	EmittedAt time.Time `json:"emitted_at"`
}

// NewEvent 创建带 ID 与时间戳的事件
func NewEvent(table string, date time.Time) Event {
	return Event{
		ID:        uuid.New().String(),
		Table:     table,
		Date:      date.Format(DateLayout),
		EmittedAt: time.Now(),
	}
}

// NewCrossDateEvent 创建不带日期的事件：变更横跨多天（如预订取消
// 的级联清理），任何日期过滤器都会命中，订阅方整体重新拉取
func NewCrossDateEvent(table string) Event {
	return Event{
		ID:        uuid.New().String(),
		Table:     table,
		EmittedAt: time.Now(),
	}
}

// Filter 订阅过滤器：表名集合 + 日期闭区间
// Tables 为空表示订阅全部表；From/To 为零值表示不限日期
type Filter struct {
	Tables []string
	From   time.Time
	To     time.Time
}

// Matches 判断事件是否命中过滤器
func (f Filter) Matches(ev Event) bool {
	if len(f.Tables) > 0 {
		found := false
		for _, t := range f.Tables {
			if t == ev.Table {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if f.From.IsZero() && f.To.IsZero() {
		return true
	}
	d, err := time.Parse(DateLayout, ev.Date)
	if err != nil {
		// 日期无法解析时保守放行，让订阅方自行重新拉取
		return true
	}
	if !f.From.IsZero() && d.Before(truncateDay(f.From)) {
		return false
	}
	if !f.To.IsZero() && d.After(truncateDay(f.To)) {
		return false
	}
	return true
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Publisher 事件发布端
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Subscriber 事件订阅端
// 返回的取消函数负责注销订阅并关闭事件通道
type Subscriber interface {
	Subscribe(ctx context.Context, f Filter) (<-chan Event, func(), error)
}

// Feed 发布+订阅的组合接口
type Feed interface {
	Publisher
	Subscriber
}
