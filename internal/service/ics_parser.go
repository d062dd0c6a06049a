package service

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"crewboard/backend/internal/model"
)

// ── ICS 解析器 ──────────────────────────────────────────────
//
// 职责：将 iCalendar (RFC 5545) 内容解析为按天展开的占用条目。
// 一个 VEVENT 跨多天时展开为多条（装车日到卸车日每天一条占用）。
// ─────────────────────────────────────────────────────────────

const (
	icsMaxFileSize  = 5 * 1024 * 1024 // 5MB
	icsFetchTimeout = 30 * time.Second
	// icsMaxSpanDays 单个事件最长展开天数，超出视为数据异常
	icsMaxSpanDays = 31
)

// parsedOccupancyEvent ICS 解析中间结构
type parsedOccupancyEvent struct {
	Title string
	Dates []time.Time
}

// FetchICSContent 从 URL 获取 ICS 内容
func FetchICSContent(rawURL string) (io.ReadCloser, error) {
	// webcal:// → https://
	u := rawURL
	if strings.HasPrefix(u, "webcal://") {
		u = "https://" + strings.TrimPrefix(u, "webcal://")
	}

	client := &http.Client{Timeout: icsFetchTimeout}
	resp, err := client.Get(u)
	if err != nil {
		return nil, fmt.Errorf("获取 ICS 失败: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("获取 ICS 失败: HTTP %d", resp.StatusCode)
	}
	// 限制响应体大小，防止恶意 URL 返回超大内容导致 OOM
	return struct {
		io.Reader
		io.Closer
	}{
		Reader: io.LimitReader(resp.Body, icsMaxFileSize),
		Closer: resp.Body,
	}, nil
}

// ParseICSOccupancies 解析 ICS 内容为占用事件列表
func ParseICSOccupancies(r io.Reader) ([]parsedOccupancyEvent, error) {
	cal, err := ics.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("解析 ICS 失败: %w", err)
	}

	var events []parsedOccupancyEvent
	for _, e := range cal.Events() {
		summaryProp := e.GetProperty(ics.ComponentPropertySummary)
		if summaryProp == nil || strings.TrimSpace(summaryProp.Value) == "" {
			continue
		}
		title := strings.TrimSpace(summaryProp.Value)

		start, err := e.GetStartAt()
		if err != nil {
			continue
		}
		end, err := e.GetEndAt()
		if err != nil {
			end = start
		}

		dates := expandDays(start, end)
		if len(dates) == 0 {
			continue
		}
		events = append(events, parsedOccupancyEvent{Title: title, Dates: dates})
	}
	return events, nil
}

// expandDays 展开 [start, end] 覆盖的日期；DTEND 为独占边界时
// （次日零点）不计入最后一天
func expandDays(start, end time.Time) []time.Time {
	first := model.NormalizeDate(start)
	last := model.NormalizeDate(end)
	// 全天事件的 DTEND 指向次日零点（按钟面判断，不依赖时区）
	if end.Hour() == 0 && end.Minute() == 0 && end.Second() == 0 && last.After(first) {
		last = last.AddDate(0, 0, -1)
	}
	if last.Before(first) {
		last = first
	}

	var dates []time.Time
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
		if len(dates) >= icsMaxSpanDays {
			break
		}
	}
	return dates
}
