package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"crewboard/backend/pkg/feed"
	"crewboard/backend/pkg/response"
)

const (
	feedWriteWait  = 10 * time.Second
	feedPingPeriod = 30 * time.Second
)

// FeedHandler 变更通知订阅 HTTP 处理器（WebSocket 桥接）
type FeedHandler struct {
	sub      feed.Subscriber
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewFeedHandler 创建 FeedHandler
func NewFeedHandler(sub feed.Subscriber, logger *zap.Logger) *FeedHandler {
	return &FeedHandler{
		sub:    sub,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// 跨域已由 CORS 中间件约束，握手阶段不再重复校验
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Subscribe 订阅变更通知
// GET /api/v1/feed?tables=a,b&from=YYYY-MM-DD&to=YYYY-MM-DD
//
// 过滤参数均可省略：tables 为空订阅全部表，from/to 为空不限日期。
// 事件只携带 表名+日期（加少量定位字段），不携带变更内容——
// 客户端收到任何命中事件后应整体重拉。
func (h *FeedHandler) Subscribe(c *gin.Context) {
	filter, ok := h.parseFilter(c)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade 失败时 gorilla 已写入 HTTP 错误响应
		h.logger.Warn("WebSocket 升级失败", zap.Error(err))
		return
	}
	defer conn.Close()

	events, cancel, err := h.sub.Subscribe(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("订阅变更通知失败", zap.Error(err))
		return
	}
	defer cancel()

	// 读循环只为感知对端关闭，收到的帧一律丢弃
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	ticker := time.NewTicker(feedPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev, open := <-events:
			if !open {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// parseFilter 从查询参数构造订阅过滤器（全部可选）
func (h *FeedHandler) parseFilter(c *gin.Context) (feed.Filter, bool) {
	filter := feed.Filter{Tables: splitCSV(c.Query("tables"))}

	if fromStr := c.Query("from"); fromStr != "" {
		from, err := time.Parse(feed.DateLayout, fromStr)
		if err != nil {
			response.BadRequest(c, 24001, "from日期格式无效，应为 YYYY-MM-DD")
			return feed.Filter{}, false
		}
		filter.From = from
	}
	if toStr := c.Query("to"); toStr != "" {
		to, err := time.Parse(feed.DateLayout, toStr)
		if err != nil {
			response.BadRequest(c, 24001, "to日期格式无效，应为 YYYY-MM-DD")
			return feed.Filter{}, false
		}
		filter.To = to
	}

	return filter, true
}
