package handler

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"crewboard/backend/internal/model"
	"crewboard/backend/pkg/response"
)

// parseDateRange 从查询参数提取 from/to 日期范围。
// 解析失败时写入 400 响应并返回 ok=false，调用方应直接 return。
func parseDateRange(c *gin.Context) (from, to time.Time, ok bool) {
	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		response.BadRequest(c, 21001, "from/to不能为空")
		return time.Time{}, time.Time{}, false
	}

	from, err := time.Parse(model.DateLayout, fromStr)
	if err != nil {
		response.BadRequest(c, 21001, "from日期格式无效，应为 YYYY-MM-DD")
		return time.Time{}, time.Time{}, false
	}
	to, err = time.Parse(model.DateLayout, toStr)
	if err != nil {
		response.BadRequest(c, 21001, "to日期格式无效，应为 YYYY-MM-DD")
		return time.Time{}, time.Time{}, false
	}
	if to.Before(from) {
		response.BadRequest(c, 21001, "to不能早于from")
		return time.Time{}, time.Time{}, false
	}

	return model.NormalizeDate(from), model.NormalizeDate(to), true
}

// splitCSV 拆分逗号分隔的查询参数，忽略空项
func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
