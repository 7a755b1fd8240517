package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// 支持的日期格式：RFC 3339 (可带毫秒，例如 2024-12-14T14:48:00.000Z)、无时区时间、纯日期
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDate 解析 ISO-8601 日期字符串，无时区信息时按 UTC 处理
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse date %q: unsupported format", s)
}

// FormatDate 以 JavaScript toISOString 的格式输出 (毫秒精度，UTC)
func FormatDate(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

// NewID 生成新的记录/车辆 ID
func NewID() string {
	return uuid.NewString()
}
