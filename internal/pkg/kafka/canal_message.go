package kafka

import (
	"fmt"
	"strconv"
)

// canal 事件类型
const (
	INSERT = "INSERT"
	UPDATE = "UPDATE"
	DELETE = "DELETE"
)

// CanalMessage canal 投递到 Kafka 的 binlog 变更
type CanalMessage struct {
	ID       int64    `json:"id"`
	Database string   `json:"database"`
	Table    string   `json:"table"`
	PKNames  []string `json:"pkNames"`
	IsDDL    bool     `json:"isDdl"`
	Type     string   `json:"type"`
	ES       int64    `json:"es"`
	TS       int64    `json:"ts"`

	// canal 的 flatMessage 中所有列值都是字符串或 null
	Data []map[string]any `json:"data"`
	Old  []map[string]any `json:"old"`
}

// StrToUint64 解析 canal 列值，null 或非法值返回 0
func StrToUint64(v any) uint64 {
	switch val := v.(type) {
	case string:
		n, err := strconv.ParseUint(val, 10, 64)
		if err != nil {
			return 0
		}
		return n
	case float64:
		if val < 0 {
			return 0
		}
		return uint64(val)
	case nil:
		return 0
	default:
		n, _ := strconv.ParseUint(fmt.Sprint(val), 10, 64)
		return n
	}
}

func StrToString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case nil:
		return ""
	default:
		return fmt.Sprint(val)
	}
}

// StrToBool canal 中 tinyint(1) 以 "0"/"1" 表示
func StrToBool(v any) bool {
	s := StrToString(v)
	return s == "1" || s == "true"
}
