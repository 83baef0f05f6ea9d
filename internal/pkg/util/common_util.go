package util

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// @ 前不能紧跟字母数字，避免把邮箱当作提及；昵称不能以 - 开头
var mentionRegex = regexp.MustCompile(`(?:^|[^\p{L}\p{N}_])@([\p{L}\p{N}_][\p{L}\p{N}_-]*)`)

// ExtractMentions 提取去重后的 @昵称 列表，保持出现顺序
func ExtractMentions(rawContent string) []string {
	matches := mentionRegex.FindAllStringSubmatch(rawContent, -1)

	nameSet := make(map[string]struct{})
	var names []string

	for _, m := range matches {
		if len(m) < 2 {
			continue
		}
		name := m[1]
		if _, exists := nameSet[name]; !exists {
			nameSet[name] = struct{}{}
			names = append(names, name)
		}
	}

	return names
}

// TruncateRunes 按字符截断，超出时追加省略号
func TruncateRunes(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + "…"
}
