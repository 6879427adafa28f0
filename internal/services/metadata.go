package services

import (
	"path"
	"strings"
	"unicode"
)

// maxFilenameLen 限制清洗后文件名参与对象键的长度。
const maxFilenameLen = 128

// SanitizeMetadata 将投稿元数据收敛为可进入头部通道的形态：
// 键折叠为小写字母数字与连字符/下划线并截断，值剥离控制字符后截断。
// 只截断，从不拒绝；清洗后为空的键被丢弃。
func SanitizeMetadata(metadata map[string]string, keyMaxLen, valueMaxLen int) map[string]string {
	if len(metadata) == 0 {
		return nil
	}
	out := make(map[string]string, len(metadata))
	for key, value := range metadata {
		cleanKey := sanitizeMetadataKey(key, keyMaxLen)
		if cleanKey == "" {
			continue
		}
		out[cleanKey] = sanitizeMetadataValue(value, valueMaxLen)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func sanitizeMetadataKey(key string, maxLen int) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(key)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	return truncateRunes(b.String(), maxLen)
}

func sanitizeMetadataValue(value string, maxLen int) string {
	var b strings.Builder
	for _, r := range value {
		if unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
	}
	return truncateRunes(strings.TrimSpace(b.String()), maxLen)
}

func truncateRunes(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen])
}

// SanitizeFilename 将原始文件名收敛为可作为对象键片段的形态：
// 丢弃路径部分，非 [A-Za-z0-9.-] 的字符段折叠为单个下划线，剥离前导点。
// 清洗后为空时回退为 "upload"。
func SanitizeFilename(name string) string {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if base == "." || base == "/" {
		return "upload"
	}

	var b strings.Builder
	pendingUnderscore := false
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
			if pendingUnderscore && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingUnderscore = false
			b.WriteRune(r)
		default:
			pendingUnderscore = true
		}
	}

	clean := strings.TrimLeft(b.String(), ".")
	clean = truncateRunes(clean, maxFilenameLen)
	if clean == "" {
		return "upload"
	}
	return clean
}
