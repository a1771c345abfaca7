package review

import "strings"

// DefaultFileBaseURL 文件存储默认地址
const DefaultFileBaseURL = "http://localhost:5000"

// ResolveFileURL 将相对路径解析为完整地址,http 与 blob: 地址原样返回
func ResolveFileURL(base, raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "http") || strings.HasPrefix(raw, "blob:") {
		return raw
	}
	if base == "" {
		base = DefaultFileBaseURL
	}
	base = strings.TrimRight(base, "/")
	if !strings.HasPrefix(raw, "/") {
		raw = "/" + raw
	}
	return base + raw
}
