package moderation

import (
	"mime"
	"path/filepath"
	"strings"
)

// Kind 表示被审核对象的媒体类别。
type Kind int

const (
	KindUnknown Kind = iota
	KindImage
	KindVideo
)

// String 返回类别名称。
func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindVideo:
		return "video"
	default:
		return "unknown"
	}
}

// 声明的 Content-Type 缺失或为通用类型时，退回扩展名表。
var extensionKinds = map[string]Kind{
	".jpg":  KindImage,
	".jpeg": KindImage,
	".png":  KindImage,
	".gif":  KindImage,
	".webp": KindImage,
	".bmp":  KindImage,
	".mp4":  KindVideo,
	".mov":  KindVideo,
	".avi":  KindVideo,
	".mkv":  KindVideo,
	".webm": KindVideo,
	".m4v":  KindVideo,
	".mpeg": KindVideo,
	".mpg":  KindVideo,
}

// DetectKind 推断媒体类别：优先声明的 Content-Type，其次原始文件名扩展名。
func DetectKind(contentType, filename string) Kind {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if ct != "" {
		if mediaType, _, err := mime.ParseMediaType(ct); err == nil {
			ct = mediaType
		}
		switch {
		case strings.HasPrefix(ct, "image/"):
			return KindImage
		case strings.HasPrefix(ct, "video/"):
			return KindVideo
		}
	}

	if kind, ok := extensionKinds[strings.ToLower(filepath.Ext(filename))]; ok {
		return kind
	}
	return KindUnknown
}
