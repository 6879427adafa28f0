package moderation_test

import (
	"testing"

	"github.com/bionicotaku/lingo-services-moderation/internal/moderation"
)

func TestDetectKind(t *testing.T) {
	cases := []struct {
		name        string
		contentType string
		filename    string
		want        moderation.Kind
	}{
		{"image content type", "image/jpeg", "photo.jpg", moderation.KindImage},
		{"video content type", "video/mp4", "clip.mp4", moderation.KindVideo},
		{"content type with params", "video/webm; codecs=vp9", "clip.webm", moderation.KindVideo},
		{"content type beats extension", "image/png", "misnamed.mp4", moderation.KindImage},
		{"generic type falls back to extension", "application/octet-stream", "clip.MOV", moderation.KindVideo},
		{"missing type falls back to extension", "", "photo.JPEG", moderation.KindImage},
		{"unknown extension", "application/octet-stream", "archive.zip", moderation.KindUnknown},
		{"no hints", "", "", moderation.KindUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := moderation.DetectKind(tc.contentType, tc.filename); got != tc.want {
				t.Fatalf("DetectKind(%q, %q) = %s, want %s", tc.contentType, tc.filename, got, tc.want)
			}
		})
	}
}
