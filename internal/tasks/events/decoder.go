// Package events implements the OBJECT_FINALIZE trigger for the moderation pipeline.
package events

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// Notification 表示从 GCS OBJECT_FINALIZE 消息中解析出的关键信息。
type Notification struct {
	Bucket      string
	ObjectName  string
	Generation  string
	SizeBytes   int64
	ContentType string
	Metadata    map[string]string
}

type gcsObjectMessage struct {
	Bucket      string            `json:"bucket"`
	Name        string            `json:"name"`
	Generation  string            `json:"generation"`
	Size        string            `json:"size"`
	ContentType string            `json:"contentType"`
	Metadata    map[string]string `json:"metadata"`
}

type notificationDecoder struct{}

func newDecoder() *notificationDecoder {
	return &notificationDecoder{}
}

// Decode 将 Pub/Sub 消息数据解析为 Notification。
func (d *notificationDecoder) Decode(data []byte) (*Notification, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("events: empty payload")
	}

	var msg gcsObjectMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("events: decode gcs object payload: %w", err)
	}

	if msg.Bucket == "" || msg.Name == "" {
		return nil, fmt.Errorf("events: missing bucket or object name")
	}

	// 对象名中的转义字符需要还原，否则与暂存键对不上。
	name := msg.Name
	if decoded, err := url.PathUnescape(name); err == nil {
		name = decoded
	}

	var size int64
	if msg.Size != "" {
		parsed, err := strconv.ParseInt(msg.Size, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("events: parse size: %w", err)
		}
		size = parsed
	}

	return &Notification{
		Bucket:      msg.Bucket,
		ObjectName:  name,
		Generation:  msg.Generation,
		SizeBytes:   size,
		ContentType: msg.ContentType,
		Metadata:    msg.Metadata,
	}, nil
}
