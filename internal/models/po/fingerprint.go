package po

import "time"

// FingerprintRecord 描述 moderation.fingerprints 表中的一条去重账本条目。
// fingerprint 为主键，first_seen 固定为首次写入时间（first-write-wins）。
type FingerprintRecord struct {
	Fingerprint string
	FirstSeen   time.Time
}
