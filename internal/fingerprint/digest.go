// Package fingerprint 提供基于 BLAKE3 的流式内容指纹，仅用于重复内容判定。
package fingerprint

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/zeebo/blake3"
)

// Size 为指纹字节长度（128 位）。指纹只参与相等性比较，不承担完整性校验。
const Size = 16

// Digest 表示一次全量读取后得到的内容指纹。
type Digest [Size]byte

// String 返回小写十六进制表示，是账本与日志使用的规范格式。
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// IsZero 判断指纹是否未赋值。
func (d Digest) IsZero() bool {
	return d == Digest{}
}

// Compute 流式读取 r 直至 EOF，返回内容指纹与实际读取的字节数。
// 读取中断时返回包装后的错误，调用方据此判定源对象不可读。
func Compute(r io.Reader) (Digest, int64, error) {
	h := blake3.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return Digest{}, n, fmt.Errorf("fingerprint: read content: %w", err)
	}
	var d Digest
	if _, err := io.ReadFull(h.Digest(), d[:]); err != nil {
		return Digest{}, n, fmt.Errorf("fingerprint: finalize digest: %w", err)
	}
	return d, n, nil
}

// Parse 将规范十六进制字符串还原为 Digest，供测试与运维工具使用。
func Parse(s string) (Digest, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Digest{}, fmt.Errorf("fingerprint: decode hex: %w", err)
	}
	if len(raw) != Size {
		return Digest{}, fmt.Errorf("fingerprint: digest is %d bytes, want %d", len(raw), Size)
	}
	var d Digest
	copy(d[:], raw)
	return d, nil
}
