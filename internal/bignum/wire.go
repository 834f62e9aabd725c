package bignum

import (
	"bytes"
	"encoding/json"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// WireType ethers序列化大整数时使用的类型标记
const WireType = "BigNumber"

// Wire 后端返回的大整数包装 {type, hex}
type Wire struct {
	Type string `json:"type"`
	Hex  string `json:"hex"`
}

// UnmarshalJSON 兼容对象、字符串和JSON数字三种写法。
// 无法识别的值不会报错，而是解码为空值，由调用方显示占位符。
func (w *Wire) UnmarshalJSON(data []byte) error {
	*w = Wire{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	switch data[0] {
	case '{':
		var obj struct {
			Type string `json:"type"`
			Hex  string `json:"hex"`
		}
		if err := json.Unmarshal(data, &obj); err == nil {
			w.Type, w.Hex = obj.Type, obj.Hex
		}
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			break
		}
		// 与 BigNumber.from 一致：带 0x 前缀按十六进制，否则按十进制
		s = strings.TrimSpace(s)
		if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
			w.Hex = s
		} else if n := ParseDecimal(s); n.Valid() {
			w.Type = WireType
			w.Hex = n.Hex()
		}
	default:
		if n, ok := new(big.Int).SetString(string(data), 10); ok && n.Sign() >= 0 {
			w.Type = WireType
			w.Hex = hexutil.EncodeBig(n)
		}
	}
	return nil
}

// IsZero 是否为空值
func (w Wire) IsZero() bool {
	return strings.TrimSpace(w.Hex) == ""
}

// NewWire 由整数构造线上格式
func NewWire(i Int) Wire {
	if !i.Valid() {
		return Wire{}
	}
	return Wire{Type: WireType, Hex: i.Hex()}
}
