package bignum

import (
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
)

const (
	// NotAvailable 数值缺失或无法解析时的占位符
	NotAvailable = "N/A"
	// InvalidDate 时间戳缺失、为0或无法解析时的占位符
	InvalidDate = "Invalid date"

	// 9999-12-31T23:59:59Z
	maxUnixSeconds = 253402300799
)

// Int 解码后的非负大整数，零值表示"不可用"。
// 超过256位的值按无效处理。
type Int struct {
	v *big.Int
}

// Decode 解码线上大整数，nil表示字段缺失
func Decode(w *Wire) Int {
	if w == nil {
		return Int{}
	}
	return ParseHex(w.Hex)
}

// ParseHex 解析十六进制字符串，"0x"前缀可省略，大小写与前导零不影响结果
func ParseHex(s string) Int {
	s = strings.TrimSpace(s)
	if s == "" {
		return Int{}
	}
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	if len(s) == 2 {
		return Int{}
	}
	v, ok := math.ParseBig256(s)
	if !ok || v.Sign() < 0 {
		return Int{}
	}
	return Int{v: v}
}

// ParseDecimal 解析十进制字符串，用于命令行与管理接口的输入
func ParseDecimal(s string) Int {
	v, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok || v.Sign() < 0 || v.BitLen() > 256 {
		return Int{}
	}
	return Int{v: v}
}

func FromUint64(n uint64) Int {
	return Int{v: new(big.Int).SetUint64(n)}
}

func FromBig(v *big.Int) Int {
	if v == nil || v.Sign() < 0 || v.BitLen() > 256 {
		return Int{}
	}
	return Int{v: new(big.Int).Set(v)}
}

func (i Int) Valid() bool {
	return i.v != nil
}

// Big 返回副本，无效时返回nil
func (i Int) Big() *big.Int {
	if i.v == nil {
		return nil
	}
	return new(big.Int).Set(i.v)
}

// String 十进制表示，无效时为 N/A
func (i Int) String() string {
	if i.v == nil {
		return NotAvailable
	}
	return i.v.String()
}

// Hex 规范化的0x十六进制表示，无效时为空串
func (i Int) Hex() string {
	if i.v == nil {
		return ""
	}
	return hexutil.EncodeBig(i.v)
}

// Cmp 比较大小，无效值小于任何有效值
func (i Int) Cmp(j Int) int {
	switch {
	case i.v == nil && j.v == nil:
		return 0
	case i.v == nil:
		return -1
	case j.v == nil:
		return 1
	}
	return i.v.Cmp(j.v)
}

func (i Int) Equal(j Int) bool {
	return i.Cmp(j) == 0
}

// IsZero 有效且等于0
func (i Int) IsZero() bool {
	return i.v != nil && i.v.Sign() == 0
}

// Uint64 超出范围或无效时ok为false
func (i Int) Uint64() (uint64, bool) {
	if i.v == nil || !i.v.IsUint64() {
		return 0, false
	}
	return i.v.Uint64(), true
}

// Time 将值视为unix秒。0、无效或超出可表示范围时ok为false
func (i Int) Time() (time.Time, bool) {
	if i.v == nil || i.v.Sign() == 0 || !i.v.IsInt64() {
		return time.Time{}, false
	}
	secs := i.v.Int64()
	if secs > maxUnixSeconds {
		return time.Time{}, false
	}
	return time.Unix(secs, 0), true
}

// DateFormat 时间戳展示格式
type DateFormat struct {
	Location *time.Location
	Layout   string
}

var DefaultDateFormat = DateFormat{Location: time.Local, Layout: "2006-01-02 15:04:05"}

// Format 格式化时间戳，失败时返回 "Invalid date"，不会panic
func (f DateFormat) Format(i Int) string {
	t, ok := i.Time()
	if !ok {
		return InvalidDate
	}
	loc := f.Location
	if loc == nil {
		loc = time.Local
	}
	layout := f.Layout
	if layout == "" {
		layout = DefaultDateFormat.Layout
	}
	return t.In(loc).Format(layout)
}

// FormatDateTime 解析十六进制时间戳并格式化
func FormatDateTime(hex string, f DateFormat) string {
	return f.Format(ParseHex(hex))
}
