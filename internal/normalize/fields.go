package normalize

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/lvdashuaibi/ledgervote/internal/bignum"
	"github.com/lvdashuaibi/ledgervote/internal/model"
)

// field 字段在元组中的位置以及在对象中的候选键名，pos<0表示元组中不存在
type field struct {
	pos   int
	names []string
}

// element 单条原始记录，元组或对象二选一；两者都为空时所有字段取占位符
type element struct {
	src   model.Source
	tuple []json.RawMessage
	obj   map[string]json.RawMessage
}

func (e element) source() model.Source {
	return e.src
}

func (e element) raw(f field) json.RawMessage {
	if e.obj != nil {
		for _, name := range f.names {
			if v, ok := e.obj[name]; ok {
				return v
			}
		}
		return nil
	}
	if f.pos < 0 || f.pos >= len(e.tuple) {
		return nil
	}
	return e.tuple[f.pos]
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

func (e element) int(f field) bignum.Int {
	raw := e.raw(f)
	if isNull(raw) {
		return bignum.Int{}
	}
	var w bignum.Wire
	if err := json.Unmarshal(raw, &w); err != nil {
		return bignum.Int{}
	}
	return bignum.Decode(&w)
}

func (e element) text(f field) string {
	raw := e.raw(f)
	if isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func (e element) flag(f field) *bool {
	raw := e.raw(f)
	if isNull(raw) {
		return nil
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return &b
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true":
			b = true
			return &b
		case "false":
			return &b
		}
	}
	return nil
}

// txHash 交易哈希可能是字符串，也可能是 {type, hex}
func (e element) txHash(f field) model.TxHash {
	raw := e.raw(f)
	if isNull(raw) {
		return model.TxHash{}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return model.ParseTxHash(s)
	}
	var w bignum.Wire
	if err := json.Unmarshal(raw, &w); err != nil {
		return model.TxHash{}
	}
	return model.ParseTxHash(w.Hex)
}
