package bignum

import (
	"encoding/json"
	"math/big"
	"testing"
	"time"
)

func TestParseHexCasingAndLeadingZeros(t *testing.T) {
	variants := []string{"0x14", "0X14", "0x0014", "14", "0x000000014"}
	want := ParseHex("0x14")
	if got := want.String(); got != "20" {
		t.Fatalf("0x14 should decode to 20, got %s", got)
	}
	for _, v := range variants {
		if got := ParseHex(v); !got.Equal(want) {
			t.Errorf("%q decoded to %s, want %s", v, got, want)
		}
	}
	if !ParseHex("0xAbCd").Equal(ParseHex("0xabcd")) {
		t.Errorf("hex casing must not change the decoded value")
	}
}

func TestParseHexDeterministic(t *testing.T) {
	for _, h := range []string{"0x0", "0x01", "0xff", "0xdeadbeefcafebabe1234"} {
		if ParseHex(h).String() != ParseHex(h).String() {
			t.Errorf("decoding %q twice gave different results", h)
		}
	}
}

func TestParseHexInvalid(t *testing.T) {
	for _, h := range []string{"", "   ", "0x", "0xzz", "hello", "0x-5"} {
		got := ParseHex(h)
		if got.Valid() {
			t.Errorf("%q should be invalid, got %s", h, got)
		}
		if got.String() != NotAvailable {
			t.Errorf("%q should render as %s, got %s", h, NotAvailable, got.String())
		}
	}
}

func TestParseHex256Bits(t *testing.T) {
	max := "0x" + repeat("f", 64)
	got := ParseHex(max)
	if !got.Valid() {
		t.Fatalf("2^256-1 must decode")
	}
	want := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	if got.Big().Cmp(want) != 0 {
		t.Errorf("2^256-1 decoded to %s", got)
	}

	if ParseHex("0x1" + repeat("0", 64)).Valid() {
		t.Errorf("values wider than 256 bits should be rejected")
	}
}

func TestDecodeNilWire(t *testing.T) {
	if Decode(nil).Valid() {
		t.Errorf("nil wire must be not available")
	}
	if got := Decode(&Wire{Type: WireType, Hex: "0x0a"}).String(); got != "10" {
		t.Errorf("expected 10, got %s", got)
	}
}

func TestCmpInvalidSortsLowest(t *testing.T) {
	invalid := Int{}
	zero := FromUint64(0)
	one := FromUint64(1)

	if invalid.Cmp(zero) != -1 || zero.Cmp(invalid) != 1 {
		t.Errorf("invalid should compare lower than zero")
	}
	if invalid.Cmp(Int{}) != 0 {
		t.Errorf("two invalid values should compare equal")
	}
	if one.Cmp(zero) != 1 {
		t.Errorf("1 should be greater than 0")
	}
}

func TestFormatDateTimeInvalid(t *testing.T) {
	f := DateFormat{Location: time.UTC, Layout: time.RFC3339}
	for _, h := range []string{"", "0x", "0x00", "0x0", "nothex", "0x" + repeat("f", 40)} {
		if got := FormatDateTime(h, f); got != InvalidDate {
			t.Errorf("FormatDateTime(%q) = %q, want %q", h, got, InvalidDate)
		}
	}
	if got := f.Format(Int{}); got != InvalidDate {
		t.Errorf("absent timestamp should render %q, got %q", InvalidDate, got)
	}
}

func TestFormatDateTimeValid(t *testing.T) {
	f := DateFormat{Location: time.UTC, Layout: time.RFC3339}
	// 0x65a0bc00 = 1705032704
	if got := FormatDateTime("0x65a0bc00", f); got != "2024-01-12T04:11:44Z" {
		t.Errorf("unexpected formatted date %q", got)
	}
}

func TestWireUnmarshalShapes(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"object", `{"type":"BigNumber","hex":"0x0a"}`, "10"},
		{"hex string", `"0x0a"`, "10"},
		{"decimal string", `"10"`, "10"},
		{"hex letters without prefix", `"ff"`, NotAvailable},
		{"number", `10`, "10"},
		{"null", `null`, NotAvailable},
		{"bool", `true`, NotAvailable},
		{"negative", `-3`, NotAvailable},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var w Wire
			if err := json.Unmarshal([]byte(c.in), &w); err != nil {
				t.Fatalf("unmarshal should never fail, got %v", err)
			}
			if got := Decode(&w).String(); got != c.want {
				t.Errorf("got %s, want %s", got, c.want)
			}
		})
	}
}

func TestNewWireRoundTrip(t *testing.T) {
	i := ParseDecimal("12020")
	w := NewWire(i)
	if w.Hex != "0x2ef4" {
		t.Errorf("unexpected hex %s", w.Hex)
	}
	if !Decode(&w).Equal(i) {
		t.Errorf("wire round trip changed the value")
	}
	if !NewWire(Int{}).IsZero() {
		t.Errorf("invalid int should produce an empty wire")
	}
}

func repeat(s string, n int) string {
	out := make([]byte, 0, len(s)*n)
	for i := 0; i < n; i++ {
		out = append(out, s...)
	}
	return string(out)
}
