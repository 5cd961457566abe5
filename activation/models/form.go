package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxExponent bounds the decimal exponent accepted from a form. Larger
// exponents expand to enormous digit strings when rendered.
const MaxExponent = 20

var errFormValueType = errors.New("form value must be a string, a number or a boolean")

type formKind uint8

const (
	kindString formKind = iota
	kindNumber
	kindBool
)

// FormValue is a scalar form field that browsers may post either as a JSON
// string, number or boolean. Set is false when the field is absent or null.
type FormValue struct {
	Text string
	Set  bool

	kind formKind
}

// FormText returns a set FormValue holding s.
func FormText(s string) FormValue {
	return FormValue{Text: s, Set: true}
}

// FormBool returns a set FormValue holding a JSON boolean.
func FormBool(b bool) FormValue {
	text := "false"
	if b {
		text = "true"
	}
	return FormValue{Text: text, Set: true, kind: kindBool}
}

func (v *FormValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = FormValue{}
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = FormText(s)
		return nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = FormBool(b)
		return nil
	case '{', '[':
		return errFormValueType
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*v = FormValue{Text: n.String(), Set: true, kind: kindNumber}
	return nil
}

func (v FormValue) MarshalJSON() ([]byte, error) {
	if !v.Set {
		return []byte("null"), nil
	}
	switch v.kind {
	case kindBool, kindNumber:
		return []byte(v.Text), nil
	}
	return json.Marshal(v.Text)
}

// Present reports whether the field carries a non-empty value.
func (v FormValue) Present() bool {
	return v.Set && v.Text != ""
}

// Truthy reports whether the value counts as a yes: false, zero, an empty
// string and the strings "false" and "0" do not.
func (v FormValue) Truthy() bool {
	if !v.Set {
		return false
	}
	switch v.kind {
	case kindBool:
		return v.Text == "true"
	case kindNumber:
		f, _ := strconv.ParseFloat(v.Text, 64)
		return f != 0
	}
	switch strings.ToLower(strings.TrimSpace(v.Text)) {
	case "", "false", "0":
		return false
	}
	return true
}

// Int parses the value as an integer. Integer-valued decimals such as
// "100.0" or "1e3" are accepted.
func (v FormValue) Int() (int, bool) {
	d, ok := v.Decimal()
	if !ok || !d.IsInteger() {
		return 0, false
	}
	// keeps IntPart within int range on every platform
	if d.Abs().GreaterThan(decimal.New(1, 9)) {
		return 0, false
	}
	return int(d.IntPart()), true
}

// Decimal parses the value as a decimal number. Booleans and values whose
// exponent lies outside ±MaxExponent are rejected.
func (v FormValue) Decimal() (decimal.Decimal, bool) {
	if v.kind == kindBool {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(strings.TrimSpace(v.Text))
	if err != nil {
		return decimal.Zero, false
	}
	if exp := d.Exponent(); exp > MaxExponent || exp < -MaxExponent {
		return decimal.Zero, false
	}
	return d, true
}
