package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

var ErrNotNumeric = errors.New("value is not numeric")

// Number holds a JSON number or a numeric string as sent by form-driven
// clients. An absent field decodes to the empty Number.
type Number string

func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*n = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			return ErrNotNumeric
		}
		*n = Number(s)
		return nil
	}
	var f json.Number
	if err := json.Unmarshal(b, &f); err != nil {
		return ErrNotNumeric
	}
	*n = Number(f.String())
	return nil
}

// Int returns the value truncated toward zero, like int() on a float.
func (n Number) Int() (int, error) {
	if n == "" {
		return 0, ErrNotNumeric
	}
	if v, err := strconv.Atoi(string(n)); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil {
		return 0, ErrNotNumeric
	}
	return int(f), nil
}
