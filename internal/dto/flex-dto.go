package dto

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// FlexUint accepts ids that upstream tooling may send as either a JSON
// number or a quoted string ("42"). Everything downstream works with uint.
type FlexUint uint

func (f *FlexUint) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	s := strings.Trim(string(b), `"`)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return err
	}
	*f = FlexUint(v)
	return nil
}

func (f FlexUint) MarshalJSON() ([]byte, error) {
	return json.Marshal(uint(f))
}

// Ptr converts a possibly-nil FlexUint pointer to *uint.
func (f *FlexUint) Ptr() *uint {
	if f == nil {
		return nil
	}
	v := uint(*f)
	return &v
}

// FirstUint returns the first non-nil, non-zero candidate. Used to collapse
// aliased id fields (event_id / eventId / operation_id) into one value.
func FirstUint(candidates ...*uint) *uint {
	for _, c := range candidates {
		if c != nil && *c != 0 {
			return c
		}
	}
	return nil
}

func FirstString(candidates ...string) string {
	for _, c := range candidates {
		if strings.TrimSpace(c) != "" {
			return strings.TrimSpace(c)
		}
	}
	return ""
}
