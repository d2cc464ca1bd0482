package domain

import (
	"fmt"
	"strings"
)

// NeedMet records whether the underlying need was met. It is stored as a
// nullable boolean; NeedUnsure maps to NULL.
type NeedMet int

const (
	NeedUnsure NeedMet = iota
	NeedYes
	NeedNo
)

func (n NeedMet) String() string {
	switch n {
	case NeedYes:
		return "Yes"
	case NeedNo:
		return "No"
	default:
		return "Unsure"
	}
}

// Bool converts to the storage representation.
func (n NeedMet) Bool() *bool {
	switch n {
	case NeedYes:
		v := true
		return &v
	case NeedNo:
		v := false
		return &v
	default:
		return nil
	}
}

// NeedMetFromBool converts from the storage representation.
func NeedMetFromBool(b *bool) NeedMet {
	switch {
	case b == nil:
		return NeedUnsure
	case *b:
		return NeedYes
	default:
		return NeedNo
	}
}

// ParseNeedMet accepts "Yes", "No" or "Unsure" in any case, plus the
// shorthands y/n/? and true/false. Surrounding space is ignored.
func ParseNeedMet(s string) (NeedMet, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true":
		return NeedYes, nil
	case "no", "n", "false":
		return NeedNo, nil
	case "unsure", "?", "":
		return NeedUnsure, nil
	}
	return NeedUnsure, fmt.Errorf("invalid need-met value %q (want yes, no or unsure)", s)
}

func (n NeedMet) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

func (n *NeedMet) UnmarshalText(b []byte) error {
	v, err := ParseNeedMet(string(b))
	if err != nil {
		return err
	}
	*n = v
	return nil
}
