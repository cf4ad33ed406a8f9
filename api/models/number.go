package models

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// FlexNumber accepts a JSON number or a numeric string. Any other value,
// including null, decodes as unset instead of failing the request.
type FlexNumber struct {
	Value float64
	Set   bool
}

func Number(v float64) FlexNumber {
	return FlexNumber{Value: v, Set: true}
}

func (n *FlexNumber) UnmarshalJSON(b []byte) error {
	*n = FlexNumber{}
	if string(b) == "null" {
		return nil
	}

	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		n.Value, n.Set = f, true
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	n.Value, n.Set = f, true
	return nil
}

func (n FlexNumber) MarshalJSON() ([]byte, error) {
	if !n.Set {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// ClampLevel maps any input into [MinLevel, MaxLevel]; unset or zero becomes MinLevel.
func ClampLevel(n FlexNumber) int {
	if !n.Set || n.Value == 0 {
		return MinLevel
	}
	return clamp(n.Value, MinLevel, MaxLevel)
}

// ClampStars maps any input into [MinStars, MaxStars]; unset becomes DefaultStars.
func ClampStars(n FlexNumber) int {
	if !n.Set {
		return DefaultStars
	}
	return clamp(n.Value, MinStars, MaxStars)
}

func clamp(v float64, lo, hi int) int {
	return int(math.Max(float64(lo), math.Min(float64(hi), v)))
}
