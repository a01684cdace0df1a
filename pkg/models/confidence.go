package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Confidence expresses how certain the resolver is that a reference binds
// to a particular definition. Values are ordered: Unknown < Low < Medium < High.
type Confidence int

const (
	ConfidenceUnknown Confidence = iota
	ConfidenceLow
	ConfidenceMedium
	ConfidenceHigh
)

// String returns the lowercase name of the confidence level.
func (c Confidence) String() string {
	switch c {
	case ConfidenceHigh:
		return "high"
	case ConfidenceMedium:
		return "medium"
	case ConfidenceLow:
		return "low"
	default:
		return "unknown"
	}
}

// ParseConfidence converts a string to a Confidence level. Unrecognized
// values return an error rather than silently dropping to Unknown.
func ParseConfidence(s string) (Confidence, error) {
	switch strings.ToLower(s) {
	case "high":
		return ConfidenceHigh, nil
	case "medium", "med":
		return ConfidenceMedium, nil
	case "low":
		return ConfidenceLow, nil
	case "unknown", "":
		return ConfidenceUnknown, nil
	default:
		return ConfidenceUnknown, fmt.Errorf("invalid confidence %q (want low, medium, or high)", s)
	}
}

// Min returns the lower of two confidence levels. Chained import traversals
// combine edge confidences with Min so a chain is only as strong as its
// weakest link.
func (c Confidence) Min(other Confidence) Confidence {
	if other < c {
		return other
	}
	return c
}

// Max returns the higher of two confidence levels.
func (c Confidence) Max(other Confidence) Confidence {
	if other > c {
		return other
	}
	return c
}

// AtLeast reports whether c meets the given threshold.
func (c Confidence) AtLeast(min Confidence) bool {
	return c >= min
}

// MarshalJSON serializes the confidence as its string name.
func (c Confidence) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON parses a confidence from its string name.
func (c *Confidence) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("confidence must be a string: %w", err)
	}
	conf, err := ParseConfidence(s)
	if err != nil {
		return err
	}
	*c = conf
	return nil
}
