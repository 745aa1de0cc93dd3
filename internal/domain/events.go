package domain

import (
	"encoding/json"
	"fmt"
)

// Severity tags a user-facing alert.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Alert is a pre-formatted notification payload from the push channel.
type Alert struct {
	Message  string   `json:"message"`
	Severity Severity `json:"type"`
}

// DecodeOrderSnapshot parses a whole-order snapshot from the push
// channel and normalizes it.
func DecodeOrderSnapshot(body []byte) (Order, error) {
	var o Order
	if err := json.Unmarshal(body, &o); err != nil {
		return Order{}, fmt.Errorf("decode order snapshot: %w", err)
	}
	o.Normalize()
	return o, nil
}

// DecodeAlert parses a notification payload. A missing severity
// defaults to informational.
func DecodeAlert(body []byte) (Alert, error) {
	var a Alert
	if err := json.Unmarshal(body, &a); err != nil {
		return Alert{}, fmt.Errorf("decode alert: %w", err)
	}
	if a.Severity == "" {
		a.Severity = SeverityInfo
	}
	return a, nil
}
