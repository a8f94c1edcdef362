package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// ResultRecord is the one append-only log entry produced per invocation.
// Field names in the JSON encoding are fixed by the deployed dashboard
// parser ("lat", not "latency") and must not change.
type ResultRecord struct {
	Timestamp time.Time `json:"ts"`
	Status    Status    `json:"status"`
	Reason    string    `json:"reason"`
	RSSI      int       `json:"rssi"`
	Loss      int       `json:"loss"`
	Latency   int       `json:"lat"`
	Exit      int       `json:"exit"`
}

// Line renders the classic text encoding:
//
//	2026-01-02T15:04:05Z Result: status=OK reason=sync RSSI=-58 loss=0 latency=12 exit=0
func (r ResultRecord) Line() string {
	return fmt.Sprintf("%s Result: status=%s reason=%s RSSI=%d loss=%d latency=%d exit=%d",
		r.Timestamp.UTC().Format(time.RFC3339),
		r.Status, r.Reason, r.RSSI, r.Loss, r.Latency, r.Exit)
}

// JSONLine renders the structured encoding, one object per line.
func (r ResultRecord) JSONLine() (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("encode result record: %w", err)
	}
	return string(b), nil
}
