// Package webhook turns gateway notifications into guarded status
// transitions on local payments.
package webhook

import (
	"bytes"
	"encoding/json"
	"math/big"
	"strings"

	"github.com/spf13/cast"
)

type ReportedStatus string

const (
	ReportedApproved ReportedStatus = "APPROVED"
	ReportedRejected ReportedStatus = "REJECTED"
	ReportedPending  ReportedStatus = "PENDING"
)

// Notification is a well-formed delivery. ExternalID is the payment id the
// gateway echoes back as external reference.
type Notification struct {
	NotificationID string
	Topic          string
	ExternalID     string
	ReportedStatus ReportedStatus
	LiveMode       bool
}

type Malformed struct {
	Reason string
}

// Parsed holds exactly one of Notification or Malformed.
type Parsed struct {
	Notification *Notification
	Malformed    *Malformed
}

func (p Parsed) Valid() bool {
	return p.Notification != nil
}

type rawNotification struct {
	ID       any    `json:"id"`
	Topic    string `json:"topic"`
	Type     string `json:"type"`
	Action   string `json:"action"`
	LiveMode any    `json:"live_mode"`
	Data     struct {
		ID     any    `json:"id"`
		Status string `json:"status"`
	} `json:"data"`
}

func malformed(reason string) Parsed {
	return Parsed{Malformed: &Malformed{Reason: reason}}
}

func ParseNotification(body []byte) Parsed {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raw rawNotification
	if err := dec.Decode(&raw); err != nil {
		return malformed("body is not a JSON object: " + err.Error())
	}

	topic := strings.TrimSpace(raw.Topic)
	if topic == "" {
		topic = strings.TrimSpace(raw.Type)
	}
	if topic == "" {
		return malformed("missing topic")
	}

	externalID, ok := identifier(raw.Data.ID)
	if !ok {
		return malformed("data.id is neither string nor number")
	}
	if externalID == "" {
		return malformed("missing data.id")
	}

	notificationID, _ := identifier(raw.ID)

	return Parsed{Notification: &Notification{
		NotificationID: notificationID,
		Topic:          topic,
		ExternalID:     externalID,
		ReportedStatus: reportedStatus(raw.Data.Status, raw.Action),
		LiveMode:       cast.ToBool(raw.LiveMode),
	}}
}

// identifier accepts a JSON string or an integer kept as its exact digits.
// An absent value is ("", true).
func identifier(v any) (string, bool) {
	switch id := v.(type) {
	case nil:
		return "", true
	case string:
		return strings.TrimSpace(id), true
	case json.Number:
		if _, ok := new(big.Int).SetString(id.String(), 10); !ok {
			return "", false
		}
		return id.String(), true
	}
	return "", false
}

// reportedStatus prefers data.status and falls back to action. Anything not
// recognised as final is PENDING.
func reportedStatus(values ...string) ReportedStatus {
	for _, v := range values {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "approved", "paid", "success":
			return ReportedApproved
		case "rejected", "cancelled", "failed", "failure":
			return ReportedRejected
		}
	}
	return ReportedPending
}
