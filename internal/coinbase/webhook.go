package coinbase

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	SignatureHeader = "X-CC-Webhook-Signature"

	EventChargeConfirmed = "charge:confirmed"
)

var ErrMalformedEvent = errors.New("malformed webhook event")

// Sign returns the hex HMAC-SHA256 of body under secret.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a hex signature over the unmodified body.
func VerifySignature(body []byte, signature string, secret string) bool {
	if secret == "" || signature == "" {
		return false
	}
	got, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), got)
}

// Event is the part of a webhook delivery the shop relies on.
type Event struct {
	ID        string
	Type      string
	ChargeID  string
	Status    string
	HostedURL string
	// OrderID is zero when the charge metadata carries no usable order id.
	OrderID int64
}

func (e *Event) Confirmed() bool {
	return e.Type == EventChargeConfirmed
}

type rawEvent struct {
	Event *struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Data *struct {
			ID        string          `json:"id"`
			HostedURL string          `json:"hosted_url"`
			Timeline  []TimelineEntry `json:"timeline"`
			Metadata  map[string]any  `json:"metadata"`
		} `json:"data"`
	} `json:"event"`
}

// ParseEvent validates a webhook body and extracts the event fields.
func ParseEvent(body []byte) (*Event, error) {
	var raw rawEvent
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedEvent, err.Error())
	}
	if raw.Event == nil || raw.Event.Type == "" {
		return nil, fmt.Errorf("%w: no event type", ErrMalformedEvent)
	}

	event := &Event{ID: raw.Event.ID, Type: raw.Event.Type, Status: "unknown"}

	data := raw.Event.Data
	if data == nil {
		return event, nil
	}
	event.ChargeID = data.ID
	event.HostedURL = data.HostedURL
	if n := len(data.Timeline); n > 0 && data.Timeline[n-1].Status != "" {
		event.Status = data.Timeline[n-1].Status
	}
	event.OrderID = orderIDFromMetadata(data.Metadata)

	return event, nil
}

func orderIDFromMetadata(metadata map[string]any) int64 {
	switch v := metadata["order_id"].(type) {
	case string:
		id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err == nil && id > 0 {
			return id
		}
	case float64:
		if v > 0 && v == float64(int64(v)) {
			return int64(v)
		}
	}
	return 0
}
