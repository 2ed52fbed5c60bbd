package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	logger "github.com/sirupsen/logrus"
	"github.com/wellywell/stickershop/internal/metrics"
	"github.com/wellywell/stickershop/internal/types"
)

var (
	ErrDisabled = errors.New("notifications disabled")
	ErrNoTarget = errors.New("no chat target")
)

type Sender interface {
	SendMessage(ctx context.Context, chatID string, text string) error
}

type Dispatcher struct {
	sender      Sender
	defaultChat string
	debug       bool
}

// NewDispatcher builds a dispatcher. A nil sender disables sending.
func NewDispatcher(sender Sender, defaultChat string, debug bool) *Dispatcher {
	return &Dispatcher{
		sender:      sender,
		defaultChat: strings.TrimSpace(defaultChat),
		debug:       debug,
	}
}

// ResolveTarget prefers a chat id linked by the bot over whatever handle the
// buyer typed: a bot cannot open a conversation with a handle on its own.
func ResolveTarget(details *types.OrderDetails) Target {
	for _, linked := range []*string{details.BuyerChatID, details.UserChatID} {
		if linked != nil && strings.TrimSpace(*linked) != "" {
			return Target{Type: TargetID, Value: strings.TrimSpace(*linked)}
		}
	}
	return ParseChatTarget(deref(details.BuyerTelegram))
}

func (d *Dispatcher) debugLine(details *types.OrderDetails, target Target) string {
	if !d.debug {
		return ""
	}
	return fmt.Sprintf("\n[debug] parsed=%s from=\"%s\"", target, deref(details.BuyerTelegram))
}

func (d *Dispatcher) BuyerMessage(details *types.OrderDetails, target Target) string {
	var b strings.Builder

	if mention := Mention(deref(details.BuyerTelegram)); mention != "" {
		fmt.Fprintf(&b, "Hi %s!", mention)
	} else {
		b.WriteString("Hi!")
	}
	fmt.Fprintf(&b, "\nYour order #%d for \"%s\" is marked as PAID.", details.ID, details.PackName)
	b.WriteString("\nWe will deliver shortly. If not received, reply here.")
	if details.PackURL != "" {
		fmt.Fprintf(&b, "\nPack link: %s", details.PackURL)
	}
	b.WriteString(d.debugLine(details, target))
	return b.String()
}

// OperatorMessage is the short summary posted to the default channel.
func (d *Dispatcher) OperatorMessage(details *types.OrderDetails, target Target) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Order #%d for \"%s\" is PAID.", details.ID, details.PackName)
	if mention := Mention(deref(details.BuyerTelegram)); mention != "" {
		fmt.Fprintf(&b, " Buyer: %s.", mention)
	}
	b.WriteString(d.debugLine(details, target))
	return b.String()
}

// OrderPaid tells the buyer their order is paid, falling back to the default
// channel. It reports whether any message went out and never fails the caller.
func (d *Dispatcher) OrderPaid(ctx context.Context, details *types.OrderDetails) bool {
	fields := logger.Fields{"order": details.ID}
	if d.sender == nil {
		logger.WithFields(fields).Info("Notifications disabled, buyer not notified")
		metrics.Notifications.WithLabelValues("disabled").Inc()
		return false
	}

	target := ResolveTarget(details)
	fields["target"] = target.String()

	if target.Value != "" {
		err := d.sender.SendMessage(ctx, target.Value, d.BuyerMessage(details, target))
		if err == nil {
			logger.WithFields(fields).Info("Buyer notified")
			metrics.Notifications.WithLabelValues("direct").Inc()
			return true
		}
		logger.WithFields(fields).Warningf("Direct notification failed: %v", err)
	}

	if d.defaultChat == "" {
		logger.WithFields(fields).Warning("Buyer not notified, no default chat configured")
		metrics.Notifications.WithLabelValues("none").Inc()
		return false
	}

	err := d.sender.SendMessage(ctx, d.defaultChat, d.OperatorMessage(details, target))
	if err != nil {
		logger.WithFields(fields).Errorf("Fallback notification failed: %v", err)
		metrics.Notifications.WithLabelValues("failed").Inc()
		return false
	}
	logger.WithFields(fields).Info("Order posted to default chat")
	metrics.Notifications.WithLabelValues("fallback").Inc()
	return true
}

// SendTest sends text to a raw target string, or to the default chat when
// to is empty.
func (d *Dispatcher) SendTest(ctx context.Context, to string, text string) (Target, error) {
	if d.sender == nil {
		return Target{Type: TargetNone}, ErrDisabled
	}
	if strings.TrimSpace(to) == "" {
		to = d.defaultChat
	}
	target := ParseChatTarget(to)
	if target.Value == "" {
		return target, ErrNoTarget
	}
	return target, d.sender.SendMessage(ctx, target.Value, text)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
