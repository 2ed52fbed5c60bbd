package poller

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	logger "github.com/sirupsen/logrus"
	"github.com/wellywell/stickershop/internal/metrics"
	"github.com/wellywell/stickershop/internal/telegram"
)

const (
	DefaultTimeoutSeconds = 50
	DefaultBackoff        = 2 * time.Second
)

var (
	ErrAlreadyStarted = errors.New("poller already started")

	startCommandRe = regexp.MustCompile(`(?i)^/start\b`)
	idCommandRe    = regexp.MustCompile(`(?i)^/id\b`)
)

type Updater interface {
	GetUpdates(ctx context.Context, offset int64, timeoutSeconds int) ([]telegram.Update, error)
}

type webhookDeleter interface {
	DeleteWebhook(ctx context.Context) error
}

type Store interface {
	LinkUserChatID(ctx context.Context, username string, chatID string) (int64, error)
	BackfillOrderChatID(ctx context.Context, username string, chatID string) (int64, error)
}

type Sender interface {
	SendMessage(ctx context.Context, chatID string, text string) error
}

// Poller long-polls the bot for inbound updates and links sender handles to
// chat ids. The cursor lives in memory only.
type Poller struct {
	client  Updater
	store   Store
	sender  Sender
	timeout int
	backoff time.Duration

	mu     sync.Mutex
	cursor int64
	cancel context.CancelFunc
	done   chan struct{}
}

func NewPoller(client Updater, store Store, sender Sender) *Poller {
	return &Poller{
		client:  client,
		store:   store,
		sender:  sender,
		timeout: DefaultTimeoutSeconds,
		backoff: DefaultBackoff,
	}
}

// Cursor is the highest update id processed so far.
func (p *Poller) Cursor() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cursor
}

func (p *Poller) advance(updates []telegram.Update) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, u := range updates {
		if u.UpdateID > p.cursor {
			p.cursor = u.UpdateID
		}
	}
}

func (p *Poller) offset() int64 {
	cursor := p.Cursor()
	if cursor == 0 {
		return 0
	}
	return cursor + 1
}

// Run polls until ctx is cancelled. Transient failures are retried from the
// same cursor after a fixed pause.
func (p *Poller) Run(ctx context.Context) error {

	if d, ok := p.client.(webhookDeleter); ok {
		if err := d.DeleteWebhook(ctx); err != nil {
			logger.Warningf("Could not delete bot webhook: %v", err)
		}
	}

	logger.Info("Telegram poller started")
	for {
		select {
		case <-ctx.Done():
			logger.Info("Context cancel, stopping poller")
			return nil
		default:
		}

		updates, err := p.client.GetUpdates(ctx, p.offset(), p.timeout)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			metrics.PollerErrors.Inc()
			logger.Errorf("Polling updates failed, retrying from %d: %v", p.Cursor(), err)
			select {
			case <-ctx.Done():
			case <-time.After(p.backoff):
			}
			continue
		}

		for _, upd := range updates {
			p.HandleUpdate(ctx, upd)
		}
		p.advance(updates)
	}
}

// Start runs the poller in the background until Stop is called or ctx ends.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		_ = p.Run(ctx)
	}(p.done)
	return nil
}

// Stop cancels a started poller and waits for the loop to return.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// HandleUpdate links the sender to its chat and answers identity commands.
// Store and reply failures are logged and otherwise ignored.
func (p *Poller) HandleUpdate(ctx context.Context, upd telegram.Update) {
	metrics.PollerUpdates.Inc()

	chatID := upd.ChatID()
	if chatID == "" {
		return
	}
	username := strings.TrimPrefix(strings.TrimSpace(upd.SenderUsername()), "@")
	fields := logger.Fields{"update": upd.UpdateID, "chat": chatID}

	if username != "" {
		fields["username"] = username
		linked, err := p.store.LinkUserChatID(ctx, username, chatID)
		if err != nil {
			logger.WithFields(fields).Warningf("Linking user chat failed: %v", err)
		} else if linked > 0 {
			logger.WithFields(fields).Info("Linked user chat")
		}

		backfilled, err := p.store.BackfillOrderChatID(ctx, username, chatID)
		if err != nil {
			logger.WithFields(fields).Warningf("Backfilling order chat failed: %v", err)
		} else if backfilled > 0 {
			logger.WithFields(fields).Infof("Backfilled chat on %d orders", backfilled)
		}
	}

	reply := commandReply(strings.TrimSpace(upd.Text()), chatID, username)
	if reply == "" || p.sender == nil {
		return
	}
	if err := p.sender.SendMessage(ctx, chatID, reply); err != nil {
		logger.WithFields(fields).Warningf("Command reply failed: %v", err)
	}
}

func commandReply(text string, chatID string, username string) string {
	var reply string
	switch {
	case startCommandRe.MatchString(text):
		reply = "Chat linked ✅\nchat_id=" + chatID
	case idCommandRe.MatchString(text):
		reply = fmt.Sprintf("Your chat_id is %s", chatID)
	default:
		return ""
	}
	if username != "" {
		reply += "\nusername=@" + username
	}
	return reply
}
