package channel

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"go.uber.org/zap"

	"github.com/mikey/scam-monitor/internal/config"
	"github.com/mikey/scam-monitor/internal/core"
	"github.com/mikey/scam-monitor/internal/ports"
	"github.com/mikey/scam-monitor/internal/utils"
)

// Mailbox is the part of the IMAP client used by the email poller
type Mailbox interface {
	Select(name string, readOnly bool) (*imap.MailboxStatus, error)
	Fetch(seqset *imap.SeqSet, items []imap.FetchItem, ch chan *imap.Message) error
	Logout() error
}

// Dialer opens an authenticated mailbox connection
type Dialer func(ctx context.Context, cfg config.IMAPConfig) (Mailbox, error)

// EmailPoller fetches the newest message of an IMAP mailbox
type EmailPoller struct {
	cfg           config.IMAPConfig
	dial          Dialer
	permission    core.PermissionState
	textProcessor *utils.TextProcessor
	logger        *zap.Logger

	mu      sync.Mutex
	mailbox Mailbox
}

// NewEmailPoller creates an email poller. Missing credentials deny the channel.
func NewEmailPoller(
	cfg config.IMAPConfig,
	dial Dialer,
	gate ports.PermissionGate,
	textProcessor *utils.TextProcessor,
	logger *zap.Logger,
) *EmailPoller {
	if dial == nil {
		dial = DialTLS
	}
	if cfg.Mailbox == "" {
		cfg.Mailbox = "INBOX"
	}

	permission := gate.Check(core.ChannelEmail)
	if cfg.Server == "" || cfg.Username == "" {
		permission = core.PermissionDenied
	}
	if permission == core.PermissionDenied {
		logger.Warn("Email access not granted, poller will stay silent")
	}

	return &EmailPoller{
		cfg:           cfg,
		dial:          dial,
		permission:    permission,
		textProcessor: textProcessor,
		logger:        logger.With(zap.String("mailbox", cfg.Mailbox)),
	}
}

// DialTLS connects over TLS and logs in
func DialTLS(ctx context.Context, cfg config.IMAPConfig) (Mailbox, error) {
	timeout := cfg.DialTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	dialer := &tls.Dialer{NetDialer: &net.Dialer{Timeout: timeout}}
	conn, err := dialer.DialContext(ctx, "tcp", cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	imapClient, err := client.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create IMAP client: %w", err)
	}

	if err := imapClient.Login(cfg.Username, cfg.Password); err != nil {
		_ = imapClient.Logout()
		return nil, fmt.Errorf("failed to login: %w", err)
	}

	return imapClient, nil
}

// Channel returns core.ChannelEmail
func (p *EmailPoller) Channel() core.Channel { return core.ChannelEmail }

// Permissions returns the captured permission state
func (p *EmailPoller) Permissions() core.PermissionState { return p.permission }

// Open connects to the mailbox
func (p *EmailPoller) Open(ctx context.Context) error {
	if p.permission != core.PermissionGranted {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connectLocked(ctx)
}

func (p *EmailPoller) connectLocked(ctx context.Context) error {
	if p.mailbox != nil {
		return nil
	}

	p.logger.Info("Connecting to IMAP server", zap.String("server", p.cfg.Server))
	mbox, err := p.dial(ctx, p.cfg)
	if err != nil {
		return err
	}
	p.mailbox = mbox
	return nil
}

// Close logs out of the mailbox
func (p *EmailPoller) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.mailbox == nil {
		return nil
	}
	err := p.mailbox.Logout()
	p.mailbox = nil
	return err
}

// Poll fetches the newest message. A broken connection is dropped and
// re-established on the next poll.
func (p *EmailPoller) Poll(ctx context.Context) (*core.CandidateEvent, error) {
	if p.permission != core.PermissionGranted {
		return nil, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.connectLocked(ctx); err != nil {
		return nil, err
	}

	ev, err := p.fetchNewestLocked()
	if err != nil {
		_ = p.mailbox.Logout()
		p.mailbox = nil
		return nil, err
	}
	return ev, nil
}

func (p *EmailPoller) fetchNewestLocked() (*core.CandidateEvent, error) {
	status, err := p.mailbox.Select(p.cfg.Mailbox, true)
	if err != nil {
		return nil, fmt.Errorf("failed to select %s: %w", p.cfg.Mailbox, err)
	}
	if status.Messages == 0 {
		return nil, nil
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(status.Messages)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchUid, section.FetchItem()}

	messages := make(chan *imap.Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- p.mailbox.Fetch(seqSet, items, messages)
	}()

	var newest *imap.Message
	for msg := range messages {
		newest = msg
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to fetch: %w", err)
	}
	if newest == nil {
		return nil, nil
	}

	return p.toEvent(status.UidValidity, newest, section), nil
}

// toEvent keys the message by UIDVALIDITY and UID, since a UID is only unique
// within one validity epoch of the mailbox
func (p *EmailPoller) toEvent(uidValidity uint32, msg *imap.Message, section *imap.BodySectionName) *core.CandidateEvent {
	ev := &core.CandidateEvent{
		Channel:    core.ChannelEmail,
		ExternalID: fmt.Sprintf("%d:%d", uidValidity, msg.Uid),
		ObservedAt: time.Now(),
	}

	if msg.Envelope != nil {
		ev.Subject = msg.Envelope.Subject
		if !msg.Envelope.Date.IsZero() {
			ev.ObservedAt = msg.Envelope.Date
		}
		if len(msg.Envelope.From) > 0 {
			ev.Sender = msg.Envelope.From[0].Address()
		}
	}

	if body := msg.GetBody(section); body != nil {
		text, err := ReadMessage(body)
		if err != nil {
			p.logger.Warn("Failed to read message body", zap.Error(err))
		}
		content, err := text.Text(p.textProcessor)
		if err != nil {
			p.logger.Warn("Failed to convert HTML body", zap.Error(err))
		}
		ev.Content = content
	}
	return ev
}
