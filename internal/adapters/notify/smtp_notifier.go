package notify

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"github.com/mikey/scam-monitor/internal/core"
)

// SMTPNotifier mails notifications through an SMTP relay
type SMTPNotifier struct {
	addr   string
	from   string
	to     []string
	logger *zap.Logger
	now    func() time.Time
}

// NewSMTPNotifier creates a new SMTP notifier
func NewSMTPNotifier(addr, from string, to []string, logger *zap.Logger) *SMTPNotifier {
	return &SMTPNotifier{
		addr:   addr,
		from:   from,
		to:     to,
		logger: logger,
		now:    time.Now,
	}
}

// Notify sends the notification as a plain text mail
func (n *SMTPNotifier) Notify(ctx context.Context, note *core.Notification) error {
	if len(n.to) == 0 {
		return fmt.Errorf("no SMTP recipients configured")
	}

	body, err := n.compose(note)
	if err != nil {
		return err
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	dialer := &net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", n.addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP relay: %w", err)
	}

	deadline := n.now().Add(30 * time.Second)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}
	if err := c.Mail(n.from, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	recipientOK := false
	for _, recipient := range n.to {
		if err := c.Rcpt(recipient, nil); err != nil {
			n.logger.Warn("RCPT TO failed for recipient",
				zap.String("recipient", recipient),
				zap.Error(err))
			continue
		}
		recipientOK = true
	}
	if !recipientOK {
		return fmt.Errorf("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(body); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send mail data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		n.logger.Warn("QUIT command failed", zap.Error(err))
	}
	return nil
}

func (n *SMTPNotifier) compose(note *core.Notification) ([]byte, error) {
	var h mail.Header
	h.SetDate(n.now())
	h.SetSubject(note.Title)
	h.SetAddressList("From", []*mail.Address{{Address: n.from}})
	to := make([]*mail.Address, 0, len(n.to))
	for _, addr := range n.to {
		to = append(to, &mail.Address{Address: addr})
	}
	h.SetAddressList("To", to)
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	if note.Importance == core.ImportanceHigh {
		h.Set("Importance", "high")
		h.Set("X-Priority", "1")
	}

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail writer: %w", err)
	}
	fmt.Fprintf(w, "%s\r\n", note.Message)
	if note.BigText != "" {
		fmt.Fprintf(w, "\r\n%s\r\n", note.BigText)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish mail: %w", err)
	}
	return buf.Bytes(), nil
}
