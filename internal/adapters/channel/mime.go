package channel

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-message/mail"

	"github.com/mikey/scam-monitor/internal/utils"
)

// MessageText holds the readable parts of an RFC 5322 message
type MessageText struct {
	Subject string
	Plain   string
	HTML    string
}

// ReadMessage walks the message and keeps the first text/plain and text/html
// inline parts. A single-part message without a content type counts as plain text.
func ReadMessage(r io.Reader) (MessageText, error) {
	var out MessageText

	mr, err := mail.CreateReader(r)
	if err != nil {
		return out, fmt.Errorf("failed to create mail reader: %w", err)
	}
	defer mr.Close()

	out.Subject, _ = mr.Header.Subject()

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return out, fmt.Errorf("failed to read message part: %w", err)
		}

		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		ct, _, _ := h.ContentType()
		data, err := io.ReadAll(part.Body)
		if err != nil {
			continue
		}
		switch {
		case strings.HasPrefix(ct, "text/html"):
			if out.HTML == "" {
				out.HTML = string(data)
			}
		case ct == "" || strings.HasPrefix(ct, "text/plain"):
			if out.Plain == "" {
				out.Plain = string(data)
			}
		}
	}
	return out, nil
}

// Text returns the plain part, or the HTML part reduced to text
func (m MessageText) Text(tp *utils.TextProcessor) (string, error) {
	if strings.TrimSpace(m.Plain) != "" || m.HTML == "" {
		return m.Plain, nil
	}
	return tp.HTMLToText(m.HTML)
}
