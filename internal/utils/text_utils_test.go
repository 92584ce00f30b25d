package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTruncateText(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	assert.Equal(t, "short", tp.TruncateText("short", 100))
	assert.Equal(t, "short", tp.TruncateText("short", 0))

	// "é" is two bytes, cutting at 2 splits it
	out := tp.TruncateText("aé-long-text", 2)
	assert.True(t, utf8.ValidString(out))
	assert.True(t, strings.HasPrefix(out, "a\n[..."))
}

func TestSanitizeUTF8(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())
	assert.Equal(t, "ab", tp.SanitizeUTF8("a\xffb"))
	assert.Equal(t, "ok", tp.SanitizeUTF8("ok"))
}

func TestNormalize(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())
	// fullwidth letters fold to ASCII, zero-width space disappears
	assert.Equal(t, "WIN prize", tp.Normalize("\uff37\uff29\uff2e pri\u200bze"))
}

func TestHTMLToText(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())
	html := `<html><head><style>p{}</style></head><body><p>Hello</p><div>Click   <b>here</b></div><script>x()</script></body></html>`

	text, err := tp.HTMLToText(html)
	require.NoError(t, err)
	assert.Equal(t, "Hello\nClick here", text)

	empty, err := tp.HTMLToText("")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestNormalizeSender(t *testing.T) {
	assert.Equal(t, "bob@example.com", NormalizeSender("Bob <Bob@Example.COM>"))
	assert.Equal(t, "+15551234567", NormalizeSender(" +1 (555) 123-4567 "))
}
