// Package export renders read-only views over a thread record.
package export

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hexchat/chat-sync/internal/model"
)

// Format is a closed set of export formats.
type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"

	// FormatPDF renders the Markdown representation. True PDF output is an
	// intentional scope reduction, not a bug.
	FormatPDF Format = "pdf"
)

// ParseFormat validates a caller-supplied format string.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatMarkdown, "md":
		return FormatMarkdown, nil
	case FormatPDF:
		return FormatPDF, nil
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// ContentType returns the MIME type for a format.
func (f Format) ContentType() string {
	if f == FormatJSON {
		return "application/json"
	}
	return "text/markdown; charset=utf-8"
}

// Render produces the export body for one thread.
func Render(f Format, t model.Thread) (string, error) {
	switch f {
	case FormatJSON:
		raw, err := json.MarshalIndent(t, "", "  ")
		if err != nil {
			return "", fmt.Errorf("export json: %w", err)
		}
		return string(raw), nil
	case FormatMarkdown, FormatPDF:
		return renderMarkdown(t), nil
	}
	return "", fmt.Errorf("unknown export format %q", f)
}

func renderMarkdown(t model.Thread) string {
	var b strings.Builder
	for i, m := range t.Messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		switch m.Role {
		case model.RoleBot:
			b.WriteString("**Bot**: ")
		default:
			b.WriteString("**You**: ")
		}
		b.WriteString(m.Text)
	}
	return b.String()
}
