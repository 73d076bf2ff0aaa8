package notifier

import (
	"strings"
	"time"
)

// Telegram rejects bodies past 4096 bytes; leave headroom for the ellipsis
// and entity overhead.
const maxStructuredMessageLen = 3800

// MessageSection is one titled block of bullet lines in the message body.
type MessageSection struct {
	Title string
	Lines []string
}

// StructuredMessage is a push notification before rendering. Sections with
// only blank lines are dropped from the output.
type StructuredMessage struct {
	Icon      string
	Title     string
	Sections  []MessageSection
	Timestamp time.Time
}

// RenderMarkdown produces the Markdown body, trimmed to the Telegram limit.
func (m StructuredMessage) RenderMarkdown() string {
	var b strings.Builder
	if header := strings.TrimSpace(m.Icon + " " + m.Title); header != "" {
		b.WriteString(header + "\n\n")
	}
	b.WriteString(renderSections(m.Sections))
	if !m.Timestamp.IsZero() {
		b.WriteString("Time: " + m.Timestamp.Format("2006-01-02 15:04:05 MST"))
	}
	body := strings.TrimSpace(b.String())
	if len(body) > maxStructuredMessageLen {
		body = body[:maxStructuredMessageLen] + "..."
	}
	return body
}

func renderSections(secs []MessageSection) string {
	kept := make([]MessageSection, 0, len(secs))
	for _, sec := range secs {
		lines := make([]string, 0, len(sec.Lines))
		for _, line := range sec.Lines {
			if text := strings.TrimSpace(line); text != "" {
				lines = append(lines, escapeFences(text))
			}
		}
		if len(lines) > 0 {
			kept = append(kept, MessageSection{Title: strings.TrimSpace(sec.Title), Lines: lines})
		}
	}
	if len(kept) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("```\n")
	for idx, sec := range kept {
		if sec.Title != "" {
			b.WriteString(escapeFences(sec.Title) + "\n")
		}
		for _, line := range sec.Lines {
			b.WriteString("- " + line + "\n")
		}
		if idx != len(kept)-1 {
			b.WriteString("\n")
		}
	}
	b.WriteString("```\n\n")
	return b.String()
}

// escapeFences keeps user-supplied text from closing the surrounding
// code block.
func escapeFences(s string) string {
	return strings.ReplaceAll(s, "```", "'''")
}
