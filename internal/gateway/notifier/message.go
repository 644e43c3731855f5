package notifier

import (
	"fmt"
	"strings"
	"time"

	"gridsim/internal/types"
)

const maxStructuredMessageLen = 3800

// MessageSection is one titled block of a message.
type MessageSection struct {
	Title string
	Lines []string
}

// StructuredMessage is the common layout of every push.
type StructuredMessage struct {
	Icon      string
	Title     string
	Sections  []MessageSection
	Footer    string
	Timestamp time.Time
}

// RenderMarkdown renders Markdown, truncated to the Telegram message limit.
func (m StructuredMessage) RenderMarkdown() string {
	var b strings.Builder
	header := strings.TrimSpace(strings.TrimSpace(m.Icon + " " + m.Title))
	if header != "" {
		b.WriteString(header + "\n\n")
	}
	if block := renderSections(m.Sections); block != "" {
		b.WriteString(block)
	}
	if footer := strings.TrimSpace(m.Footer); footer != "" {
		b.WriteString(sanitize(footer))
		b.WriteString("\n")
	}
	if !m.Timestamp.IsZero() {
		b.WriteString("time: " + m.Timestamp.Format("2006-01-02 15:04:05 MST"))
	}
	body := strings.TrimSpace(b.String())
	if len(body) > maxStructuredMessageLen {
		body = body[:maxStructuredMessageLen] + "..."
	}
	return body
}

func renderSections(secs []MessageSection) string {
	hasContent := false
	for _, sec := range secs {
		if len(sanitizeLines(sec.Lines)) > 0 {
			hasContent = true
			break
		}
	}
	if !hasContent {
		return ""
	}
	var b strings.Builder
	b.WriteString("```\n")
	for idx, sec := range secs {
		lines := sanitizeLines(sec.Lines)
		if len(lines) == 0 {
			continue
		}
		title := strings.TrimSpace(sec.Title)
		if title != "" {
			b.WriteString(sanitize(title))
			b.WriteString("\n")
		}
		for _, line := range lines {
			b.WriteString("- ")
			b.WriteString(sanitize(line))
			b.WriteString("\n")
		}
		if idx != len(secs)-1 {
			b.WriteString("\n")
		}
	}
	b.WriteString("```\n\n")
	return b.String()
}

func sanitizeLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if text := strings.TrimSpace(line); text != "" {
			out = append(out, text)
		}
	}
	return out
}

func sanitize(s string) string {
	s = strings.ReplaceAll(s, "```", "'''")
	return s
}

// GridStarted summarizes a grid that was laid down.
func GridStarted(market string, price float64, results []types.OrderResult, at time.Time) StructuredMessage {
	ids := make([]string, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.ID)
	}
	return StructuredMessage{
		Icon:  "📊",
		Title: "Grid started " + market,
		Sections: []MessageSection{
			{Title: "Market", Lines: []string{
				fmt.Sprintf("price: %g", price),
				fmt.Sprintf("orders: %d", len(results)),
			}},
			{Title: "Orders", Lines: ids},
		},
		Timestamp: at,
	}
}

// AccountReset summarizes a reset of the simulated account.
func AccountReset(balances types.Balances, at time.Time) StructuredMessage {
	lines := make([]string, 0, len(balances))
	for _, asset := range balances.Assets() {
		lines = append(lines, fmt.Sprintf("%s: %g", asset, balances[asset]))
	}
	return StructuredMessage{
		Icon:      "♻",
		Title:     "Virtual account reset",
		Sections:  []MessageSection{{Title: "Balances", Lines: lines}},
		Timestamp: at,
	}
}
