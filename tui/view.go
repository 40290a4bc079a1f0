package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/papercomputeco/cortex/pkg/llm"
)

func (m Model) View() string {
	if m.engine == nil {
		return lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("cortex"),
			"",
			errorStyle.Render(m.setupError),
			"",
			hintStyle.Render("esc to quit"),
		)
	}

	main := lipgloss.JoinVertical(lipgloss.Left,
		m.viewport.View(),
		m.input.View(),
		statusStyle.Render(ansi.Truncate(m.status(), m.viewport.Width, "…")),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, m.sidebar(), " ", main)
}

func (m Model) sidebar() string {
	radio := func(label string, active bool) string {
		if active {
			return activeModeStyle.Render("(•) " + label)
		}
		return inactiveModeStyle.Render("( ) " + label)
	}

	lines := []string{
		titleStyle.Render("cortex"),
		"",
		radio("Chat", m.mode == modeChat),
		radio("Image", m.mode == modeImage),
		"",
		hintStyle.Render("tab    switch mode"),
		hintStyle.Render("ctrl+n new chat"),
		hintStyle.Render("esc    quit"),
	}
	return sidebarStyle.Height(max(1, m.height-2)).Render(strings.Join(lines, "\n"))
}

func (m Model) status() string {
	switch {
	case m.streaming:
		return "streaming..."
	case m.generating:
		return "generating image..."
	case m.mode == modeChat:
		return fmt.Sprintf("%d messages", len(m.session.Conversation().History()))
	default:
		return fmt.Sprintf("%d images", len(m.images))
	}
}

// renderChat draws the committed history, then the in-flight frame or the
// last turn's error in the assistant slot.
func (m Model) renderChat() string {
	var b strings.Builder

	for _, msg := range m.session.Conversation().History() {
		if msg.Role == llm.RoleUser {
			b.WriteString(userLabelStyle.Render("You"))
			b.WriteString("\n")
			b.WriteString(msg.Content)
			b.WriteString("\n\n")
			continue
		}
		b.WriteString(assistantLabelStyle.Render("Assistant"))
		b.WriteString("\n")
		b.WriteString(m.renderMarkdown(msg.Content))
		b.WriteString("\n")
	}

	switch {
	case m.streaming:
		b.WriteString(assistantLabelStyle.Render("Assistant"))
		b.WriteString("\n")
		b.WriteString(m.live)
		b.WriteString("\n")
	case m.turnErr != "":
		b.WriteString(errorStyle.Render(m.turnErr))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) renderImages() string {
	var b strings.Builder
	for _, r := range m.images {
		switch {
		case r.warning != "":
			b.WriteString(warningStyle.Render(r.warning))
		case r.err != "":
			b.WriteString(errorStyle.Render(ansi.Truncate(r.err, m.viewport.Width, "…")))
		default:
			fmt.Fprintf(&b, "%s  seed %d, %d KB %s\n%s",
				userLabelStyle.Render("Image"),
				r.img.Seed, len(r.img.Data)/1024, r.img.ContentType,
				r.img.URL,
			)
		}
		b.WriteString("\n\n")
	}
	return b.String()
}

func (m Model) renderMarkdown(s string) string {
	if m.markdown == nil {
		return s + "\n"
	}
	out, err := m.markdown.Render(s)
	if err != nil {
		return s + "\n"
	}
	return out
}
