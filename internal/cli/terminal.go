package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/bastiangx/swipeserve/internal/utils"
	"github.com/bastiangx/swipeserve/pkg/keys"
	"github.com/bastiangx/swipeserve/pkg/session"
	"github.com/bastiangx/swipeserve/pkg/swipe"
	"github.com/charmbracelet/lipgloss"
)

// styles are bound to one output so color detection follows that stream.
type styles struct {
	word      lipgloss.Style
	composing lipgloss.Style
	commit    lipgloss.Style
	dim       lipgloss.Style
	key       lipgloss.Style
}

func newStyles(out io.Writer) styles {
	r := lipgloss.NewRenderer(out)
	return styles{
		word:      r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#286983", Dark: "#9ccfd8"}),
		composing: r.NewStyle().Underline(true).Bold(true),
		commit:    r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#56949f", Dark: "#31748f"}),
		dim:       r.NewStyle().Faint(true),
		key: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.AdaptiveColor{Light: "#9893a5", Dark: "#6e6a86"}).
			Width(7).
			Align(lipgloss.Center),
	}
}

// renderUpdate formats the editor state after a command.
func (st styles) renderUpdate(u session.Update, limit int) string {
	var b strings.Builder
	if u.Commit != "" {
		fmt.Fprintf(&b, "commit    %s\n", st.commit.Render(u.Commit))
	}
	if len(u.Keys) > 0 {
		fmt.Fprintf(&b, "keys      %s\n", st.dim.Render(formatCodes(u.Keys)))
	}
	valid := ""
	if u.TypedValid {
		valid = st.dim.Render(" (word)")
	}
	fmt.Fprintf(&b, "composing %s%s\n", st.composing.Render(u.Composing), valid)
	if u.Close {
		b.WriteString(st.dim.Render("keyboard closed") + "\n")
	}
	b.WriteString(st.renderCandidates(u, limit))
	return b.String()
}

func (st styles) renderCandidates(u session.Update, limit int) string {
	if len(u.Candidates) == 0 {
		if u.Composing == "" {
			return ""
		}
		return st.dim.Render("no suggestions") + "\n"
	}
	var b strings.Builder
	for i, c := range u.Candidates {
		if limit > 0 && i == limit {
			break
		}
		fmt.Fprintf(&b, "%2d. %-24s (score: %s)\n", i+1, st.word.Render(c.Word), utils.FormatWithCommas(c.Frequency))
	}
	return b.String()
}

// renderKeyboard draws the layout row by row; each key shows its tap code
// and the codes of its four swipes.
func (st styles) renderKeyboard(kb *keys.Keyboard) string {
	var rows [][]string
	var lastY float64
	for i, k := range kb.Keys() {
		if i == 0 || k.Bounds.Y != lastY {
			rows = append(rows, nil)
			lastY = k.Bounds.Y
		}
		rows[len(rows)-1] = append(rows[len(rows)-1], st.key.Render(keyFace(k)))
	}
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = lipgloss.JoinHorizontal(lipgloss.Top, r...)
	}
	return lipgloss.JoinVertical(lipgloss.Left, out...)
}

func keyFace(k *keys.Key) string {
	c := func(d swipe.Direction) string { return codeLabel(k.Code(d)) }
	return fmt.Sprintf("%s\n%s %s %s\n%s", c(swipe.Up), c(swipe.Left), k.Label, c(swipe.Right), c(swipe.Down))
}

func codeLabel(code rune) string {
	switch {
	case code == keys.NoCode:
		return " "
	case code < 0:
		return "*"
	case code == ' ':
		return "_"
	}
	return string(code)
}

func formatCodes(codes []rune) string {
	parts := make([]string, len(codes))
	for i, c := range codes {
		switch {
		case c == keys.CodeDelete:
			parts[i] = "<del>"
		case c < 0:
			parts[i] = fmt.Sprintf("<%d>", c)
		default:
			parts[i] = fmt.Sprintf("%q", c)
		}
	}
	return strings.Join(parts, " ")
}
