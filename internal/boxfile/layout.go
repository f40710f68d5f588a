package boxfile

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	timeLayout   = "15:04:05"
	labelGap     = 3 // spaces between "]" and the message
	messageGap   = 1 // spaces between the message and the right bound
	rowOverhead  = 1 + 1 + len(timeLayout) + 1 + 1 + 1 + labelGap + messageGap + 1
	headerMargin = 4 // "| " and " |"
)

// width is the display width of s in terminal cells.
func width(s string) int { return lipgloss.Width(s) }

func spaces(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(" ", n)
}

func dashes(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("-", n)
}

// boxWidth is the width of every row and of the bottom border.
func boxWidth(widestLabel, widestMessage int) int {
	return widestLabel + widestMessage + rowOverhead
}

// blockWidth is the width of a header or footer box holding params.
func blockWidth(params []string) int {
	w := headerMargin
	for _, p := range params {
		if pw := width(p) + headerMargin; pw > w {
			w = pw
		}
	}
	return w
}

// plainBorder is "+---+" of total width w.
func plainBorder(w int) string {
	return "+" + dashes(w-2) + "+"
}

// joinedBorder is the border shared by a params block of width block and
// the table of width box. It has a "+" at both right edges so that each
// box closes on it.
func joinedBorder(block, box int) string {
	switch {
	case block < box:
		return "+" + dashes(block-2) + "+" + dashes(box-block-1) + "+"
	case block > box:
		return "+" + dashes(box-2) + "+" + dashes(block-box-1) + "+"
	default:
		return plainBorder(box)
	}
}

// paramLine is one "| param |" line of a block of width w.
func paramLine(param string, w int) string {
	return "| " + param + spaces(w-width(param)-3) + "|"
}

// formatRow renders a table row padded to the given column widths. A field
// wider than its column is never truncated.
func formatRow(clock, label, message string, labelWidth, messageWidth int) string {
	var b strings.Builder
	b.WriteString("| ")
	b.WriteString(clock)
	b.WriteString(" [")
	b.WriteString(label)
	b.WriteString("]")
	b.WriteString(spaces(labelWidth - width(label) + labelGap))
	b.WriteString(message)
	b.WriteString(spaces(messageWidth - width(message) + messageGap))
	b.WriteString("|")
	return b.String()
}

// isBorder reports whether line is a border line drawn by this package.
func isBorder(line string) bool {
	return strings.HasPrefix(line, "+")
}

// rejustify pads a previously written row so its label and message columns
// match the given widths. Lines that are not rows are returned unchanged.
func rejustify(line string, widestLabel, widestMessage int) string {
	open := strings.IndexByte(line, '[')
	if !strings.HasPrefix(line, "| ") || open < 0 {
		return line
	}
	end := strings.IndexByte(line[open:], ']')
	if end < 0 {
		return line
	}
	end += open
	bound := strings.LastIndexByte(line, '|')
	if bound <= end {
		return line
	}

	label := line[open+1 : end]
	message := strings.TrimSpace(line[end+1 : bound])

	var b strings.Builder
	b.WriteString(line[:end+1])
	b.WriteString(spaces(widestLabel - width(label) + labelGap))
	b.WriteString(message)
	b.WriteString(spaces(widestMessage - width(message) + messageGap))
	b.WriteString("|")
	return b.String()
}

// sanitizeLabel keeps the row parseable: brackets would end the label
// early.
func sanitizeLabel(label string) string {
	r := strings.NewReplacer("[", "(", "]", ")", "\n", " ", "\r", " ", "\t", " ")
	return r.Replace(strings.TrimSpace(label))
}

// sanitizeMessage keeps a row on one line and free of padding-like spaces
// at its edges.
func sanitizeMessage(message string) string {
	r := strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ", "\t", " ")
	return strings.TrimSpace(r.Replace(message))
}
