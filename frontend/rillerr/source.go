package rillerr

import (
	"fmt"
	"go/token"
	"strings"
)

// FormatWithCodeAndSource renders an error with a source excerpt and a
// caret under the offending span, plus the hint when the error carries
// one.
func FormatWithCodeAndSource(e RillError, fset *token.FileSet, src []byte) string {
	sb := &strings.Builder{}
	pos := fset.Position(e.Pos())
	fmt.Fprintf(sb, "%s: %s\n", pos, FormatWithCode(e))

	if line := sourceLine(src, pos.Line); line != "" {
		fmt.Fprintf(sb, "  %s\n", line)
		width := spanWidth(e, fset, len(line), pos.Column)
		fmt.Fprintf(sb, "  %s%s\n", strings.Repeat(" ", pos.Column-1), strings.Repeat("^", width))
	}
	if h, ok := e.(Hinter); ok && h.Hint() != "" {
		fmt.Fprintf(sb, "  help: %s\n", h.Hint())
	}
	return sb.String()
}

func sourceLine(src []byte, line int) string {
	if line < 1 {
		return ""
	}
	lines := strings.Split(string(src), "\n")
	if line > len(lines) {
		return ""
	}
	return lines[line-1]
}

func spanWidth(e RillError, fset *token.FileSet, lineLen, col int) int {
	endPos := fset.Position(e.End())
	startPos := fset.Position(e.Pos())
	width := 1
	if endPos.Line == startPos.Line && endPos.Column > startPos.Column {
		width = endPos.Column - startPos.Column
	}
	if col-1+width > lineLen {
		width = lineLen - col + 1
	}
	if width < 1 {
		width = 1
	}
	return width
}
