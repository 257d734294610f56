// Copyright 2023 Ross Light
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//		 https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package markdown

import (
	"strings"
)

// tabStopSize is the multiple of columns that a [tab] advances to.
//
// [tab]: https://spec.commonmark.org/0.30/#tabs
const tabStopSize = 4

// maxMarkerIndent is the largest indentation permitted
// before a block marker.
const maxMarkerIndent = 3

// expandIndent replaces tabs in the line's leading whitespace
// with spaces up to the next tab stop.
func expandIndent(line string) string {
	end := 0
	hasTab := false
	for end < len(line) && (line[end] == ' ' || line[end] == '\t') {
		hasTab = hasTab || line[end] == '\t'
		end++
	}
	if !hasTab {
		return line
	}
	sb := new(strings.Builder)
	col := 0
	for _, c := range []byte(line[:end]) {
		if c == '\t' {
			n := tabStopSize - col%tabStopSize
			sb.WriteString(strings.Repeat(" ", n))
			col += n
		} else {
			sb.WriteByte(' ')
			col++
		}
	}
	sb.WriteString(line[end:])
	return sb.String()
}

// indentWidth returns the number of leading spaces in the line.
func indentWidth(line string) int {
	n := 0
	for n < len(line) && line[n] == ' ' {
		n++
	}
	return n
}

// stripIndent removes up to n leading spaces from the line.
func stripIndent(line string, n int) string {
	i := 0
	for i < n && i < len(line) && line[i] == ' ' {
		i++
	}
	return line[i:]
}

// trimMarkerIndent strips the permitted indentation before a block marker.
// ok is false if the line is indented too far to hold a marker.
func trimMarkerIndent(line string) (rest string, indent int, ok bool) {
	line = expandIndent(line)
	indent = indentWidth(line)
	if indent > maxMarkerIndent {
		return line, indent, false
	}
	return line[indent:], indent, true
}

func isBlankLine(line string) bool {
	for i := 0; i < len(line); i++ {
		if b := line[i]; !(b == ' ' || b == '\t' || b == '\r' || b == '\n') {
			return false
		}
	}
	return true
}

// isThematicBreak reports whether the line is a [thematic break]:
// three or more matching '-', '_', or '*' characters,
// optionally separated by spaces.
//
// [thematic break]: https://spec.commonmark.org/0.30/#thematic-breaks
func isThematicBreak(line string) bool {
	line, _, ok := trimMarkerIndent(line)
	if !ok {
		return false
	}
	n := 0
	var want byte
	for i := 0; i < len(line); i++ {
		switch b := line[i]; b {
		case '-', '_', '*':
			if n == 0 {
				want = b
			} else if b != want {
				return false
			}
			n++
		case ' ', '\t':
			// Ignore
		default:
			return false
		}
	}
	return n >= 3
}

// parseBlockQuote attempts to parse a [block quote marker] from the beginning of the line.
// It returns the line's content after the marker
// and an optional following space.
//
// [block quote marker]: https://spec.commonmark.org/0.30/#block-quote-marker
func parseBlockQuote(line string) (rest string, ok bool) {
	line, _, ok = trimMarkerIndent(line)
	if !ok || len(line) == 0 || line[0] != '>' {
		return "", false
	}
	if len(line) > 1 && line[1] == ' ' {
		return line[2:], true
	}
	return line[1:], true
}

type atxHeading struct {
	level   int // 1-6
	content string
}

// parseATXHeading attempts to parse the line as an [ATX heading].
// The level is zero if the line is not an ATX heading.
//
// [ATX heading]: https://spec.commonmark.org/0.30/#atx-headings
func parseATXHeading(line string) atxHeading {
	line, _, ok := trimMarkerIndent(line)
	if !ok {
		return atxHeading{}
	}
	var h atxHeading
	for h.level < len(line) && line[h.level] == '#' {
		h.level++
	}
	if h.level == 0 || h.level > 6 {
		return atxHeading{}
	}
	rest := line[h.level:]
	if rest == "" {
		return h
	}
	if !(rest[0] == ' ' || rest[0] == '\t') {
		return atxHeading{}
	}
	content := strings.Trim(rest, " \t")

	// Strip an optional closing sequence of '#' characters.
	// It must be preceded by a space or be the entire content,
	// and may not be escaped.
	end := len(content)
	for end > 0 && content[end-1] == '#' {
		end--
	}
	switch {
	case end == len(content):
	case end == 0:
		content = ""
	case content[end-1] == ' ' || content[end-1] == '\t':
		content = strings.TrimRight(content[:end], " \t")
	}
	h.content = content
	return h
}

// codeFence is the opening line of a fenced code block.
type codeFence struct {
	char   byte // '`' or '~'
	n      int  // length of fence
	indent int
	info   string
}

// parseCodeFence attempts to parse the line as a [code fence] opener.
//
// [code fence]: https://spec.commonmark.org/0.30/#code-fence
func parseCodeFence(line string) (f codeFence, ok bool) {
	line, f.indent, ok = trimMarkerIndent(line)
	if !ok || len(line) == 0 || (line[0] != '`' && line[0] != '~') {
		return codeFence{}, false
	}
	f.char = line[0]
	for f.n < len(line) && line[f.n] == f.char {
		f.n++
	}
	if f.n < 3 {
		return codeFence{}, false
	}
	f.info = strings.Trim(line[f.n:], " \t")
	if f.char == '`' && strings.IndexByte(f.info, '`') >= 0 {
		return codeFence{}, false
	}
	return f, true
}

// closes reports whether the line is a closing fence for f.
func (f codeFence) closes(line string) bool {
	line, _, ok := trimMarkerIndent(line)
	if !ok {
		return false
	}
	n := 0
	for n < len(line) && line[n] == f.char {
		n++
	}
	return n >= f.n && isBlankLine(line[n:])
}

// language returns the first word of the fence's info string.
func (f codeFence) language() string {
	info := unescapeBackslashes(f.info)
	if i := strings.IndexAny(info, " \t"); i >= 0 {
		return info[:i]
	}
	return info
}

// listMarker is the parsed start of a [list item].
//
// [list item]: https://spec.commonmark.org/0.30/#list-items
type listMarker struct {
	ordered bool
	char    byte // bullet character or ordered delimiter
	start   int
	// contentCol is the column where the item's content begins.
	// Continuation lines must be indented at least this far.
	contentCol int
	content    string
}

// maxListNumberDigits is the maximum number of digits in an ordered list marker.
const maxListNumberDigits = 9

// parseListMarker attempts to parse a bullet or ordered list marker
// from the beginning of the line.
func parseListMarker(line string) (m listMarker, ok bool) {
	rest, indent, ok := trimMarkerIndent(line)
	if !ok || rest == "" {
		return listMarker{}, false
	}
	markerEnd := 0
	switch c := rest[0]; {
	case c == '-' || c == '+' || c == '*':
		m.char = c
		markerEnd = 1
	case isASCIIDigit(c):
		for markerEnd < len(rest) && isASCIIDigit(rest[markerEnd]) {
			m.start = m.start*10 + int(rest[markerEnd]-'0')
			markerEnd++
		}
		if markerEnd > maxListNumberDigits || markerEnd >= len(rest) ||
			(rest[markerEnd] != '.' && rest[markerEnd] != ')') {
			return listMarker{}, false
		}
		m.ordered = true
		m.char = rest[markerEnd]
		markerEnd++
	default:
		return listMarker{}, false
	}

	after := rest[markerEnd:]
	if after != "" && after[0] != ' ' && after[0] != '\t' {
		return listMarker{}, false
	}
	after = expandIndent(after)
	spaces := indentWidth(after)
	switch {
	case isBlankLine(after):
		// Empty item: content starts one column after the marker.
		spaces = 1
		after = ""
	case spaces > tabStopSize:
		// Indented code inside items is not supported;
		// treat the extra spaces as content.
		spaces = 1
		after = after[1:]
	default:
		after = after[spaces:]
	}
	m.contentCol = indent + markerEnd + spaces
	m.content = after
	return m, true
}

// continues reports whether m begins an item of the same list as prev.
func (m listMarker) continues(prev listMarker) bool {
	return m.ordered == prev.ordered && m.char == prev.char
}

// splitTableRow splits a pipe-delimited line into cells.
// Leading and trailing pipes are optional.
// Backslash-escaped pipes do not delimit cells
// and are unescaped in the returned cells.
func splitTableRow(line string) []string {
	line = strings.Trim(line, " \t")
	if strings.HasPrefix(line, "|") {
		line = line[1:]
	}
	if strings.HasSuffix(line, "|") && !isEndEscaped(line[:len(line)-1]) {
		line = line[:len(line)-1]
	}
	var cells []string
	sb := new(strings.Builder)
	for i := 0; i < len(line); i++ {
		switch {
		case line[i] == '\\' && i+1 < len(line) && line[i+1] == '|':
			sb.WriteByte('|')
			i++
		case line[i] == '|':
			cells = append(cells, strings.Trim(sb.String(), " \t"))
			sb.Reset()
		default:
			sb.WriteByte(line[i])
		}
	}
	cells = append(cells, strings.Trim(sb.String(), " \t"))
	return cells
}

// hasTablePipe reports whether the line contains an unescaped pipe.
func hasTablePipe(line string) bool {
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '\\':
			i++
		case '|':
			return true
		}
	}
	return false
}

// parseTableDelimiter parses a table delimiter row like "| :--- | ---: |".
func parseTableDelimiter(line string) ([]Alignment, bool) {
	line, _, ok := trimMarkerIndent(line)
	if !ok || !hasTablePipe(line) {
		return nil, false
	}
	cells := splitTableRow(line)
	align := make([]Alignment, 0, len(cells))
	for _, cell := range cells {
		left := strings.HasPrefix(cell, ":")
		right := strings.HasSuffix(cell, ":")
		dashes := strings.TrimSuffix(strings.TrimPrefix(cell, ":"), ":")
		if dashes == "" || strings.Trim(dashes, "-") != "" {
			return nil, false
		}
		switch {
		case left && right:
			align = append(align, AlignCenter)
		case left:
			align = append(align, AlignLeft)
		case right:
			align = append(align, AlignRight)
		default:
			align = append(align, AlignNone)
		}
	}
	return align, true
}

// isTableStart reports whether the line and the one following it
// begin a table.
func isTableStart(line, next string) bool {
	if _, _, ok := trimMarkerIndent(line); !ok || !hasTablePipe(line) {
		return false
	}
	align, ok := parseTableDelimiter(next)
	return ok && len(align) == len(splitTableRow(line))
}

// isEndEscaped reports whether s ends with an odd number of backslashes.
func isEndEscaped(s string) bool {
	n := 0
	for ; n < len(s); n++ {
		if s[len(s)-n-1] != '\\' {
			break
		}
	}
	return n%2 == 1
}

// unescapeBackslashes resolves backslash escapes of ASCII punctuation.
func unescapeBackslashes(s string) string {
	if strings.IndexByte(s, '\\') < 0 {
		return s
	}
	sb := new(strings.Builder)
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && isASCIIPunctuation(s[i+1]) {
			i++
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

func isASCIIDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func isASCIILetter(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

func isASCIIPunctuation(c byte) bool {
	return '!' <= c && c <= '/' ||
		':' <= c && c <= '@' ||
		'[' <= c && c <= '`' ||
		'{' <= c && c <= '~'
}
