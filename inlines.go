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
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ParseInline scans a single block's text into inline nodes.
// Reference links are not resolved,
// since there are no link reference definitions outside a document.
// ParseInline never fails:
// unmatched or unterminated markers are kept as literal text.
func ParseInline(text string) []Inline {
	return new(inlineParser).parse(text)
}

// An inlineParser converts the text of leaf blocks into inline trees.
type inlineParser struct {
	// ReferenceMatcher is used to resolve reference links.
	// If it is nil, reference links are treated as literal text.
	ReferenceMatcher ReferenceMatcher
}

type inlineState struct {
	source string
	// nodes is the list of top-level inlines produced so far.
	// Delimiter runs are stored as [*Text] nodes
	// until they are matched.
	nodes inlineList
	// lastDelim is the top of the emphasis delimiter stack.
	lastDelim *delimiter
	brackets  []bracket
	// linkFloor is the number of brackets at the bottom of the stack
	// that were open when a link was completed.
	// Link openers below it can no longer form links.
	linkFloor int
	// unclosedTicks records backtick string lengths
	// known to have no closing string later in the source.
	unclosedTicks map[int]struct{}
}

// inlineList is a doubly linked list of inlines
// with a sentinel element, so spans can be wrapped and removed in place.
type inlineList struct {
	root inlineEntry
}

type inlineEntry struct {
	node       Inline
	prev, next *inlineEntry
}

func (l *inlineList) init() {
	l.root.prev = &l.root
	l.root.next = &l.root
}

func (l *inlineList) pushBack(node Inline) *inlineEntry {
	e := &inlineEntry{node: node, prev: l.root.prev, next: &l.root}
	e.prev.next = e
	l.root.prev = e
	return e
}

func (l *inlineList) remove(e *inlineEntry) {
	e.prev.next = e.next
	e.next.prev = e.prev
	e.prev, e.next = nil, nil
}

// between returns the nodes strictly between two entries.
// A nil end means the end of the list.
func (l *inlineList) between(start, end *inlineEntry) []Inline {
	if end == nil {
		end = &l.root
	}
	var nodes []Inline
	for e := start.next; e != end; e = e.next {
		nodes = append(nodes, e.node)
	}
	return nodes
}

func (l *inlineList) slice() []Inline {
	return l.between(&l.root, nil)
}

func (p *inlineParser) parse(source string) []Inline {
	state := &inlineState{source: source}
	state.nodes.init()
	plainStart := 0
	flush := func(end int) {
		if plainStart < end {
			state.add(&Text{Content: source[plainStart:end]})
		}
	}
	for pos := 0; pos < len(source); {
		switch source[pos] {
		case '*', '_', '~':
			end := delimiterRunEnd(source, pos)
			if source[pos] == '~' && end-pos != 2 {
				pos = end
				continue
			}
			flush(pos)
			pos = p.parseDelimiterRun(state, pos, end)
			plainStart = pos
		case '`':
			cs := state.parseCodeSpan(pos)
			if cs.end < 0 {
				// Advance past literal backtick string.
				pos = cs.contentStart
				continue
			}
			flush(pos)
			state.add(&CodeSpan{Content: cs.content})
			pos = cs.end
			plainStart = pos
		case '[':
			flush(pos)
			pos = state.pushBracket(inlineDelimiterLink, pos, 1)
			plainStart = pos
		case '!':
			if pos+1 >= len(source) || source[pos+1] != '[' {
				pos++
				continue
			}
			flush(pos)
			pos = state.pushBracket(inlineDelimiterImage, pos, 2)
			plainStart = pos
		case ']':
			flush(pos)
			pos = p.closeBracket(state, pos)
			plainStart = pos
		case '\\':
			if pos+1 >= len(source) || !(source[pos+1] == '\n' || isASCIIPunctuation(source[pos+1])) {
				// Literal backslash.
				pos++
				continue
			}
			flush(pos)
			if source[pos+1] == '\n' {
				state.add(new(LineBreak))
				pos = skipLeadingSpace(source, pos+2)
			} else {
				state.add(&Text{Content: source[pos+1 : pos+2]})
				pos += 2
			}
			plainStart = pos
		case '\n':
			run := source[plainStart:pos]
			trimmed := strings.TrimRight(run, " \t")
			if len(run)-len(trimmed) >= 2 {
				flush(plainStart + len(trimmed))
				state.add(new(LineBreak))
			} else {
				flush(plainStart + len(trimmed))
				state.add(&Text{Content: " "})
			}
			pos = skipLeadingSpace(source, pos+1)
			plainStart = pos
		default:
			pos++
		}
	}
	flush(len(source))
	state.processEmphasis(nil)
	return mergeText(state.nodes.slice())
}

func skipLeadingSpace(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	return i
}

func delimiterRunEnd(source string, start int) int {
	end := start + 1
	for end < len(source) && source[end] == source[start] {
		end++
	}
	return end
}

// parseDelimiterRun adds a delimiter run as a text node
// and pushes it onto the delimiter stack if it can open or close a span.
func (p *inlineParser) parseDelimiterRun(state *inlineState, start, end int) int {
	node := &Text{Content: state.source[start:end]}
	entry := state.nodes.pushBack(node)
	flags := emphasisFlags(state.source, start, end)
	if flags == 0 {
		return end
	}
	d := &delimiter{
		flags: flags,
		n:     end - start,
		text:  node,
		entry: entry,
		prev:  state.lastDelim,
	}
	switch state.source[start] {
	case '*':
		d.typ = inlineDelimiterStar
	case '_':
		d.typ = inlineDelimiterUnderscore
	default:
		d.typ = inlineDelimiterTilde
	}
	if d.prev != nil {
		d.prev.next = d
	}
	state.lastDelim = d
	return end
}

// emphasisFlags determines whether the given delimiter run
// can open and/or close a span.
// A run can open if it is followed by a non-whitespace character
// and can close if it is preceded by a non-whitespace character.
func emphasisFlags(source string, start, end int) uint8 {
	var flags uint8
	if end < len(source) {
		if c, _ := utf8.DecodeRuneInString(source[end:]); !isUnicodeWhitespace(c) {
			flags |= openerFlag
		}
	}
	if start > 0 {
		if c, _ := utf8.DecodeLastRuneInString(source[:start]); !isUnicodeWhitespace(c) {
			flags |= closerFlag
		}
	}
	return flags
}

// processEmphasis converts matching delimiters above stackBottom
// into emphasis, strong, and strikethrough spans,
// following the [process emphasis procedure].
// A nil stackBottom processes the whole delimiter stack.
// Afterward, every delimiter above stackBottom is removed.
//
// [process emphasis procedure]: https://spec.commonmark.org/0.30/#process-emphasis
func (state *inlineState) processEmphasis(stackBottom *delimiter) {
	var openersBottom [openersBottomCount]*delimiter
	for i := range openersBottom {
		openersBottom[i] = stackBottom
	}
	var closer *delimiter
	for d := state.lastDelim; d != stackBottom; d = d.prev {
		closer = d
	}
	for closer != nil {
		if closer.flags&closerFlag == 0 {
			closer = closer.next
			continue
		}

		// Look back for the first matching potential opener,
		// staying above stack_bottom and the openers_bottom for this delimiter type.
		bottom := &openersBottom[closer.typ.openersBottomIndex()]
		opener := closer.prev
		for opener != stackBottom && opener != *bottom && !isEmphasisDelimiterMatch(opener, closer) {
			opener = opener.prev
		}
		if opener == stackBottom || opener == *bottom {
			// There are no openers for this kind of closer up to this point,
			// so put a lower bound on future searches.
			*bottom = closer.prev
			next := closer.next
			if closer.flags&openerFlag == 0 {
				state.removeDelimiter(closer)
			}
			closer = next
			continue
		}

		var kind InlineKind
		var use int
		switch {
		case opener.typ == inlineDelimiterTilde:
			kind, use = StrikethroughKind, 2
		case min(opener.n, closer.n)%2 == 1:
			kind, use = EmphasisKind, 1
		default:
			kind, use = StrongKind, 2
		}
		opener.n -= use
		opener.text.Content = opener.text.Content[:opener.n]
		closer.n -= use
		closer.text.Content = closer.text.Content[use:]
		state.wrap(kind, opener.entry, closer.entry)

		// Delimiters between the opener and closer are now inside the span.
		opener.next = closer
		closer.prev = opener

		// Delimiter runs that are used up leave the tree.
		if opener.n == 0 {
			state.nodes.remove(opener.entry)
			state.removeDelimiter(opener)
		}
		if closer.n == 0 {
			next := closer.next
			state.nodes.remove(closer.entry)
			state.removeDelimiter(closer)
			closer = next
		}
	}

	if stackBottom == nil {
		state.lastDelim = nil
	} else {
		stackBottom.next = nil
		state.lastDelim = stackBottom
	}
}

func (state *inlineState) removeDelimiter(d *delimiter) {
	if d.prev != nil {
		d.prev.next = d.next
	}
	if d.next != nil {
		d.next.prev = d.prev
	} else {
		state.lastDelim = d.prev
	}
}

type codeSpan struct {
	contentStart int
	end          int
	content      string
}

// parseCodeSpan attempts to parse a [code span] starting at the given backtick.
// If no closing backtick string of the same length exists,
// end is -1 and contentStart is the end of the opening backtick string.
//
// [code span]: https://spec.commonmark.org/0.30/#code-spans
func (state *inlineState) parseCodeSpan(start int) codeSpan {
	source := state.source
	contentStart := delimiterRunEnd(source, start)
	backtickLength := contentStart - start
	if _, unclosed := state.unclosedTicks[backtickLength]; unclosed {
		return codeSpan{contentStart: contentStart, end: -1}
	}
	for pos := contentStart; pos < len(source); {
		if source[pos] != '`' {
			pos++
			continue
		}
		runEnd := delimiterRunEnd(source, pos)
		if runEnd-pos == backtickLength {
			return codeSpan{
				contentStart: contentStart,
				end:          runEnd,
				content:      stripCodeSpanSpace(strings.ReplaceAll(source[contentStart:pos], "\n", " ")),
			}
		}
		pos = runEnd
	}
	if state.unclosedTicks == nil {
		state.unclosedTicks = make(map[int]struct{})
	}
	state.unclosedTicks[backtickLength] = struct{}{}
	return codeSpan{contentStart: contentStart, end: -1}
}

// stripCodeSpanSpace removes a single leading and trailing space
// if both are present and the content is not entirely spaces.
func stripCodeSpanSpace(content string) string {
	if len(content) >= 2 && content[0] == ' ' && content[len(content)-1] == ' ' &&
		strings.Trim(content, " ") != "" {
		return content[1 : len(content)-1]
	}
	return content
}

// pushBracket adds a link or image opener
// and returns the position after it.
func (state *inlineState) pushBracket(typ inlineDelimiter, start, n int) int {
	node := &Text{Content: state.source[start : start+n]}
	state.brackets = append(state.brackets, bracket{
		typ:       typ,
		entry:     state.nodes.pushBack(node),
		pos:       start + n,
		lastDelim: state.lastDelim,
	})
	return start + n
}

// popBracket removes the innermost bracket opener.
func (state *inlineState) popBracket() {
	state.brackets = state.brackets[:len(state.brackets)-1]
	state.linkFloor = min(state.linkFloor, len(state.brackets))
}

// closeBracket handles a ']' at the given position,
// producing a link or image if it matches an opener
// and is followed by a destination or a known reference.
// It returns the position after the construct.
func (p *inlineParser) closeBracket(state *inlineState, pos int) int {
	if len(state.brackets) == 0 {
		state.nodes.pushBack(&Text{Content: "]"})
		return pos + 1
	}
	openerIndex := len(state.brackets) - 1
	opener := state.brackets[openerIndex]
	if opener.typ == inlineDelimiterLink && openerIndex < state.linkFloor {
		state.popBracket()
		state.nodes.pushBack(&Text{Content: "]"})
		return pos + 1
	}

	if def, end, ok := parseInlineLinkTail(state.source, pos+1); ok {
		state.makeLink(opener, def)
		return end
	}
	if def, end, ok := p.matchReference(state.source, opener.pos, pos); ok {
		state.makeLink(opener, def)
		return end
	}

	// Not a link: the brackets are literal text.
	state.popBracket()
	state.nodes.pushBack(&Text{Content: "]"})
	return pos + 1
}

// parseInlineLinkTail parses `(destination "title")` starting at start.
func parseInlineLinkTail(source string, start int) (def LinkDefinition, end int, ok bool) {
	if start >= len(source) || source[start] != '(' {
		return LinkDefinition{}, -1, false
	}
	pos := skipSpaces(source, start+1)
	if pos < len(source) && source[pos] != ')' {
		def.Destination, end, ok = parseLinkDestination(source, pos)
		if !ok {
			return LinkDefinition{}, -1, false
		}
		pos = skipSpaces(source, end)
		if pos > end && pos < len(source) && source[pos] != ')' {
			def.Title, end, ok = parseLinkTitle(source, pos)
			if !ok {
				return LinkDefinition{}, -1, false
			}
			def.TitlePresent = true
			pos = skipSpaces(source, end)
		}
	}
	if pos >= len(source) || source[pos] != ')' {
		return LinkDefinition{}, -1, false
	}
	return def, pos + 1, true
}

// matchReference attempts to resolve a [full], [collapsed], or [shortcut] reference link
// whose text spans source[textStart:textEnd].
//
// [full]: https://spec.commonmark.org/0.30/#full-reference-link
// [collapsed]: https://spec.commonmark.org/0.30/#collapsed-reference-link
// [shortcut]: https://spec.commonmark.org/0.30/#shortcut-reference-link
func (p *inlineParser) matchReference(source string, textStart, textEnd int) (def LinkDefinition, end int, ok bool) {
	if p.ReferenceMatcher == nil {
		return LinkDefinition{}, -1, false
	}
	label := source[textStart:textEnd]
	end = textEnd + 1
	if labelEnd := scanLinkLabel(source, end); labelEnd >= 0 {
		if labelEnd-end > 2 {
			label = source[end+1 : labelEnd-1]
		}
		end = labelEnd
	}
	normalized := NormalizeLinkLabel(label)
	if normalized == "" {
		return LinkDefinition{}, -1, false
	}
	def, ok = p.ReferenceMatcher.MatchReference(normalized)
	if !ok {
		return LinkDefinition{}, -1, false
	}
	return def, end, true
}

// makeLink replaces the innermost bracket opener
// and all the nodes following it with a link or image.
func (state *inlineState) makeLink(opener bracket, def LinkDefinition) {
	state.processEmphasis(opener.lastDelim)
	state.popBracket()

	children := mergeText(state.nodes.between(opener.entry, nil))
	var newNode Inline
	if opener.typ == inlineDelimiterImage {
		newNode = &Image{
			Alt:          PlainText(children),
			Destination:  def.Destination,
			Title:        def.Title,
			TitlePresent: def.TitlePresent,
		}
	} else {
		newNode = &Link{
			Children:     children,
			Destination:  def.Destination,
			Title:        def.Title,
			TitlePresent: def.TitlePresent,
		}
		// Links may not contain other links.
		state.linkFloor = len(state.brackets)
	}
	opener.entry.node = newNode
	opener.entry.next = &state.nodes.root
	state.nodes.root.prev = opener.entry
}

// parseLinkDestination parses a [link destination] starting at start.
// Backslash escapes in the destination are resolved.
//
// [link destination]: https://spec.commonmark.org/0.30/#link-destination
func parseLinkDestination(source string, start int) (dest string, end int, ok bool) {
	if start >= len(source) {
		return "", -1, false
	}
	if source[start] == '<' {
		for i := start + 1; i < len(source); i++ {
			switch source[i] {
			case '\\':
				i++
			case '\n', '<':
				return "", -1, false
			case '>':
				return unescapeBackslashes(source[start+1 : i]), i + 1, true
			}
		}
		return "", -1, false
	}

	depth := 0
	i := start
loop:
	for ; i < len(source); i++ {
		switch c := source[i]; {
		case c == '\\' && i+1 < len(source) && isASCIIPunctuation(source[i+1]):
			i++
		case c == '(':
			depth++
		case c == ')':
			if depth == 0 {
				break loop
			}
			depth--
		case c <= ' ' || c == 0x7f:
			break loop
		}
	}
	if i == start || depth != 0 {
		return "", -1, false
	}
	return unescapeBackslashes(source[start:i]), i, true
}

// parseLinkTitle parses a [link title] starting at start.
// Backslash escapes in the title are resolved.
//
// [link title]: https://spec.commonmark.org/0.30/#link-title
func parseLinkTitle(source string, start int) (title string, end int, ok bool) {
	if start >= len(source) {
		return "", -1, false
	}
	var closer byte
	switch source[start] {
	case '"', '\'':
		closer = source[start]
	case '(':
		closer = ')'
	default:
		return "", -1, false
	}
	for i := start + 1; i < len(source); i++ {
		switch source[i] {
		case '\\':
			i++
		case closer:
			return unescapeBackslashes(source[start+1 : i]), i + 1, true
		case '(':
			if closer == ')' {
				return "", -1, false
			}
		}
	}
	return "", -1, false
}

func (state *inlineState) add(newNode Inline) {
	state.nodes.pushBack(newNode)
}

// wrap replaces the nodes between two entries, exclusive,
// with a single new inline containing them.
func (state *inlineState) wrap(kind InlineKind, start, end *inlineEntry) {
	children := mergeText(state.nodes.between(start, end))
	var newNode Inline
	switch kind {
	case EmphasisKind:
		newNode = &Emphasis{Children: children}
	case StrongKind:
		newNode = &Strong{Children: children}
	case StrikethroughKind:
		newNode = &Strikethrough{Children: children}
	default:
		panic(fmt.Errorf("cannot wrap %v", kind))
	}
	e := &inlineEntry{node: newNode, prev: start, next: end}
	start.next = e
	end.prev = e
}

// mergeText joins adjacent text nodes and drops empty ones.
// It modifies the slice in place.
func mergeText(nodes []Inline) []Inline {
	n := 0
	for i := 0; i < len(nodes); {
		t, ok := nodes[i].(*Text)
		if !ok {
			nodes[n] = nodes[i]
			n++
			i++
			continue
		}
		j := i + 1
		for j < len(nodes) {
			if _, ok := nodes[j].(*Text); !ok {
				break
			}
			j++
		}
		if j > i+1 {
			sb := new(strings.Builder)
			for _, c := range nodes[i:j] {
				sb.WriteString(c.(*Text).Content)
			}
			t = &Text{Content: sb.String()}
		}
		if t.Content != "" {
			nodes[n] = t
			n++
		}
		i = j
	}
	clear(nodes[n:])
	return nodes[:n]
}

// A delimiter is an emphasis delimiter run
// in the doubly linked delimiter stack.
type delimiter struct {
	typ   inlineDelimiter
	flags uint8
	// n is the number of unused delimiter characters.
	n     int
	text  *Text
	entry *inlineEntry

	prev, next *delimiter
}

// A bracket is a link or image opener.
type bracket struct {
	typ   inlineDelimiter
	entry *inlineEntry
	// pos is the position just past the opener.
	pos int
	// lastDelim is the top of the delimiter stack when the opener was pushed.
	lastDelim *delimiter
}

const (
	openerFlag = 1 << iota
	closerFlag
)

type inlineDelimiter int8

const (
	inlineDelimiterStar inlineDelimiter = 1 + iota
	inlineDelimiterUnderscore
	inlineDelimiterTilde
	inlineDelimiterLink
	inlineDelimiterImage
)

const openersBottomCount = 3

func (d inlineDelimiter) openersBottomIndex() int {
	switch d {
	case inlineDelimiterStar:
		return 0
	case inlineDelimiterUnderscore:
		return 1
	case inlineDelimiterTilde:
		return 2
	default:
		panic("unreachable")
	}
}

func (d inlineDelimiter) String() string {
	switch d {
	case inlineDelimiterStar:
		return "*"
	case inlineDelimiterUnderscore:
		return "_"
	case inlineDelimiterTilde:
		return "~~"
	case inlineDelimiterLink:
		return "["
	case inlineDelimiterImage:
		return "!["
	default:
		return fmt.Sprintf("inlineDelimiter(%d)", int8(d))
	}
}

func isEmphasisDelimiterMatch(open, close *delimiter) bool {
	return open.typ == close.typ &&
		open.flags&openerFlag != 0 &&
		close.flags&closerFlag != 0 &&
		open.n > 0
}

func isUnicodeWhitespace(c rune) bool {
	return unicode.Is(unicode.Zs, c) || c == '\t' || c == '\n' || c == '\f' || c == '\r'
}
