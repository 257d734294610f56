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

// Package markdown converts Markdown documents to HTML.
//
// Parsing happens in two phases.
// The block phase splits the document into lines
// and groups them into paragraphs, headings, lists, and other blocks,
// collecting any link reference definitions along the way.
// The inline phase then scans the text of each leaf block
// for emphasis, code spans, links, and images.
// The resulting tree is rendered with an [HTMLRenderer].
// [Convert] performs all steps at once
// and never fails.
//
// The supported syntax is a subset of [CommonMark]
// plus the [GitHub Flavored Markdown] tables and strikethrough extensions.
//
// [CommonMark]: https://commonmark.org/
// [GitHub Flavored Markdown]: https://github.github.com/gfm/
package markdown

import (
	"strings"
)

// DefaultMaxNesting is the nesting limit used by a [Parser]
// with a zero MaxNesting.
const DefaultMaxNesting = 32

// A Parser converts Markdown text into a tree of blocks.
// The zero value is a parser with default options.
type Parser struct {
	// MaxNesting is the maximum depth of nested block quotes and list items.
	// Markers beyond this depth are treated as paragraph text.
	// If MaxNesting is zero, DefaultMaxNesting is used.
	MaxNesting int
}

// Parse parses a Markdown document using the default options for [Parser].
func Parse(text string) []Block {
	return new(Parser).Parse(text)
}

// Parse parses a Markdown document.
// It never fails: malformed constructs degrade to paragraphs or literal text.
func (p *Parser) Parse(text string) []Block {
	maxNesting := p.MaxNesting
	if maxNesting <= 0 {
		maxNesting = DefaultMaxNesting
	}
	state := &blockState{
		maxDepth: maxNesting,
		refMap:   make(ReferenceMap),
	}
	var doc []Block
	state.jobs = append(state.jobs, blockJob{
		lines: splitLines(text),
		dst:   &doc,
	})
	for len(state.jobs) > 0 {
		job := state.jobs[len(state.jobs)-1]
		state.jobs = state.jobs[:len(state.jobs)-1]
		state.parseBlocks(job)
	}

	ip := &inlineParser{ReferenceMatcher: state.refMap}
	for _, u := range state.unparsed {
		*u.dst = ip.parse(u.text)
	}
	return doc
}

// splitLines splits text into lines,
// normalizing line endings and replacing NUL characters.
func splitLines(text string) []string {
	if strings.IndexByte(text, 0) >= 0 {
		// Contains one or more NUL bytes.
		// Replace with Unicode replacement character.
		text = strings.ReplaceAll(text, "\x00", "�")
	}
	if strings.IndexByte(text, '\r') >= 0 {
		text = strings.ReplaceAll(text, "\r\n", "\n")
		text = strings.ReplaceAll(text, "\r", "\n")
	}
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// blockState is the state of a single call to [*Parser.Parse].
type blockState struct {
	maxDepth int
	refMap   ReferenceMap
	// jobs is the work list of container contents still to be split into blocks.
	jobs []blockJob
	// unparsed is the list of text runs to scan for inlines
	// once all link reference definitions are known.
	unparsed []unparsedText
}

// blockJob is a sequence of lines that forms the content of a container.
type blockJob struct {
	lines []string
	depth int
	dst   *[]Block
	// If loose is not nil, it is set to true
	// when blank lines separate two blocks of the content.
	loose *bool
}

type unparsedText struct {
	dst  *[]Inline
	text string
}

func (state *blockState) collectInline(dst *[]Inline, text string) {
	state.unparsed = append(state.unparsed, unparsedText{dst: dst, text: text})
}

// canNest reports whether a container can be opened at the given depth.
func (state *blockState) canNest(depth int) bool {
	return depth < state.maxDepth
}

// parseBlocks splits the job's lines into blocks.
// Block starts are tried in a fixed priority order:
// code fence, thematic break, heading, block quote, list, table,
// HTML block, and finally paragraph.
func (state *blockState) parseBlocks(job blockJob) {
	lines := job.lines
	var blocks []Block
	sawBlank := false
	for i := 0; i < len(lines); {
		line := lines[i]
		if isBlankLine(line) {
			sawBlank = len(blocks) > 0
			i++
			continue
		}
		if sawBlank && job.loose != nil {
			*job.loose = true
		}
		sawBlank = false

		if f, ok := parseCodeFence(line); ok {
			b, n := parseFencedCode(lines[i:], f)
			blocks = append(blocks, b)
			i += n
			continue
		}
		if isThematicBreak(line) {
			blocks = append(blocks, new(ThematicBreak))
			i++
			continue
		}
		if h := parseATXHeading(line); h.level > 0 {
			b := &Heading{Level: h.level}
			state.collectInline(&b.Children, h.content)
			blocks = append(blocks, b)
			i++
			continue
		}
		if _, ok := parseBlockQuote(line); ok && state.canNest(job.depth) {
			b, n := state.parseBlockQuote(lines[i:], job.depth)
			blocks = append(blocks, b)
			i += n
			continue
		}
		if m, ok := parseListMarker(line); ok && state.canNest(job.depth) {
			b, n := state.parseList(lines[i:], m, job.depth)
			blocks = append(blocks, b)
			i += n
			continue
		}
		if i+1 < len(lines) && isTableStart(line, lines[i+1]) {
			b, n := state.parseTable(lines[i:])
			blocks = append(blocks, b)
			i += n
			continue
		}
		if isHTMLBlockStart(line) {
			b, n := parseHTMLBlock(lines[i:])
			blocks = append(blocks, b)
			i += n
			continue
		}
		b, n := state.parseParagraph(lines[i:], job.depth)
		if b != nil {
			blocks = append(blocks, b)
		}
		i += n
	}
	*job.dst = blocks
}

// interruptsParagraph reports whether lines[i] starts a block
// that ends a paragraph (or a lazy continuation) in progress.
func (state *blockState) interruptsParagraph(lines []string, i int, depth int) bool {
	line := lines[i]
	if _, ok := parseCodeFence(line); ok {
		return true
	}
	if isThematicBreak(line) {
		return true
	}
	if parseATXHeading(line).level > 0 {
		return true
	}
	if _, ok := parseBlockQuote(line); ok && state.canNest(depth) {
		return true
	}
	if m, ok := parseListMarker(line); ok && state.canNest(depth) &&
		m.content != "" && (!m.ordered || m.start == 1) {
		// Empty items and ordered lists not starting at 1
		// would otherwise turn ordinary prose into lists.
		return true
	}
	return i+1 < len(lines) && isTableStart(line, lines[i+1])
}

// parseFencedCode collects the lines of a fenced code block,
// starting with the opening fence.
// An unclosed fence runs to the end of the lines.
func parseFencedCode(lines []string, f codeFence) (b *CodeBlock, n int) {
	b = &CodeBlock{
		Info:     unescapeBackslashes(f.info),
		Language: f.language(),
	}
	sb := new(strings.Builder)
	n = 1
	for ; n < len(lines); n++ {
		line := lines[n]
		if f.closes(line) {
			n++
			break
		}
		if f.indent > 0 {
			line = stripIndent(expandIndent(line), f.indent)
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	b.Text = sb.String()
	return b, n
}

// parseBlockQuote collects the lines of a block quote
// and schedules its content to be parsed one level deeper.
func (state *blockState) parseBlockQuote(lines []string, depth int) (b *BlockQuote, n int) {
	b = new(BlockQuote)
	var inner []string
	lastBlank := false
	for ; n < len(lines); n++ {
		line := lines[n]
		if rest, ok := parseBlockQuote(line); ok {
			inner = append(inner, rest)
			lastBlank = isBlankLine(rest)
			continue
		}
		if isBlankLine(line) || lastBlank || state.interruptsParagraph(lines, n, depth) {
			break
		}
		// Lazy continuation line.
		inner = append(inner, line)
	}
	state.jobs = append(state.jobs, blockJob{
		lines: inner,
		depth: depth + 1,
		dst:   &b.Children,
	})
	return b, n
}

// parseList collects the items of a list starting with the given marker
// and schedules each item's content to be parsed one level deeper.
func (state *blockState) parseList(lines []string, first listMarker, depth int) (b *List, n int) {
	b = &List{
		Ordered: first.ordered,
		Start:   first.start,
		Marker:  first.char,
	}
	for n < len(lines) {
		m, ok := parseListMarker(lines[n])
		if !ok || !m.continues(first) || isThematicBreak(lines[n]) {
			break
		}
		if len(b.Items) > 0 && isBlankLine(lines[n-1]) {
			b.Loose = true
		}

		itemLines := []string{m.content}
		for n++; n < len(lines); n++ {
			line := lines[n]
			if isBlankLine(line) {
				itemLines = append(itemLines, "")
				continue
			}
			if expanded := expandIndent(line); indentWidth(expanded) >= m.contentCol {
				itemLines = append(itemLines, stripIndent(expanded, m.contentCol))
				continue
			}
			if itemLines[len(itemLines)-1] == "" || state.interruptsParagraph(lines, n, depth) {
				break
			}
			if _, ok := parseListMarker(line); ok {
				break
			}
			// Lazy continuation line.
			itemLines = append(itemLines, line)
		}
		for len(itemLines) > 1 && itemLines[len(itemLines)-1] == "" {
			itemLines = itemLines[:len(itemLines)-1]
		}

		item := new(ListItem)
		b.Items = append(b.Items, item)
		state.jobs = append(state.jobs, blockJob{
			lines: itemLines,
			depth: depth + 1,
			dst:   &item.Children,
			loose: &b.Loose,
		})
	}
	return b, n
}

// parseTable parses a table starting at its header row.
// The caller must have checked the header and delimiter rows with isTableStart.
func (state *blockState) parseTable(lines []string) (b *Table, n int) {
	align, _ := parseTableDelimiter(lines[1])
	b = &Table{
		Header: state.tableRow(lines[0], len(align)),
		Align:  align,
	}
	for n = 2; n < len(lines); n++ {
		line := lines[n]
		if isBlankLine(line) || !hasTablePipe(line) {
			break
		}
		if _, ok := parseCodeFence(line); ok ||
			isThematicBreak(line) ||
			parseATXHeading(line).level > 0 {
			break
		}
		if _, ok := parseBlockQuote(line); ok {
			break
		}
		b.Rows = append(b.Rows, state.tableRow(line, len(align)))
	}
	return b, n
}

// tableRow splits a line into exactly width cells,
// padding with empty cells or dropping excess ones.
func (state *blockState) tableRow(line string, width int) []*TableCell {
	texts := splitTableRow(line)
	row := make([]*TableCell, width)
	for i := range row {
		row[i] = new(TableCell)
		if i < len(texts) {
			state.collectInline(&row[i].Children, texts[i])
		}
	}
	return row
}

// parseParagraph collects paragraph lines
// up to a blank line or a line that starts another block.
// Link reference definitions at the start of the paragraph are recorded
// and removed; b is nil if nothing remains.
func (state *blockState) parseParagraph(lines []string, depth int) (b *Paragraph, n int) {
	n = 1
	for n < len(lines) && !isBlankLine(lines[n]) && !state.interruptsParagraph(lines, n, depth) {
		n++
	}

	start := 0
	for start < n {
		label, def, ok := parseLinkReferenceDefinition(lines[start])
		if !ok {
			break
		}
		if _, exists := state.refMap[label]; !exists {
			state.refMap[label] = def
		}
		start++
	}
	if start == n {
		return nil, n
	}

	text := new(strings.Builder)
	for i, line := range lines[start:n] {
		if i > 0 {
			text.WriteByte('\n')
		}
		text.WriteString(strings.TrimLeft(line, " \t"))
	}
	b = new(Paragraph)
	state.collectInline(&b.Children, strings.TrimRight(text.String(), " \t"))
	return b, n
}
