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
	"testing"

	"github.com/google/go-cmp/cmp"
)

func text(s string) []Inline {
	return []Inline{&Text{Content: s}}
}

func para(s string) *Paragraph {
	return &Paragraph{Children: text(s)}
}

func cell(s string) *TableCell {
	return &TableCell{Children: text(s)}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Block
	}{
		{
			name:  "Empty",
			input: "",
			want:  nil,
		},
		{
			name:  "BlankLines",
			input: "\n\n  \n",
			want:  nil,
		},
		{
			name:  "Paragraphs",
			input: "a\nb\n\nc\n",
			want:  []Block{para("a b"), para("c")},
		},
		{
			name:  "CRLF",
			input: "a\r\nb\r\n",
			want:  []Block{para("a b")},
		},
		{
			name:  "NUL",
			input: "Hello,\x00World",
			want:  []Block{para("Hello,�World")},
		},
		{
			name:  "Heading",
			input: "# Title",
			want:  []Block{&Heading{Level: 1, Children: text("Title")}},
		},
		{
			name:  "HeadingClosingSequence",
			input: "## Title ##",
			want:  []Block{&Heading{Level: 2, Children: text("Title")}},
		},
		{
			name:  "HeadingLevel6",
			input: "###### Six",
			want:  []Block{&Heading{Level: 6, Children: text("Six")}},
		},
		{
			name:  "SevenHashes",
			input: "####### x",
			want:  []Block{para("####### x")},
		},
		{
			name:  "HashWithoutSpace",
			input: "#hashtag",
			want:  []Block{para("#hashtag")},
		},
		{
			name:  "ThematicBreaks",
			input: "---\n***\n- - -\n___",
			want: []Block{
				new(ThematicBreak),
				new(ThematicBreak),
				new(ThematicBreak),
				new(ThematicBreak),
			},
		},
		{
			name:  "FencedCode",
			input: "```go\nfunc main() {\n\t*x*\n}\n```\n",
			want: []Block{&CodeBlock{
				Info:     "go",
				Language: "go",
				Text:     "func main() {\n\t*x*\n}\n",
			}},
		},
		{
			name:  "FencedCodeInfoWords",
			input: "~~~ js title=\"x\"\nlet a;\n~~~",
			want: []Block{&CodeBlock{
				Info:     `js title="x"`,
				Language: "js",
				Text:     "let a;\n",
			}},
		},
		{
			name:  "UnclosedFence",
			input: "```\na\n\nb",
			want:  []Block{&CodeBlock{Text: "a\n\nb\n"}},
		},
		{
			name:  "ShortCloserDoesNotClose",
			input: "````\na\n```\n````",
			want:  []Block{&CodeBlock{Text: "a\n```\n"}},
		},
		{
			name:  "BlockQuote",
			input: "> a\n> b",
			want:  []Block{&BlockQuote{Children: []Block{para("a b")}}},
		},
		{
			name:  "BlockQuoteLazyContinuation",
			input: "> quote\ncontinued",
			want:  []Block{&BlockQuote{Children: []Block{para("quote continued")}}},
		},
		{
			name:  "BlockQuoteEndsAtBlank",
			input: "> a\n\nb",
			want: []Block{
				&BlockQuote{Children: []Block{para("a")}},
				para("b"),
			},
		},
		{
			name:  "NestedBlockQuote",
			input: "> > a",
			want: []Block{&BlockQuote{Children: []Block{
				&BlockQuote{Children: []Block{para("a")}},
			}}},
		},
		{
			name:  "TightBulletList",
			input: "- a\n- b",
			want: []Block{&List{
				Marker: '-',
				Items: []*ListItem{
					{Children: []Block{para("a")}},
					{Children: []Block{para("b")}},
				},
			}},
		},
		{
			name:  "LooseOrderedList",
			input: "1. a\n\n2. b",
			want: []Block{&List{
				Ordered: true,
				Start:   1,
				Marker:  '.',
				Loose:   true,
				Items: []*ListItem{
					{Children: []Block{para("a")}},
					{Children: []Block{para("b")}},
				},
			}},
		},
		{
			name:  "LooseItemContent",
			input: "- a\n\n  b",
			want: []Block{&List{
				Marker: '-',
				Loose:  true,
				Items: []*ListItem{
					{Children: []Block{para("a"), para("b")}},
				},
			}},
		},
		{
			name:  "OrderedStart",
			input: "3) x",
			want: []Block{&List{
				Ordered: true,
				Start:   3,
				Marker:  ')',
				Items: []*ListItem{
					{Children: []Block{para("x")}},
				},
			}},
		},
		{
			name:  "NestedList",
			input: "- a\n  - b",
			want: []Block{&List{
				Marker: '-',
				Items: []*ListItem{
					{Children: []Block{
						para("a"),
						&List{
							Marker: '-',
							Items: []*ListItem{
								{Children: []Block{para("b")}},
							},
						},
					}},
				},
			}},
		},
		{
			name:  "ListMarkerChangeStartsNewList",
			input: "- a\n+ b",
			want: []Block{
				&List{Marker: '-', Items: []*ListItem{{Children: []Block{para("a")}}}},
				&List{Marker: '+', Items: []*ListItem{{Children: []Block{para("b")}}}},
			},
		},
		{
			name:  "ListLazyContinuation",
			input: "- a\nb",
			want: []Block{&List{
				Marker: '-',
				Items: []*ListItem{
					{Children: []Block{para("a b")}},
				},
			}},
		},
		{
			name:  "OrderedListCannotInterruptUnlessOne",
			input: "a\n2. b",
			want:  []Block{para("a 2. b")},
		},
		{
			name:  "BulletListInterruptsParagraph",
			input: "a\n- b",
			want: []Block{
				para("a"),
				&List{Marker: '-', Items: []*ListItem{{Children: []Block{para("b")}}}},
			},
		},
		{
			name:  "Table",
			input: "| a | b |\n|:--|--:|\n| 1 | 2 |\n| 3 |\n| 4 | 5 | 6 |",
			want: []Block{&Table{
				Header: []*TableCell{cell("a"), cell("b")},
				Align:  []Alignment{AlignLeft, AlignRight},
				Rows: [][]*TableCell{
					{cell("1"), cell("2")},
					{cell("3"), new(TableCell)},
					{cell("4"), cell("5")},
				},
			}},
		},
		{
			name:  "TableEscapedPipe",
			input: "a | b\n--- | :-:\n`x\\|y` | z",
			want: []Block{&Table{
				Header: []*TableCell{cell("a"), cell("b")},
				Align:  []Alignment{AlignNone, AlignCenter},
				Rows: [][]*TableCell{
					{{Children: []Inline{&CodeSpan{Content: "x|y"}}}, cell("z")},
				},
			}},
		},
		{
			name:  "TableColumnMismatch",
			input: "| a | b |\n| --- |",
			want:  []Block{para("| a | b | | --- |")},
		},
		{
			name:  "TableEndsAtLineWithoutPipe",
			input: "| a |\n| - |\n| 1 |\nafter",
			want: []Block{
				&Table{
					Header: []*TableCell{cell("a")},
					Align:  []Alignment{AlignNone},
					Rows:   [][]*TableCell{{cell("1")}},
				},
				para("after"),
			},
		},
		{
			name:  "HTMLBlock",
			input: "<div>\n*hi*\n</div>\n\nafter",
			want: []Block{
				&HTMLBlock{Text: "<div>\n*hi*\n</div>"},
				para("after"),
			},
		},
		{
			name:  "HTMLComment",
			input: "<!-- note -->",
			want:  []Block{&HTMLBlock{Text: "<!-- note -->"}},
		},
		{
			name:  "HTMLCannotInterruptParagraph",
			input: "a\n<div>",
			want:  []Block{para("a <div>")},
		},
		{
			name:  "LessThanIsNotHTML",
			input: "< 3",
			want:  []Block{para("< 3")},
		},
		{
			name:  "LinkReferenceDefinition",
			input: "[foo]: /url \"T\"\n\n[foo]",
			want: []Block{&Paragraph{Children: []Inline{&Link{
				Children:     text("foo"),
				Destination:  "/url",
				Title:        "T",
				TitlePresent: true,
			}}}},
		},
		{
			name:  "FirstDefinitionWins",
			input: "[a]: /1\n[a]: /2\n\n[a]",
			want: []Block{&Paragraph{Children: []Inline{&Link{
				Children:    text("a"),
				Destination: "/1",
			}}}},
		},
		{
			name:  "DefinitionUsedBeforeDeclared",
			input: "[x][]\n\n[X]: <a b>",
			want: []Block{&Paragraph{Children: []Inline{&Link{
				Children:    text("x"),
				Destination: "a b",
			}}}},
		},
		{
			name:  "DefinitionThenText",
			input: "[a]: /1\ntext",
			want:  []Block{para("text")},
		},
		{
			name:  "InvalidDefinitionIsText",
			input: "[a]: /1 junk",
			want:  []Block{para("[a]: /1 junk")},
		},
		{
			name:  "IndentedMarkersAreText",
			input: "    # not a heading",
			want:  []Block{para("# not a heading")},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := Parse(test.input)
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("Parse(%q) (-want +got):\n%s", test.input, diff)
			}
		})
	}
}

func TestParseMaxNesting(t *testing.T) {
	p := &Parser{MaxNesting: 2}
	got := p.Parse("> > > x")
	want := []Block{&BlockQuote{Children: []Block{
		&BlockQuote{Children: []Block{para("> x")}},
	}}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Parse(...) (-want +got):\n%s", diff)
	}
}

func TestParseDeepNesting(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  BlockKind
	}{
		{
			name:  "BlockQuotes",
			input: strings.Repeat(">", 10000) + " deep",
			kind:  BlockQuoteKind,
		},
		{
			name:  "Lists",
			input: strings.Repeat("- ", 10000) + "deep",
			kind:  ListKind,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			blocks := Parse(test.input)
			depth := 0
			WalkBlocks(blocks, &WalkOptions{
				Pre: func(c *Cursor) bool {
					if b, ok := c.Node().(Block); ok && b.Kind() == test.kind {
						depth++
					}
					return true
				},
			})
			if depth != DefaultMaxNesting {
				t.Errorf("nesting depth = %d; want %d", depth, DefaultMaxNesting)
			}
		})
	}
}

func FuzzParse(f *testing.F) {
	f.Add("# Hello\n\n*World*")
	f.Add("- a\n  - b\n\n> c")
	f.Add("| a |\n| - |\n| b |")
	f.Add("[x]: /y\n\n[x] ![z](/w)")
	f.Fuzz(func(t *testing.T, markdown string) {
		blocks := Parse(markdown)
		WalkBlocks(blocks, &WalkOptions{
			Pre: func(c *Cursor) bool {
				switch n := c.Node().(type) {
				case *Heading:
					if n.Level < 1 || n.Level > 6 {
						t.Errorf("heading level %d out of range", n.Level)
					}
				case *Table:
					for i, row := range n.Rows {
						if len(row) != len(n.Header) {
							t.Errorf("table row %d has %d cells; want %d", i, len(row), len(n.Header))
						}
					}
				}
				return true
			},
		})
	})
}
