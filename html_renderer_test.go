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
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"zombiezen.com/go/markdown/internal/normhtml"
)

func TestHTMLRenderer(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "Paragraph",
			input: "Hello, **World**!",
			want:  "<p>Hello, <strong>World</strong>!</p>\n",
		},
		{
			name:  "EscapeText",
			input: `a < b & "c" 'd' > e`,
			want:  "<p>a &lt; b &amp; &quot;c&quot; &#39;d&#39; &gt; e</p>\n",
		},
		{
			name:  "CodeBlockVerbatim",
			input: "```js\n<b>&</b> *not em*\n```",
			want:  "<pre><code class=\"language-js\">&lt;b&gt;&amp;&lt;/b&gt; *not em*\n</code></pre>\n",
		},
		{
			name:  "CodeBlockLanguageEscaped",
			input: "```a\"b\nx\n```",
			want:  "<pre><code class=\"language-a&quot;b\">x\n</code></pre>\n",
		},
		{
			name:  "Headings",
			input: "# One\n### Three\n###### Six\n####### Seven",
			want:  "<h1>One</h1>\n<h3>Three</h3>\n<h6>Six</h6>\n<p>####### Seven</p>\n",
		},
		{
			name:  "ThematicBreak",
			input: "a\n\n---\n\nb",
			want:  "<p>a</p>\n<hr>\n<p>b</p>\n",
		},
		{
			name:  "BlockQuote",
			input: "> a\n>\n> b",
			want:  "<blockquote>\n<p>a</p>\n<p>b</p>\n</blockquote>\n",
		},
		{
			name:  "TightList",
			input: "- a\n- b",
			want:  "<ul>\n<li>a</li>\n<li>b</li>\n</ul>\n",
		},
		{
			name:  "LooseList",
			input: "1. a\n\n2. b",
			want:  "<ol>\n<li>\n<p>a</p>\n</li>\n<li>\n<p>b</p>\n</li>\n</ol>\n",
		},
		{
			name:  "OrderedListStart",
			input: "3. x",
			want:  "<ol start=\"3\">\n<li>x</li>\n</ol>\n",
		},
		{
			name:  "NestedList",
			input: "- a\n  - b",
			want:  "<ul>\n<li>a\n<ul>\n<li>b</li>\n</ul>\n</li>\n</ul>\n",
		},
		{
			name:  "EmptyListItem",
			input: "-\n- b",
			want:  "<ul>\n<li></li>\n<li>b</li>\n</ul>\n",
		},
		{
			name:  "Table",
			input: "| a | b |\n|:-|-|\n| 1 | 2 |",
			want: "<table>\n<thead>\n<tr>\n<th align=\"left\">a</th>\n<th>b</th>\n</tr>\n</thead>\n" +
				"<tbody>\n<tr>\n<td align=\"left\">1</td>\n<td>2</td>\n</tr>\n</tbody>\n</table>\n",
		},
		{
			name:  "TableHeaderOnly",
			input: "| a |\n| :-: |",
			want:  "<table>\n<thead>\n<tr>\n<th align=\"center\">a</th>\n</tr>\n</thead>\n</table>\n",
		},
		{
			name:  "Emphasis",
			input: "*a* _b_ ~~c~~",
			want:  "<p><em>a</em> <em>b</em> <del>c</del></p>\n",
		},
		{
			name:  "UnmatchedDelimiterLiteral",
			input: "**a",
			want:  "<p>**a</p>\n",
		},
		{
			name:  "CodeSpan",
			input: "`<a>`",
			want:  "<p><code>&lt;a&gt;</code></p>\n",
		},
		{
			name:  "HardBreak",
			input: "a  \nb",
			want:  "<p>a<br>\nb</p>\n",
		},
		{
			name:  "Link",
			input: `[x](http://a.com/ä "t")`,
			want:  "<p><a href=\"http://a.com/%C3%A4\" title=\"t\">x</a></p>\n",
		},
		{
			name:  "LinkTitleEscaped",
			input: `[x](/y "<\"q\">")`,
			want:  "<p><a href=\"/y\" title=\"&lt;&quot;q&quot;&gt;\">x</a></p>\n",
		},
		{
			name:  "Image",
			input: `![a *b*](/i.png "t")`,
			want:  "<p><img src=\"/i.png\" alt=\"a b\" title=\"t\"></p>\n",
		},
		{
			name:  "JavaScriptLink",
			input: "[click](javascript:alert(1))",
			want:  "<p>click</p>\n",
		},
		{
			name:  "ObfuscatedJavaScriptLink",
			input: "[click](<JaVa\tScRiPt:alert(1)>)",
			want:  "<p>click</p>\n",
		},
		{
			name:  "VBScriptLink",
			input: "[*click*](VBSCRIPT:msgbox)",
			want:  "<p><em>click</em></p>\n",
		},
		{
			name:  "DataHTMLLink",
			input: "[x](data:text/html,boom)",
			want:  "<p>x</p>\n",
		},
		{
			name:  "JavaScriptImage",
			input: "![a <b>](javascript:x)",
			want:  "<p>a &lt;b&gt;</p>\n",
		},
		{
			name:  "DataImage",
			input: "![a](data:image/png;base64,xx)",
			want:  "<p><img src=\"data:image/png;base64,xx\" alt=\"a\"></p>\n",
		},
		{
			name:  "ReferenceJavaScriptLink",
			input: "[x]\n\n[x]: javascript:alert(1)",
			want:  "<p>x</p>\n",
		},
		{
			name:  "HTMLBlockEscaped",
			input: "<script>alert('x')</script>",
			want:  "<p>&lt;script&gt;alert(&#39;x&#39;)&lt;/script&gt;</p>\n",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := Convert(test.input)
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("Convert(%q) (-want +got):\n%s", test.input, diff)
			}
		})
	}
}

func TestHTMLRendererAllowRawHTML(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "Passthrough",
			input: "<div class=\"note\">\n<b>hi</b>\n</div>",
			want:  "<div class=\"note\">\n<b>hi</b>\n</div>\n",
		},
		{
			name:  "Script",
			input: "<div><script>steal()</script>ok</div>",
			want:  "<div>ok</div>\n",
		},
		{
			name:  "Style",
			input: "<style>body { display: none }</style>",
			want:  "\n",
		},
		{
			name:  "EventHandler",
			input: "<img src=\"/a.png\" onerror=\"steal()\" ONLOAD=\"x\">",
			want:  "<img src=\"/a.png\">\n",
		},
		{
			name:  "JavaScriptHref",
			input: "<a href=\" javascript:steal()\">x</a>",
			want:  "<a>x</a>\n",
		},
		{
			name:  "EntityEncodedScheme",
			input: "<a href=\"javascript&#58;steal()\">x</a>",
			want:  "<a>x</a>\n",
		},
		{
			name:  "IframeSrcdoc",
			input: "<iframe srcdoc=\"&lt;script&gt;alert(1)&lt;/script&gt;\"></iframe>",
			want:  "\n",
		},
		{
			name:  "ObjectData",
			input: "<object data=\"javascript:alert(1)\"></object>",
			want:  "\n",
		},
		{
			name:  "MetaRefresh",
			input: "<meta http-equiv=\"refresh\" content=\"0;url=javascript:alert(1)\">",
			want:  "\n",
		},
		{
			name:  "EmbedAndBase",
			input: "<p><embed src=\"/x.swf\"><base href=\"/\">ok</p>",
			want:  "<p>ok</p>\n",
		},
		{
			name:  "DocumentAttributes",
			input: "<div data=\"javascript:alert(1)\" srcdoc=\"x\" title=\"t\">z</div>",
			want:  "<div title=\"t\">z</div>\n",
		},
		{
			name:  "Comment",
			input: "<!-- secret -->",
			want:  "\n",
		},
		{
			name:  "TextEscaped",
			input: "<p>a &amp; b</p>",
			want:  "<p>a &amp; b</p>\n",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			r := &HTMLRenderer{AllowRawHTML: true}
			got := string(r.AppendHTML(nil, Parse(test.input)))
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("output (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRenderHTMLWriteError(t *testing.T) {
	errWrite := errors.New("bork")
	err := RenderHTML(errWriter{errWrite}, Parse("Hello"))
	if !errors.Is(err, errWrite) {
		t.Errorf("RenderHTML(...) = %v; want %v", err, errWrite)
	}
}

type errWriter struct {
	err error
}

func (w errWriter) Write(p []byte) (int, error) {
	return 0, w.err
}

func TestHTMLRendererNestedListStructure(t *testing.T) {
	const input = "- a\n" +
		"  - b\n" +
		"    - c\n" +
		"    - d\n" +
		"  - e\n" +
		"- f\n"
	got := Convert(input)
	if bad := normhtml.UnbalancedTags(got); len(bad) > 0 {
		t.Errorf("Convert(%q) has unbalanced tags %q:\n%s", input, bad, got)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(got))
	if err != nil {
		t.Fatal(err)
	}
	counts := []struct {
		selector string
		want     int
	}{
		{"ul", 3},
		{"li", 6},
		{"body > ul > li", 2},
		{"body > ul > li > ul > li", 2},
		{"body > ul > li > ul > li > ul > li", 2},
		{"p", 0},
	}
	for _, c := range counts {
		if n := doc.Find(c.selector).Length(); n != c.want {
			t.Errorf("%s matches %d elements; want %d", c.selector, n, c.want)
		}
	}
	if got, want := doc.Find("body > ul > li > ul > li > ul > li").Last().Text(), "d"; got != want {
		t.Errorf("innermost last item = %q; want %q", got, want)
	}
}

func TestHTMLRendererDocument(t *testing.T) {
	const input = "# Notes\n" +
		"\n" +
		"Some *text* with a [link][ref].\n" +
		"\n" +
		"> - quoted\n" +
		">   item\n" +
		"\n" +
		"```\n" +
		"code\n" +
		"```\n" +
		"\n" +
		"[ref]: https://example.com/\n"
	const want = "<h1>Notes</h1>" +
		"<p>Some <em>text</em> with a <a href=\"https://example.com/\">link</a>.</p>" +
		"<blockquote><ul><li>quoted item</li></ul></blockquote>" +
		"<pre><code>code\n</code></pre>"
	got := Convert(input)
	if diff := cmp.Diff(normhtml.NormalizeHTML(want), normhtml.NormalizeHTML(got)); diff != "" {
		t.Errorf("Convert(...) (-want +got):\n%s", diff)
	}
}

func TestHTMLRendererDeepNesting(t *testing.T) {
	input := strings.Repeat(">", 10000) + " deep"
	got := Convert(input)
	if n := strings.Count(got, "<blockquote>"); n != DefaultMaxNesting {
		t.Errorf("got %d <blockquote> tags; want %d", n, DefaultMaxNesting)
	}
	if bad := normhtml.UnbalancedTags(got); len(bad) > 0 {
		t.Errorf("unbalanced tags: %q", bad)
	}
	if !strings.Contains(got, "&gt;&gt;&gt; deep") {
		t.Error("output does not contain excess markers as text")
	}
}

// nodeSamples returns one node of every kind.
func nodeSamples() []Node {
	return []Node{
		para("p"),
		&Heading{Level: 2, Children: text("h")},
		new(ThematicBreak),
		&CodeBlock{Language: "go", Text: "x\n"},
		&HTMLBlock{Text: "<div>x</div>"},
		&BlockQuote{Children: []Block{para("q")}},
		&List{Items: []*ListItem{{Children: []Block{para("i")}}}},
		&ListItem{Children: []Block{para("i")}},
		&Table{
			Header: []*TableCell{cell("h")},
			Align:  []Alignment{AlignRight},
			Rows:   [][]*TableCell{{cell("c")}},
		},
		cell("c"),
		&Text{Content: "t"},
		&Emphasis{Children: text("e")},
		&Strong{Children: text("s")},
		&Strikethrough{Children: text("d")},
		&CodeSpan{Content: "c"},
		&Link{Children: text("l"), Destination: "/l"},
		&Image{Alt: "i", Destination: "/i.png"},
		new(LineBreak),
	}
}

func TestNodeKindsHandled(t *testing.T) {
	blockKinds := make(map[BlockKind]bool)
	inlineKinds := make(map[InlineKind]bool)
	for _, n := range nodeSamples() {
		switch n := n.(type) {
		case Block:
			blockKinds[n.Kind()] = true
		case Inline:
			inlineKinds[n.Kind()] = true
		}
	}
	for k := BlockKind(1); k < blockKindEnd; k++ {
		if !blockKinds[k] {
			t.Errorf("no sample for %v", k)
		}
	}
	for k := InlineKind(1); k < inlineKindEnd; k++ {
		if !inlineKinds[k] {
			t.Errorf("no sample for %v", k)
		}
	}

	// Every sample must render without faulting.
	var blocks []Block
	for _, n := range nodeSamples() {
		switch n := n.(type) {
		case *ListItem:
			blocks = append(blocks, &List{Items: []*ListItem{n}})
		case *TableCell:
			blocks = append(blocks, &Table{Header: []*TableCell{n}})
		case Block:
			blocks = append(blocks, n)
		case Inline:
			blocks = append(blocks, &Paragraph{Children: []Inline{n}})
		}
	}
	for _, allowRaw := range []bool{false, true} {
		r := &HTMLRenderer{AllowRawHTML: allowRaw}
		got := string(r.AppendHTML(nil, blocks))
		if bad := normhtml.UnbalancedTags(got); len(bad) > 0 {
			t.Errorf("AllowRawHTML=%t: unbalanced tags %q in:\n%s", allowRaw, bad, got)
		}
	}
}

func TestIsSafeURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"", true},
		{"/relative/path", true},
		{"page.html#frag", true},
		{"https://example.com/", true},
		{"mailto:a@example.com", true},
		{"./javascript:x", true},
		{"javascript:alert(1)", false},
		{"JAVASCRIPT:alert(1)", false},
		{" java\nscript:alert(1)", false},
		{"java\x00script:alert(1)", false},
		{"vbscript:msgbox", false},
		{"data:text/html;base64,PHNjcmlwdD4=", false},
		{"data:image/png;base64,iVBOR", true},
		{"DATA:image/webp;base64,x", true},
		{"data:image/svg+xml,<svg>", false},
	}
	for _, test := range tests {
		if got := IsSafeURL(test.url); got != test.want {
			t.Errorf("IsSafeURL(%q) = %t; want %t", test.url, got, test.want)
		}
	}
}

func TestNormalizeURI(t *testing.T) {
	tests := []struct {
		s    string
		want string
	}{
		{"/a b", "/a%20b"},
		{"/ä", "/%C3%A4"},
		{"/%20", "/%20"},
		{"/%zz", "/%25zz"},
		{"/a?b=c&d#e", "/a?b=c&d#e"},
	}
	for _, test := range tests {
		if got := NormalizeURI(test.s); got != test.want {
			t.Errorf("NormalizeURI(%q) = %q; want %q", test.s, got, test.want)
		}
	}
}
