// Copyright 2024 Ross Light
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
	"log"
	"runtime/debug"

	"golang.org/x/net/html/atom"
)

// ErrorMarker is the HTML emitted in place of a document
// that could not be converted.
// It is followed by the escaped source text in a <pre> element.
const ErrorMarker = `<p class="render-error">Failed to render preview.</p>` + "\n"

// Convert converts Markdown text to HTML using the default options.
// Convert never fails: if conversion faults,
// the result is [ErrorMarker] followed by the escaped input.
// It is safe to call from multiple goroutines.
func Convert(markdown string) string {
	return new(Converter).Convert(markdown)
}

// A Converter converts Markdown text to HTML.
// The zero value uses the default options.
// A Converter is safe to use from multiple goroutines
// as long as its fields are not modified.
type Converter struct {
	// If AllowRawHTML is true, HTML blocks are filtered and emitted as HTML.
	// See [HTMLRenderer] for details.
	AllowRawHTML bool
	// MaxNesting is the maximum depth of nested block quotes and lists.
	// If MaxNesting is zero, DefaultMaxNesting is used.
	MaxNesting int
	// ErrorLog receives a report of any fault recovered during conversion.
	// If ErrorLog is nil, faults are not reported.
	ErrorLog *log.Logger
}

// Convert converts Markdown text to HTML.
func (c *Converter) Convert(markdown string) string {
	return c.convertSafely(markdown, func() []byte {
		blocks := (&Parser{MaxNesting: c.MaxNesting}).Parse(markdown)
		r := &HTMLRenderer{AllowRawHTML: c.AllowRawHTML}
		return r.AppendHTML(nil, blocks)
	})
}

// convertSafely calls f and returns its result as a string.
// If f panics, the panic is logged and a fallback rendering is returned.
func (c *Converter) convertSafely(markdown string, f func() []byte) (html string) {
	defer func() {
		v := recover()
		if v == nil {
			return
		}
		if c.ErrorLog != nil {
			c.ErrorLog.Printf("convert markdown: %v\n%s", v, debug.Stack())
		}
		html = string(appendFallback(nil, markdown))
	}()
	return string(f())
}

// appendFallback appends the HTML shown for a document that failed to convert.
func appendFallback(dst []byte, markdown string) []byte {
	dst = append(dst, ErrorMarker...)
	dst = append(dst, '<')
	dst = append(dst, atom.Pre.String()...)
	dst = append(dst, '>')
	dst = escapeHTML(dst, markdown)
	dst = append(dst, "</"...)
	dst = append(dst, atom.Pre.String()...)
	dst = append(dst, ">\n"...)
	return dst
}
