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

// Package stats counts the lines, words, and characters of a document.
package stats

import (
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/rivo/uniseg"
)

// Stats is a summary of the size of a text.
type Stats struct {
	// Lines is the number of newline-separated lines.
	// An empty text has one line.
	Lines int
	// Words is the number of whitespace-separated words.
	Words int
	// Chars is the number of Unicode code points.
	Chars int
	// Graphemes is the number of user-perceived characters.
	Graphemes int
}

// Compute returns the statistics for text.
// Both "\n" and "\r\n" end a line.
func Compute(text string) Stats {
	return Stats{
		Lines:     strings.Count(text, "\n") + 1,
		Words:     len(strings.Fields(text)),
		Chars:     utf8.RuneCountInString(text),
		Graphemes: uniseg.GraphemeClusterCount(text),
	}
}

// String formats the statistics for a status bar,
// like "3 lines · 10 words · 1,234 chars".
func (s Stats) String() string {
	sb := new(strings.Builder)
	writeCount(sb, s.Lines, "line")
	sb.WriteString(" · ")
	writeCount(sb, s.Words, "word")
	sb.WriteString(" · ")
	writeCount(sb, s.Chars, "char")
	return sb.String()
}

func writeCount(sb *strings.Builder, n int, noun string) {
	sb.WriteString(humanize.Comma(int64(n)))
	sb.WriteString(" ")
	sb.WriteString(noun)
	if n != 1 {
		sb.WriteString("s")
	}
}
