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

	"golang.org/x/text/cases"
)

// A type that implements ReferenceMatcher
// can be checked for the presence of link reference definitions.
type ReferenceMatcher interface {
	MatchReference(normalizedLabel string) (LinkDefinition, bool)
}

// LinkDefinition is the data of a [link reference definition].
//
// [link reference definition]: https://spec.commonmark.org/0.30/#link-reference-definition
type LinkDefinition struct {
	Destination  string
	Title        string
	TitlePresent bool
}

// ReferenceMap is a mapping of [normalized labels] to link definitions.
//
// [normalized labels]: https://spec.commonmark.org/0.30/#matches
type ReferenceMap map[string]LinkDefinition

// MatchReference returns the definition for the normalized label, if any.
func (m ReferenceMap) MatchReference(normalizedLabel string) (LinkDefinition, bool) {
	def, ok := m[normalizedLabel]
	return def, ok
}

// maxLinkLabelLength is the maximum number of bytes in a [link label].
//
// [link label]: https://spec.commonmark.org/0.30/#link-label
const maxLinkLabelLength = 999

// NormalizeLinkLabel returns the canonical form of a link label:
// case-folded, trimmed, with internal whitespace collapsed to single spaces.
// It returns the empty string if the label is not valid.
func NormalizeLinkLabel(label string) string {
	if len(label) > maxLinkLabelLength {
		return ""
	}
	label = strings.Join(strings.Fields(label), " ")
	if label == "" {
		return ""
	}
	return cases.Fold().String(label)
}

// parseLinkReferenceDefinition attempts to parse a single-line
// [link reference definition] like `[label]: /url "title"`.
//
// [link reference definition]: https://spec.commonmark.org/0.30/#link-reference-definition
func parseLinkReferenceDefinition(line string) (label string, def LinkDefinition, ok bool) {
	line, _, ok = trimMarkerIndent(line)
	if !ok || !strings.HasPrefix(line, "[") {
		return "", LinkDefinition{}, false
	}
	labelEnd := scanLinkLabel(line, 0)
	if labelEnd < 0 || labelEnd >= len(line) || line[labelEnd] != ':' {
		return "", LinkDefinition{}, false
	}
	label = NormalizeLinkLabel(line[1 : labelEnd-1])
	if label == "" {
		return "", LinkDefinition{}, false
	}

	pos := skipSpaces(line, labelEnd+1)
	if pos >= len(line) {
		return "", LinkDefinition{}, false
	}
	var end int
	def.Destination, end, ok = parseLinkDestination(line, pos)
	if !ok {
		return "", LinkDefinition{}, false
	}
	pos = skipSpaces(line, end)
	if pos > end && pos < len(line) {
		def.Title, end, ok = parseLinkTitle(line, pos)
		if !ok {
			return "", LinkDefinition{}, false
		}
		def.TitlePresent = true
		pos = skipSpaces(line, end)
	}
	if pos < len(line) {
		return "", LinkDefinition{}, false
	}
	return label, def, true
}

// scanLinkLabel returns the position just past the closing bracket
// of the link label that starts with the '[' at start,
// or -1 if there is no valid label.
// Labels may not contain unescaped brackets.
func scanLinkLabel(s string, start int) int {
	if start >= len(s) || s[start] != '[' {
		return -1
	}
	for i := start + 1; i < len(s) && i-start <= maxLinkLabelLength+1; i++ {
		switch s[i] {
		case '\\':
			i++
		case '[':
			return -1
		case ']':
			return i + 1
		}
	}
	return -1
}

func skipSpaces(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n') {
		i++
	}
	return i
}
