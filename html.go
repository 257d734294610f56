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
	"unicode"
	"unicode/utf8"

	"go4.org/bytereplacer"
	"golang.org/x/text/cases"
)

var htmlEscaper = bytereplacer.New(
	"&", "&amp;",
	`'`, "&#39;", // "&#39;" is shorter than "&apos;" and apos was not in HTML until HTML5.
	`<`, "&lt;",
	`>`, "&gt;",
	`"`, "&quot;",
)

// escapeHTML appends the HTML-escaped version of a string to dst.
func escapeHTML(dst []byte, s string) []byte {
	// Replace works in place, so it must be given a copy.
	return append(dst, htmlEscaper.Replace([]byte(s))...)
}

// unsafeSchemes is the set of URL schemes that can execute code
// when followed by a browser.
var unsafeSchemes = []string{
	"javascript:",
	"vbscript:",
	"data:",
}

// safeDataPrefixes are the data URLs that are permitted
// despite the data scheme being unsafe in general.
var safeDataPrefixes = []string{
	"data:image/png",
	"data:image/gif",
	"data:image/jpeg",
	"data:image/webp",
}

// IsSafeURL reports whether a link or image destination
// is allowed in rendered output.
// The URL's scheme is compared case-insensitively
// after removing whitespace and control characters,
// so "  JaVa\tScRiPt:alert(1)" is rejected.
// Relative URLs are always safe.
func IsSafeURL(u string) bool {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return -1
		}
		return r
	}, u)
	colon := strings.IndexByte(cleaned, ':')
	if colon < 0 || strings.ContainsAny(cleaned[:colon], "/?#") {
		// No scheme: a relative reference.
		return true
	}
	folded := cases.Fold().String(cleaned)
	for _, prefix := range safeDataPrefixes {
		if strings.HasPrefix(folded, prefix) {
			return true
		}
	}
	for _, scheme := range unsafeSchemes {
		if strings.HasPrefix(folded, scheme) {
			return false
		}
	}
	return true
}

// NormalizeURI percent-encodes any characters in a string
// that are not reserved or unreserved URI characters.
// This is commonly used for transforming Markdown link destinations
// into strings suitable for href or src attributes.
func NormalizeURI(s string) string {
	// RFC 3986 reserved and unreserved characters.
	const safeSet = `;/?:@&=+$,-_.!~*'()#`

	sb := new(strings.Builder)
	sb.Grow(len(s))
	skip := 0
	var buf [utf8.UTFMax]byte
	for i, c := range s {
		if skip > 0 {
			skip--
			sb.WriteRune(c)
			continue
		}
		switch {
		case c == '%':
			if i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]) {
				skip = 2
				sb.WriteByte('%')
			} else {
				sb.WriteString("%25")
			}
		case (c < 0x80 && (isASCIILetter(byte(c)) || isASCIIDigit(byte(c)))) || strings.ContainsRune(safeSet, c):
			sb.WriteRune(c)
		default:
			n := utf8.EncodeRune(buf[:], c)
			for _, b := range buf[:n] {
				sb.WriteByte('%')
				sb.WriteByte(urlHexDigit(b >> 4))
				sb.WriteByte(urlHexDigit(b & 0x0f))
			}
		}
	}
	return sb.String()
}

func isHex(c byte) bool {
	return 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F' || isASCIIDigit(c)
}

func urlHexDigit(x byte) byte {
	switch {
	case x < 0xa:
		return '0' + x
	case x < 0x10:
		return 'A' + x - 0xa
	default:
		panic("out of bounds")
	}
}
