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

package markdown_test

import (
	"fmt"
	"os"

	"zombiezen.com/go/markdown"
)

func Example() {
	fmt.Print(markdown.Convert("Hello, **World**!\n"))
	// Output:
	// <p>Hello, <strong>World</strong>!</p>
}

func ExampleParse() {
	// Convert Markdown to a parse tree.
	blocks := markdown.Parse(
		"Hello, [World][]!\n" +
			"\n" +
			"[World]: https://www.example.com/\n",
	)
	// Render parse tree to HTML.
	markdown.RenderHTML(os.Stdout, blocks)
	// Output:
	// <p>Hello, <a href="https://www.example.com/">World</a>!</p>
}

func ExampleWalk() {
	blocks := markdown.Parse("# Title\n\nSee [the docs](/docs) and [the FAQ](/faq).\n")
	for _, b := range blocks {
		markdown.Walk(b, &markdown.WalkOptions{
			Pre: func(c *markdown.Cursor) bool {
				if link, ok := c.Node().(*markdown.Link); ok {
					fmt.Println(link.Destination)
				}
				return true
			},
		})
	}
	// Output:
	// /docs
	// /faq
}

func ExampleConverter() {
	c := &markdown.Converter{AllowRawHTML: true}
	fmt.Print(c.Convert("<div onclick=\"steal()\">Hi</div>\n\n*there*"))
	// Output:
	// <div>Hi</div>
	// <p><em>there</em></p>
}

func ExampleIsSafeURL() {
	fmt.Println(markdown.IsSafeURL("https://example.com/"))
	fmt.Println(markdown.IsSafeURL(" JaVaScRiPt:alert(1)"))
	// Output:
	// true
	// false
}
