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

package store

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/text/cases"
)

// ErrNotFound is returned when no document has the requested ID.
var ErrNotFound = errors.New("document not found")

// ErrEmptyName is returned by [Collection.Rename] for an empty name.
var ErrEmptyName = errors.New("document name is empty")

// WelcomeContent is the content of the document in [DefaultCollection].
const WelcomeContent = "# Welcome to Notebook\n\n" +
	"- Create files on the left\n" +
	"- Edit in the middle\n" +
	"- See preview on the right\n\n" +
	"```js\nconsole.log('Hello Markdown!')\n```"

const untitledName = "Untitled.md"

// Collection is an ordered list of documents, most recently created first.
// A Collection is not safe for concurrent use.
type Collection struct {
	// Now returns the current time.
	// If nil, time.Now is used.
	Now func() time.Time
	// NewID returns a fresh document ID.
	// If nil, random UUIDs are used.
	NewID func() string

	docs []Document
}

// NewCollection returns a collection containing the given documents in order.
// Document IDs must be non-empty and unique.
func NewCollection(docs []Document) (*Collection, error) {
	seen := make(map[string]struct{}, len(docs))
	for i, doc := range docs {
		if doc.ID == "" {
			return nil, errors.Errorf("document %d: missing id", i)
		}
		if _, dup := seen[doc.ID]; dup {
			return nil, errors.Errorf("document %d: duplicate id %q", i, doc.ID)
		}
		seen[doc.ID] = struct{}{}
	}
	return &Collection{docs: append([]Document(nil), docs...)}, nil
}

// DefaultCollection returns a collection holding a single welcome document.
func DefaultCollection() *Collection {
	c := new(Collection)
	c.docs = []Document{{
		ID:        c.newID(),
		Name:      untitledName,
		Content:   WelcomeContent,
		UpdatedAt: c.now(),
	}}
	return c
}

func (c *Collection) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

func (c *Collection) newID() string {
	if c.NewID == nil {
		return uuid.NewString()
	}
	return c.NewID()
}

// Len returns the number of documents in the collection.
func (c *Collection) Len() int {
	return len(c.docs)
}

// List returns a copy of the documents in order.
func (c *Collection) List() []Document {
	return append([]Document(nil), c.docs...)
}

func (c *Collection) index(id string) int {
	for i := range c.docs {
		if c.docs[i].ID == id {
			return i
		}
	}
	return -1
}

// Get returns the document with the given ID.
func (c *Collection) Get(id string) (Document, error) {
	i := c.index(id)
	if i < 0 {
		return Document{}, errors.Wrapf(ErrNotFound, "get %q", id)
	}
	return c.docs[i], nil
}

// Create adds an empty document to the front of the collection
// with the first unused name of "Untitled.md", "Untitled 1.md", "Untitled 2.md", and so on.
func (c *Collection) Create() Document {
	names := make(map[string]struct{}, len(c.docs))
	for _, doc := range c.docs {
		names[doc.Name] = struct{}{}
	}
	name := untitledName
	for i := 1; ; i++ {
		if _, taken := names[name]; !taken {
			break
		}
		name = "Untitled " + strconv.Itoa(i) + ".md"
	}
	doc := Document{
		ID:        c.newID(),
		Name:      name,
		UpdatedAt: c.now(),
	}
	c.docs = append([]Document{doc}, c.docs...)
	return doc
}

// Rename changes the name of a document.
// Names do not have to be unique.
func (c *Collection) Rename(id, name string) error {
	if name == "" {
		return errors.Wrapf(ErrEmptyName, "rename %q", id)
	}
	i := c.index(id)
	if i < 0 {
		return errors.Wrapf(ErrNotFound, "rename %q", id)
	}
	c.docs[i].Name = name
	c.docs[i].UpdatedAt = c.now()
	return nil
}

// UpdateContent replaces the content of a document.
func (c *Collection) UpdateContent(id, content string) error {
	i := c.index(id)
	if i < 0 {
		return errors.Wrapf(ErrNotFound, "update %q", id)
	}
	c.docs[i].Content = content
	c.docs[i].UpdatedAt = c.now()
	return nil
}

// Delete removes a document from the collection.
// selected is the ID of the currently selected document.
// next is the ID of the document that should be selected afterward:
// selected itself if another document was deleted,
// otherwise the first remaining document,
// or the empty string if the collection is now empty.
func (c *Collection) Delete(id, selected string) (next string, err error) {
	i := c.index(id)
	if i < 0 {
		return "", errors.Wrapf(ErrNotFound, "delete %q", id)
	}
	c.docs = append(c.docs[:i], c.docs[i+1:]...)
	if selected != id {
		return selected, nil
	}
	if len(c.docs) == 0 {
		return "", nil
	}
	return c.docs[0].ID, nil
}

// Search returns the documents whose name or content contains query,
// ignoring case. An empty query matches every document.
func (c *Collection) Search(query string) []Document {
	folder := cases.Fold()
	q := folder.String(query)
	var result []Document
	for _, doc := range c.docs {
		if strings.Contains(folder.String(doc.Name), q) ||
			strings.Contains(folder.String(doc.Content), q) {
			result = append(result, doc)
		}
	}
	return result
}
