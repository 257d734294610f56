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

// Package store manages a collection of Markdown documents
// and persists it to disk.
package store

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// Document is a single named Markdown file in a [Collection].
type Document struct {
	ID        string
	Name      string
	Content   string
	UpdatedAt time.Time
}

// documentRecord is the serialized form of a [Document].
// Timestamps are stored as milliseconds since the Unix epoch.
type documentRecord struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	Content   string `json:"content" yaml:"content"`
	UpdatedAt int64  `json:"updatedAt" yaml:"updatedAt"`
}

func (doc Document) record() documentRecord {
	return documentRecord{
		ID:        doc.ID,
		Name:      doc.Name,
		Content:   doc.Content,
		UpdatedAt: doc.UpdatedAt.UnixMilli(),
	}
}

func (rec documentRecord) document() Document {
	return Document{
		ID:        rec.ID,
		Name:      rec.Name,
		Content:   rec.Content,
		UpdatedAt: time.UnixMilli(rec.UpdatedAt),
	}
}

// MarshalJSON encodes the document as
// {"id", "name", "content", "updatedAt"}.
func (doc Document) MarshalJSON() ([]byte, error) {
	return json.Marshal(doc.record())
}

// UnmarshalJSON decodes the format produced by [Document.MarshalJSON].
func (doc *Document) UnmarshalJSON(data []byte) error {
	var rec documentRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return errors.Wrap(err, "decode document")
	}
	*doc = rec.document()
	return nil
}
