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
	"encoding/json"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ExportJSON encodes the collection as a JSON array of documents.
func ExportJSON(c *Collection) ([]byte, error) {
	docs := c.docs
	if docs == nil {
		docs = []Document{}
	}
	data, err := json.Marshal(docs)
	if err != nil {
		return nil, errors.Wrap(err, "export json")
	}
	return data, nil
}

// ImportJSON decodes a collection produced by [ExportJSON].
func ImportJSON(data []byte) (*Collection, error) {
	var docs []Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, errors.Wrap(err, "import json")
	}
	c, err := NewCollection(docs)
	if err != nil {
		return nil, errors.Wrap(err, "import json")
	}
	return c, nil
}

// ExportYAML encodes the collection as a YAML sequence of documents
// with the same field names as [ExportJSON].
func ExportYAML(c *Collection) ([]byte, error) {
	recs := make([]documentRecord, 0, len(c.docs))
	for _, doc := range c.docs {
		recs = append(recs, doc.record())
	}
	data, err := yaml.Marshal(recs)
	if err != nil {
		return nil, errors.Wrap(err, "export yaml")
	}
	return data, nil
}

// ImportYAML decodes a collection produced by [ExportYAML].
func ImportYAML(data []byte) (*Collection, error) {
	var recs []documentRecord
	if err := yaml.Unmarshal(data, &recs); err != nil {
		return nil, errors.Wrap(err, "import yaml")
	}
	docs := make([]Document, 0, len(recs))
	for _, rec := range recs {
		docs = append(docs, rec.document())
	}
	c, err := NewCollection(docs)
	if err != nil {
		return nil, errors.Wrap(err, "import yaml")
	}
	return c, nil
}
