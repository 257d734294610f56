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
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func sampleCollection(t *testing.T) *Collection {
	t.Helper()
	c, err := NewCollection([]Document{
		{ID: "a", Name: "one.md", Content: "# One\n", UpdatedAt: testTime},
		{ID: "b", Name: "two.md", Content: "- x\n- y", UpdatedAt: testTime},
	})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestExportJSON(t *testing.T) {
	c, err := NewCollection([]Document{{ID: "a", Name: "n", Content: "c", UpdatedAt: testTime}})
	if err != nil {
		t.Fatal(err)
	}
	got, err := ExportJSON(c)
	if err != nil {
		t.Fatal(err)
	}
	const want = `[{"id":"a","name":"n","content":"c","updatedAt":1700000000000}]`
	if string(got) != want {
		t.Errorf("ExportJSON(...) = %s; want %s", got, want)
	}

	empty, err := ExportJSON(new(Collection))
	if err != nil {
		t.Fatal(err)
	}
	if string(empty) != "[]" {
		t.Errorf("ExportJSON(empty) = %s; want []", empty)
	}
}

func TestImportJSON(t *testing.T) {
	c, err := ImportJSON([]byte(`[{"id":"x","name":"n.md","content":"hi","updatedAt":1700000000000}]`))
	if err != nil {
		t.Fatal(err)
	}
	want := []Document{{ID: "x", Name: "n.md", Content: "hi", UpdatedAt: testTime}}
	if diff := cmp.Diff(want, c.List()); diff != "" {
		t.Errorf("imported documents (-want +got):\n%s", diff)
	}

	badInputs := []string{
		`{`,
		`[{"id":"x"},{"id":"x"}]`,
		`[{"name":"no id"}]`,
	}
	for _, input := range badInputs {
		if _, err := ImportJSON([]byte(input)); err == nil {
			t.Errorf("ImportJSON(%q) did not return an error", input)
		}
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	c := sampleCollection(t)
	data, err := ExportYAML(c)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "updatedAt: 1700000000000") {
		t.Errorf("ExportYAML(...) = %s; want to contain updatedAt in milliseconds", data)
	}
	got, err := ImportYAML(data)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(c.List(), got.List()); diff != "" {
		t.Errorf("round trip (-want +got):\n%s", diff)
	}
}
