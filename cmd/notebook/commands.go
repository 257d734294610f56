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

package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"golang.org/x/net/html"
	"zombiezen.com/go/markdown"
	"zombiezen.com/go/markdown/format"
	"zombiezen.com/go/markdown/stats"
	"zombiezen.com/go/markdown/store"
)

func (a *app) render(args []string) error {
	fset := newFlagSet(renderUsage)
	rawHTML := fset.Bool("raw-html", false, "pass filtered HTML blocks through")
	page := fset.Bool("page", false, "wrap the output in a standalone HTML page")
	if err := fset.Parse(args); err != nil {
		return err
	}
	if fset.NArg() > 1 {
		return exactArgs(renderUsage, fset.Args(), 1)
	}
	name, source, err := a.readInput(fset.Arg(0))
	if err != nil {
		return err
	}
	c := &markdown.Converter{
		AllowRawHTML: a.cfg.AllowRawHTML || *rawHTML,
		MaxNesting:   a.cfg.MaxNesting,
		ErrorLog:     log.Default(),
	}
	out := c.Convert(source)
	if *page {
		out = wrapPage(name, out)
	}
	_, err = io.WriteString(a.stdout, out)
	return err
}

// wrapPage returns body as a complete HTML document.
func wrapPage(title, body string) string {
	sb := new(strings.Builder)
	sb.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>")
	sb.WriteString(html.EscapeString(title))
	sb.WriteString("</title>\n</head>\n<body>\n<article>\n")
	sb.WriteString(body)
	sb.WriteString("</article>\n</body>\n</html>\n")
	return sb.String()
}

// readInput returns the contents of the named file,
// or of stdin if path is empty or "-".
func (a *app) readInput(path string) (name, content string, err error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(a.stdin)
		if err != nil {
			return "", "", errors.Wrap(err, "read stdin")
		}
		return "stdin", string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", err
	}
	return filepath.Base(path), string(data), nil
}

func (a *app) openDB() (*store.DB, error) {
	if err := os.MkdirAll(filepath.Dir(a.cfg.Database), 0o755); err != nil {
		return nil, errors.Wrap(err, "create database directory")
	}
	return store.Open(a.cfg.Database)
}

// withCollection loads the document collection,
// calls f with it, and saves it if f reports a change.
func (a *app) withCollection(f func(c *store.Collection) (changed bool, err error)) error {
	db, err := a.openDB()
	if err != nil {
		return err
	}
	defer db.Close()
	c, err := db.Load()
	if err != nil {
		return err
	}
	changed, err := f(c)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	if err := db.Save(c); err != nil {
		return err
	}
	return db.Close()
}

func (a *app) newDocument(args []string) error {
	fset := newFlagSet(newUsage)
	name := fset.String("name", "", "document `name` instead of the next untitled name")
	if err := fset.Parse(args); err != nil {
		return err
	}
	if err := exactArgs(newUsage, fset.Args(), 0); err != nil {
		return err
	}
	return a.withCollection(func(c *store.Collection) (bool, error) {
		doc := c.Create()
		if *name != "" {
			if err := c.Rename(doc.ID, *name); err != nil {
				return false, err
			}
		}
		_, err := fmt.Fprintln(a.stdout, doc.ID)
		return true, err
	})
}

func (a *app) list(args []string) error {
	if err := exactArgs(listUsage, args, 0); err != nil {
		return err
	}
	return a.withCollection(func(c *store.Collection) (bool, error) {
		return false, a.printDocuments(c.List())
	})
}

func (a *app) search(args []string) error {
	if err := exactArgs(searchUsage, args, 1); err != nil {
		return err
	}
	return a.withCollection(func(c *store.Collection) (bool, error) {
		return false, a.printDocuments(c.Search(args[0]))
	})
}

// printDocuments writes one line per document.
// Terminals get aligned columns with relative times,
// everything else gets tab-separated ID, name, and RFC 3339 time.
func (a *app) printDocuments(docs []store.Document) error {
	if !a.tty {
		for _, doc := range docs {
			_, err := fmt.Fprintf(a.stdout, "%s\t%s\t%s\n", doc.ID, doc.Name, doc.UpdatedAt.UTC().Format(time.RFC3339))
			if err != nil {
				return err
			}
		}
		return nil
	}
	tw := tabwriter.NewWriter(a.stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tUPDATED\tID")
	for _, doc := range docs {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", doc.Name, humanize.Time(doc.UpdatedAt), doc.ID)
	}
	return tw.Flush()
}

func (a *app) show(args []string) error {
	if err := exactArgs(showUsage, args, 1); err != nil {
		return err
	}
	return a.withCollection(func(c *store.Collection) (bool, error) {
		doc, err := c.Get(args[0])
		if err != nil {
			return false, err
		}
		_, err = io.WriteString(a.stdout, doc.Content)
		return false, err
	})
}

func (a *app) edit(args []string) error {
	if err := exactArgs(editUsage, args, 1); err != nil {
		return err
	}
	data, err := io.ReadAll(a.stdin)
	if err != nil {
		return errors.Wrap(err, "read stdin")
	}
	return a.withCollection(func(c *store.Collection) (bool, error) {
		if err := c.UpdateContent(args[0], string(data)); err != nil {
			return false, err
		}
		return true, nil
	})
}

func (a *app) rename(args []string) error {
	if err := exactArgs(renameUsage, args, 2); err != nil {
		return err
	}
	return a.withCollection(func(c *store.Collection) (bool, error) {
		if err := c.Rename(args[0], args[1]); err != nil {
			return false, err
		}
		return true, nil
	})
}

func (a *app) delete(args []string) error {
	fset := newFlagSet(deleteUsage)
	selected := fset.String("selected", "", "`id` of the selected document (defaults to the deleted one)")
	if err := fset.Parse(args); err != nil {
		return err
	}
	if err := exactArgs(deleteUsage, fset.Args(), 1); err != nil {
		return err
	}
	id := fset.Arg(0)
	if *selected == "" {
		*selected = id
	}
	return a.withCollection(func(c *store.Collection) (bool, error) {
		next, err := c.Delete(id, *selected)
		if err != nil {
			return false, err
		}
		if next != "" {
			if _, err := fmt.Fprintln(a.stdout, next); err != nil {
				return true, err
			}
		}
		return true, nil
	})
}

func (a *app) stats(args []string) error {
	if err := exactArgs(statsUsage, args, 1); err != nil {
		return err
	}
	var content string
	err := a.withCollection(func(c *store.Collection) (bool, error) {
		doc, err := c.Get(args[0])
		if errors.Is(err, store.ErrNotFound) {
			_, content, err = a.readInput(args[0])
			return false, err
		}
		content = doc.Content
		return false, err
	})
	if err != nil {
		return err
	}
	s := stats.Compute(content)
	if a.tty {
		_, err = fmt.Fprintln(a.stdout, s)
	} else {
		_, err = fmt.Fprintf(a.stdout, "%d\t%d\t%d\t%d\n", s.Lines, s.Words, s.Chars, s.Graphemes)
	}
	return err
}

func (a *app) format(args []string) error {
	if len(args) > 1 {
		return exactArgs(fmtUsage, args, 1)
	}
	var path string
	if len(args) == 1 {
		path = args[0]
	}
	_, source, err := a.readInput(path)
	if err != nil {
		return err
	}
	p := &markdown.Parser{MaxNesting: a.cfg.MaxNesting}
	return format.Format(a.stdout, p.Parse(source))
}

// exchangeFormat is a flag value naming an export file format.
type exchangeFormat string

func (f *exchangeFormat) String() string { return string(*f) }

func (f *exchangeFormat) Set(s string) error {
	switch s {
	case "json", "yaml":
		*f = exchangeFormat(s)
		return nil
	default:
		return errors.Errorf("unknown format %q (want json or yaml)", s)
	}
}

func (a *app) export(args []string) error {
	fset := newFlagSet(exportUsage)
	fmtName := exchangeFormat("json")
	fset.Var(&fmtName, "format", "output `format` (json or yaml)")
	if err := fset.Parse(args); err != nil {
		return err
	}
	if err := exactArgs(exportUsage, fset.Args(), 0); err != nil {
		return err
	}
	return a.withCollection(func(c *store.Collection) (bool, error) {
		var data []byte
		var err error
		if fmtName == "yaml" {
			data, err = store.ExportYAML(c)
		} else {
			data, err = store.ExportJSON(c)
			data = append(data, '\n')
		}
		if err != nil {
			return false, err
		}
		_, err = a.stdout.Write(data)
		return false, err
	})
}

func (a *app) importCollection(args []string) error {
	fset := newFlagSet(importUsage)
	fmtName := exchangeFormat("json")
	fset.Var(&fmtName, "format", "input `format` (json or yaml)")
	if err := fset.Parse(args); err != nil {
		return err
	}
	if err := exactArgs(importUsage, fset.Args(), 1); err != nil {
		return err
	}
	_, source, err := a.readInput(fset.Arg(0))
	if err != nil {
		return err
	}
	var imported *store.Collection
	if fmtName == "yaml" {
		imported, err = store.ImportYAML([]byte(source))
	} else {
		imported, err = store.ImportJSON([]byte(source))
	}
	if err != nil {
		return err
	}
	db, err := a.openDB()
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Save(imported); err != nil {
		return err
	}
	if a.tty {
		fmt.Fprintf(a.stdout, "imported %s documents\n", humanize.Comma(int64(imported.Len())))
	}
	return db.Close()
}
