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

// notebook is a command-line Markdown notebook.
// It keeps a collection of documents in a local database
// and renders them to HTML.
//
// Usage:
//
//	notebook [-config file] [-db file] <command> [arguments]
//
// Run "notebook help" for the list of commands.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sort"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
)

// errUsage is returned when the command line is malformed.
var errUsage = errors.New("usage error")

type command struct {
	usage string
	run   func(app *app, args []string) error
}

const (
	renderUsage = "render [-raw-html] [-page] [file]"
	newUsage    = "new [-name name]"
	listUsage   = "list"
	showUsage   = "show id"
	editUsage   = "edit id < content"
	renameUsage = "rename id name"
	deleteUsage = "delete [-selected id] id"
	searchUsage = "search query"
	statsUsage  = "stats id|file"
	fmtUsage    = "fmt [file]"
	exportUsage = "export [-format json|yaml]"
	importUsage = "import [-format json|yaml] file"
)

var commands = map[string]command{
	"render": {renderUsage, (*app).render},
	"new":    {newUsage, (*app).newDocument},
	"list":   {listUsage, (*app).list},
	"show":   {showUsage, (*app).show},
	"edit":   {editUsage, (*app).edit},
	"rename": {renameUsage, (*app).rename},
	"delete": {deleteUsage, (*app).delete},
	"search": {searchUsage, (*app).search},
	"stats":  {statsUsage, (*app).stats},
	"fmt":    {fmtUsage, (*app).format},
	"export": {exportUsage, (*app).export},
	"import": {importUsage, (*app).importCollection},
}

func main() {
	log.SetPrefix("notebook: ")
	log.SetFlags(0)
	tty := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	err := run(os.Args[1:], os.Stdin, os.Stdout, tty)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if errors.Is(err, errUsage) {
		if err != errUsage {
			log.Print(err)
		}
		os.Exit(2)
	}
	if err != nil {
		log.Fatal(err)
	}
}

// app holds the state shared by all commands.
type app struct {
	cfg    *config
	stdin  io.Reader
	stdout io.Writer
	// tty is true if stdout is a terminal.
	// Listings are formatted for people instead of scripts.
	tty bool
}

func run(args []string, stdin io.Reader, stdout io.Writer, tty bool) error {
	flags := flag.NewFlagSet("notebook", flag.ContinueOnError)
	configPath := flags.String("config", "", "path to TOML configuration `file`")
	dbPath := flags.String("db", "", "path to document database `file` (overrides config)")
	flags.Usage = func() {
		out := flags.Output()
		fmt.Fprintln(out, "usage: notebook [-config file] [-db file] <command> [arguments]")
		fmt.Fprintln(out, "\ncommands:")
		names := make([]string, 0, len(commands))
		for name := range commands {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(out, "  %s\n", commands[name].usage)
		}
		fmt.Fprintln(out, "\nflags:")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() == 0 || flags.Arg(0) == "help" {
		flags.Usage()
		if flags.NArg() == 0 {
			return errUsage
		}
		return nil
	}
	cmd, ok := commands[flags.Arg(0)]
	if !ok {
		flags.Usage()
		return errors.Wrapf(errUsage, "unknown command %q", flags.Arg(0))
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *dbPath != "" {
		cfg.Database = *dbPath
	}
	a := &app{
		cfg:    cfg,
		stdin:  stdin,
		stdout: stdout,
		tty:    tty,
	}
	return cmd.run(a, flags.Args()[1:])
}

// newFlagSet returns a flag set for a subcommand.
func newFlagSet(usage string) *flag.FlagSet {
	fset := flag.NewFlagSet(usage, flag.ContinueOnError)
	fset.Usage = func() {
		fmt.Fprintf(fset.Output(), "usage: notebook %s\n", usage)
		fset.PrintDefaults()
	}
	return fset
}

// exactArgs checks that a subcommand received n positional arguments.
func exactArgs(usage string, args []string, n int) error {
	if len(args) != n {
		return errors.Wrapf(errUsage, "usage: notebook %s", usage)
	}
	return nil
}
