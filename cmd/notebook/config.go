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
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// config is the contents of the optional TOML configuration file.
type config struct {
	// Database is the path to the document database.
	Database string `toml:"database"`
	// AllowRawHTML passes HTML blocks through to rendered output.
	AllowRawHTML bool `toml:"allow_raw_html"`
	// MaxNesting limits container block depth.
	// Zero uses the renderer default.
	MaxNesting int `toml:"max_nesting"`
}

func defaultConfig() *config {
	db := "notebook.db"
	if dir, err := os.UserConfigDir(); err == nil {
		db = filepath.Join(dir, "notebook", "notebook.db")
	}
	return &config{Database: db}
}

// loadConfig reads the configuration file at path on top of the defaults.
// An empty path returns the defaults.
func loadConfig(path string) (*config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.Errorf("read config %s: unknown key %q", path, undecoded[0].String())
	}
	if cfg.MaxNesting < 0 {
		return nil, errors.Errorf("read config %s: max_nesting must not be negative", path)
	}
	return cfg, nil
}
