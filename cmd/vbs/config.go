// Copyright 2023-2024 The VBS Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/espressosystems/vbs"
)

const defaultCodecName = "msgpack"

// fileConfig is the on-disk form of the CLI config, in TOML or YAML:
//
//	codec = "msgpack"
//
//	[windows.block]
//	min = "1.0"
//	max = "1.2"
type fileConfig struct {
	Codec   string                  `toml:"codec" yaml:"codec"`
	Windows map[string]windowConfig `toml:"windows" yaml:"windows"`
}

type windowConfig struct {
	Min vbs.Version `toml:"min" yaml:"min"`
	Max vbs.Version `toml:"max" yaml:"max"`
}

// config is a validated fileConfig.
type config struct {
	CodecName string
	Windows   map[string]vbs.Range
}

func defaultConfig() config {
	return config{CodecName: defaultCodecName, Windows: map[string]vbs.Range{}}
}

// loadConfig reads a TOML or YAML config, chosen by file extension.
func loadConfig(path string) (config, error) {
	var raw fileConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.DecodeFile(path, &raw); err != nil {
			return config{}, fmt.Errorf("load config %s: %w", path, err)
		}
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return config{}, fmt.Errorf("load config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return config{}, fmt.Errorf("invalid YAML in %s: %w", path, err)
		}
	default:
		return config{}, fmt.Errorf("load config %s: unsupported extension %q", path, ext)
	}
	return raw.validate()
}

func (raw fileConfig) validate() (config, error) {
	cfg := defaultConfig()
	if name := strings.TrimSpace(raw.Codec); name != "" {
		if _, err := codecByName(name); err != nil {
			return config{}, err
		}
		cfg.CodecName = name
	}
	for name, window := range raw.Windows {
		accepted, err := vbs.NewRange(window.Min, window.Max)
		if err != nil {
			return config{}, fmt.Errorf("window %q: %w", name, err)
		}
		cfg.Windows[name] = accepted
	}
	return cfg, nil
}

// windowNames returns the configured window names in sorted order.
func (c config) windowNames() []string {
	names := make([]string, 0, len(c.Windows))
	for name := range c.Windows {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func codecByName(name string) (vbs.Codec, error) {
	switch name {
	case "msgpack":
		return vbs.NewMsgpackCodec(), nil
	case "protobuf":
		return vbs.NewProtobufCodec(), nil
	case "binary":
		return vbs.NewBinaryCodec(false /* allowTrailingBytes */), nil
	}
	return nil, fmt.Errorf("unknown codec %q: want msgpack, protobuf, or binary", name)
}
