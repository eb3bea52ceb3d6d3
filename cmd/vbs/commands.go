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
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/espressosystems/vbs"
)

const (
	exitFailure  = 1
	exitHeader   = 2
	exitMismatch = 3
)

// runner holds the state shared by every command. It's populated by the
// app's Before hook.
type runner struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	logger *zap.Logger
	config config
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *cli.App {
	r := &runner{stdin: stdin, stdout: stdout, stderr: stderr, logger: zap.NewNop()}
	return &cli.App{
		Name:      "vbs",
		Usage:     "Inspect and check versioned binary envelopes",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "TOML or YAML file defining the codec and named version windows",
				EnvVars: []string{"VBS_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "codec",
				Usage: "Header layout: msgpack, protobuf, or binary (overrides config)",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Log debug output to stderr",
			},
		},
		Before: r.before,
		After:  r.after,
		Commands: []*cli.Command{
			r.inspectCommand(),
			r.checkCommand(),
			r.wrapCommand(),
			r.unwrapCommand(),
			r.windowsCommand(),
		},
	}
}

func (r *runner) before(c *cli.Context) error {
	level := zapcore.InfoLevel
	if c.Bool("verbose") {
		level = zapcore.DebugLevel
	}
	r.logger = newLogger(r.stderr, level)

	r.config = defaultConfig()
	if path := c.String("config"); path != "" {
		cfg, err := loadConfig(path)
		if err != nil {
			return cli.Exit(err.Error(), exitFailure)
		}
		r.config = cfg
		r.logger.Debug("loaded config",
			zap.String("path", path),
			zap.String("codec", cfg.CodecName),
			zap.Int("windows", len(cfg.Windows)),
		)
	}
	if name := c.String("codec"); name != "" {
		if _, err := codecByName(name); err != nil {
			return cli.Exit(err.Error(), exitFailure)
		}
		r.config.CodecName = name
	}
	return nil
}

func (r *runner) after(*cli.Context) error {
	// Syncing a non-file writer may fail harmlessly.
	_ = r.logger.Sync()
	return nil
}

func newLogger(w io.Writer, level zapcore.Level) *zap.Logger {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:     "timestamp",
		LevelKey:    "level",
		MessageKey:  "message",
		EncodeTime:  zapcore.RFC3339NanoTimeEncoder,
		EncodeLevel: zapcore.LowercaseLevelEncoder,
	}
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(w),
		level,
	)
	return zap.New(core)
}

func windowFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "window",
			Aliases: []string{"w"},
			Usage:   "Named version window from the config file",
		},
		&cli.StringFlag{
			Name:  "min",
			Usage: "Lowest accepted version, as <major>.<minor>",
		},
		&cli.StringFlag{
			Name:  "max",
			Usage: "Highest accepted version, as <major>.<minor>",
		},
	}
}

func (r *runner) inspectCommand() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "Print an envelope's version header",
		ArgsUsage: "[FILE|-]",
		Action:    r.inspect,
	}
}

func (r *runner) inspect(c *cli.Context) error {
	codec, version, payload, err := r.readEnvelope(c)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.stdout, "codec:    %s\n", codec.Name())
	fmt.Fprintf(r.stdout, "envelope: %v\n", vbs.EnvelopeVersionOf(codec))
	fmt.Fprintf(r.stdout, "version:  %v\n", version)
	fmt.Fprintf(r.stdout, "payload:  %d bytes\n", len(payload))
	return nil
}

func (r *runner) checkCommand() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "Check an envelope's version against a window",
		ArgsUsage: "[FILE|-]",
		Flags:     windowFlags(),
		Action:    r.check,
	}
}

func (r *runner) check(c *cli.Context) error {
	accepted, ok, err := r.window(c)
	if err != nil {
		return err
	}
	if !ok {
		return cli.Exit("check requires --window or --min and --max", exitFailure)
	}
	_, version, _, err := r.readEnvelope(c)
	if err != nil {
		return err
	}
	if err := r.checkVersion(version, accepted); err != nil {
		return err
	}
	fmt.Fprintf(r.stdout, "ok: %v is in %v\n", version, accepted)
	return nil
}

func (r *runner) wrapCommand() *cli.Command {
	return &cli.Command{
		Name:      "wrap",
		Usage:     "Prefix a raw payload with a version header",
		ArgsUsage: "[FILE|-]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "wire-version",
				Usage:    "Version to write, as <major>.<minor>",
				Required: true,
			},
		},
		Action: r.wrap,
	}
}

func (r *runner) wrap(c *cli.Context) error {
	version, err := vbs.ParseVersion(c.String("wire-version"))
	if err != nil {
		return cli.Exit(err.Error(), exitFailure)
	}
	payload, err := r.readInput(c)
	if err != nil {
		return err
	}
	codec := r.codec()
	envelope := vbs.AppendVersion(codec, nil, version)
	envelope = append(envelope, payload...)
	r.logger.Debug("wrapped payload",
		zap.Stringer("version", version),
		zap.String("codec", codec.Name()),
		zap.Int("payload_bytes", len(payload)),
	)
	_, err = r.stdout.Write(envelope)
	return err
}

func (r *runner) unwrapCommand() *cli.Command {
	return &cli.Command{
		Name:      "unwrap",
		Usage:     "Strip the version header, writing the payload to stdout",
		ArgsUsage: "[FILE|-]",
		Flags:     windowFlags(),
		Action:    r.unwrap,
	}
}

func (r *runner) unwrap(c *cli.Context) error {
	accepted, checked, err := r.window(c)
	if err != nil {
		return err
	}
	_, version, payload, err := r.readEnvelope(c)
	if err != nil {
		return err
	}
	if checked {
		if err := r.checkVersion(version, accepted); err != nil {
			return err
		}
	}
	_, err = r.stdout.Write(payload)
	return err
}

func (r *runner) windowsCommand() *cli.Command {
	return &cli.Command{
		Name:  "windows",
		Usage: "List the version windows defined in the config file",
		Action: func(c *cli.Context) error {
			for _, name := range r.config.windowNames() {
				fmt.Fprintf(r.stdout, "%s\t%v\n", name, r.config.Windows[name])
			}
			return nil
		},
	}
}

func (r *runner) codec() vbs.Codec {
	codec, err := codecByName(r.config.CodecName)
	if err != nil {
		// before validated the name.
		return vbs.NewMsgpackCodec()
	}
	return codec
}

// window resolves the accepted range from --window or --min and --max. The
// boolean is false if no window was requested.
func (r *runner) window(c *cli.Context) (vbs.Range, bool, error) {
	if name := c.String("window"); name != "" {
		if c.IsSet("min") || c.IsSet("max") {
			return vbs.Range{}, false, cli.Exit("--window can't be combined with --min or --max", exitFailure)
		}
		accepted, ok := r.config.Windows[name]
		if !ok {
			return vbs.Range{}, false, cli.Exit(fmt.Sprintf("unknown window %q", name), exitFailure)
		}
		return accepted, true, nil
	}
	if !c.IsSet("min") && !c.IsSet("max") {
		return vbs.Range{}, false, nil
	}
	if !c.IsSet("min") || !c.IsSet("max") {
		return vbs.Range{}, false, cli.Exit("--min and --max must be used together", exitFailure)
	}
	lower, err := vbs.ParseVersion(c.String("min"))
	if err != nil {
		return vbs.Range{}, false, cli.Exit(err.Error(), exitFailure)
	}
	upper, err := vbs.ParseVersion(c.String("max"))
	if err != nil {
		return vbs.Range{}, false, cli.Exit(err.Error(), exitFailure)
	}
	accepted, err := vbs.NewRange(lower, upper)
	if err != nil {
		return vbs.Range{}, false, cli.Exit(err.Error(), exitFailure)
	}
	return accepted, true, nil
}

func (r *runner) checkVersion(version vbs.Version, accepted vbs.Range) error {
	if err := accepted.Check(version); err != nil {
		r.logger.Warn("version refused",
			zap.Stringer("received", version),
			zap.Stringer("accepted", accepted),
		)
		return cli.Exit(err.Error(), exitCode(err))
	}
	r.logger.Debug("version accepted",
		zap.Stringer("received", version),
		zap.Stringer("accepted", accepted),
	)
	return nil
}

func (r *runner) readEnvelope(c *cli.Context) (vbs.Codec, vbs.Version, []byte, error) {
	data, err := r.readInput(c)
	if err != nil {
		return nil, vbs.Version{}, nil, err
	}
	codec := r.codec()
	version, payload, err := vbs.ReadVersion(codec, data)
	if err != nil {
		return nil, vbs.Version{}, nil, cli.Exit(err.Error(), exitCode(err))
	}
	r.logger.Debug("read envelope",
		zap.String("codec", codec.Name()),
		zap.Stringer("version", version),
		zap.Int("payload_bytes", len(payload)),
	)
	return codec, version, payload, nil
}

func (r *runner) readInput(c *cli.Context) ([]byte, error) {
	source := c.Args().First()
	if c.NArg() > 1 {
		return nil, cli.Exit("expected at most one input file", exitFailure)
	}
	var (
		data []byte
		err  error
	)
	if source == "" || source == "-" {
		source = "stdin"
		var buf bytes.Buffer
		_, err = buf.ReadFrom(r.stdin)
		data = buf.Bytes()
	} else {
		data, err = os.ReadFile(source)
	}
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("read %s: %v", source, err), exitFailure)
	}
	r.logger.Debug("read input", zap.String("source", source), zap.Int("bytes", len(data)))
	return data, nil
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, vbs.ErrVersionMismatch):
		return exitMismatch
	case vbs.CodeOf(err) == vbs.CodeHeader:
		return exitHeader
	}
	return exitFailure
}
