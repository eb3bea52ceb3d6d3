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

// vbs inspects and manipulates versioned binary envelopes from the command
// line.
//
// Usage:
//
//	vbs [--config vbs.toml] [--codec msgpack] <command> [options] [FILE|-]
//
// Commands read one envelope from FILE, or from stdin when FILE is "-" or
// omitted. Exit codes:
//   - 0: success
//   - 1: usage or I/O error
//   - 2: version header missing or malformed
//   - 3: version outside the accepted window
package main

import (
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := newApp(os.Stdin, os.Stdout, os.Stderr)
	app.ExitErrHandler = exitErrHandler
	if err := app.Run(os.Args); err != nil {
		// ExitErrHandler already exited for cli.ExitCoder errors.
		os.Exit(exitFailure)
	}
}

func exitErrHandler(c *cli.Context, err error) {
	if err == nil {
		return
	}
	cli.HandleExitCoder(err)
}
