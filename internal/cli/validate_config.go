// Copyright 2025 bitjungle - Rune Mathisen. All rights reserved.
// Use of this source code is governed by the MIT license
// that can be found in the LICENSE file.
// The author respectfully requests that it not be used for
// military, warfare, or surveillance applications.

package cli

import (
	"fmt"

	"github.com/bitjungle/sanitise/pkg/config"
	"github.com/bitjungle/sanitise/pkg/security"
	pkgerrors "github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

func validateConfigCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate-config",
		Usage:     "Compile a pipeline configuration without running it",
		ArgsUsage: "<pipeline.yaml>",
		Description: `The validate-config command loads and type-checks a pipeline
configuration — every column's output expression, every policy
combination, every aggregate declaration — without touching any CSV
input. It exits non-zero and prints the offending path on the first
structural or type error.`,
		Before: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("missing required argument: pipeline configuration file")
			}
			return nil
		},
		Action: runValidateConfig,
	}
}

func runValidateConfig(c *cli.Context) error {
	path := c.Args().First()
	if err := security.ValidateInputPath(path, security.ConfigExtensions...); err != nil {
		return pkgerrors.Wrap(err, "configuration path")
	}

	prog, err := config.LoadFile(path)
	if err != nil {
		return err
	}

	total := 0
	for _, p := range prog.Processes {
		total += len(p.Columns)
	}
	fmt.Fprintf(c.App.Writer, "configuration OK: %d process(es), %d column(s)\n", len(prog.Processes), total)
	return nil
}
