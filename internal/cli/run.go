// Copyright 2025 bitjungle - Rune Mathisen. All rights reserved.
// Use of this source code is governed by the MIT license
// that can be found in the LICENSE file.
// The author respectfully requests that it not be used for
// military, warfare, or surveillance applications.

package cli

import (
	"fmt"
	"os"

	"github.com/bitjungle/sanitise/pkg/config"
	"github.com/bitjungle/sanitise/pkg/program"
	"github.com/bitjungle/sanitise/pkg/sanitisecsv"
	"github.com/bitjungle/sanitise/pkg/security"
	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"github.com/xuri/excelize/v2"
)

func runCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Run a sanitisation pipeline against a CSV file",
		ArgsUsage: "<input.csv>",
		Description: `The run command compiles a pipeline configuration and feeds the
input CSV through it, writing the final Process's sanitised output.

EXAMPLES:
  sanitise run -c pipeline.yaml data.csv
  sanitise run -c pipeline.yaml -o clean.csv data.csv
  sanitise run -c pipeline.yaml -o clean.xlsx --xlsx data.csv`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    "pipeline configuration document (YAML)",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "output path; defaults to stdout (output.xlsx with --xlsx)",
			},
			&cli.BoolFlag{
				Name:  "xlsx",
				Usage: "write the output as a single-sheet .xlsx workbook instead of CSV text",
			},
		},
		Before: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("missing required argument: input CSV file")
			}
			return nil
		},
		Action: runRun,
	}
}

func runRun(c *cli.Context) error {
	runID := uuid.New()

	configPath := c.String("config")
	inputPath := c.Args().First()

	if err := security.ValidateInputPath(configPath, security.ConfigExtensions...); err != nil {
		return pkgerrors.Wrap(err, "configuration path")
	}
	if err := security.ValidateInputPath(inputPath, security.CSVExtensions...); err != nil {
		return pkgerrors.Wrap(err, "input path")
	}

	prog, err := config.LoadFile(configPath)
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(inputPath)
	if err != nil {
		return pkgerrors.Wrap(err, "reading input CSV")
	}

	results, err := sanitisecsv.Run(string(raw), prog)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.ErrWriter, "run %s: %d section(s) processed\n", runID, len(results))

	last := results[len(results)-1]
	finalResult := last.Results[len(last.Results)-1]

	if c.Bool("xlsx") {
		return writeXLSX(c.String("output"), finalResult)
	}

	text := sanitisecsv.Format(finalResult)
	if out := c.String("output"); out != "" {
		if err := security.ValidateOutputPath(out, security.CSVExtensions...); err != nil {
			return pkgerrors.Wrap(err, "output path")
		}
		return os.WriteFile(out, []byte(text), 0o644)
	}
	_, err = fmt.Fprint(c.App.Writer, text)
	return err
}

func writeXLSX(path string, res *program.Result) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	const sheet = "Sheet1"
	for col, title := range res.Order {
		cellName, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cellName, title); err != nil {
			return err
		}
	}
	n := 0
	if len(res.Order) > 0 {
		n = len(res.Columns[res.Order[0]])
	}
	for row := 0; row < n; row++ {
		for col, title := range res.Order {
			cellName, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return err
			}
			v := res.Columns[title][row]
			if err := f.SetCellValue(sheet, cellName, v.String()); err != nil {
				return err
			}
		}
	}

	if path == "" {
		path = "output.xlsx"
	}
	if err := security.ValidateOutputPath(path, security.XLSXExtensions...); err != nil {
		return pkgerrors.Wrap(err, "output path")
	}
	return f.SaveAs(path)
}
