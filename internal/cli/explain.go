// Copyright 2025 bitjungle - Rune Mathisen. All rights reserved.
// Use of this source code is governed by the MIT license
// that can be found in the LICENSE file.
// The author respectfully requests that it not be used for
// military, warfare, or surveillance applications.

package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/bitjungle/sanitise/pkg/column"
	"github.com/bitjungle/sanitise/pkg/config"
	"github.com/bitjungle/sanitise/pkg/program"
	"github.com/bitjungle/sanitise/pkg/sanitisecsv"
	"github.com/bitjungle/sanitise/pkg/security"
	"github.com/bitjungle/sanitise/pkg/value"
	"github.com/olekukonko/tablewriter"
	pkgerrors "github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"github.com/xeipuuv/gojsonschema"
	"gonum.org/v1/gonum/stat"
)

func explainCommand() *cli.Command {
	return &cli.Command{
		Name:      "explain",
		Usage:     "Print the compiled columns of a pipeline configuration",
		ArgsUsage: "<pipeline.yaml>",
		Description: `The explain command loads a pipeline configuration and prints,
per process, every compiled column: its types and its repair policies,
with the process's aggregate-column beside its name. A column's own
aggregate strategy is not shown.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "emit a machine-readable JSON dump instead of a table",
			},
			&cli.StringFlag{
				Name:  "sample",
				Usage: "run the pipeline against this sample CSV and report per-column min/max/mean of the committed output",
			},
		},
		Before: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("missing required argument: pipeline configuration file")
			}
			return nil
		},
		Action: runExplain,
	}
}

// explainColumn is the JSON-dumped shape of one compiled column.
type explainColumn struct {
	Title      string         `json:"title"`
	InputType  string         `json:"input_type"`
	OutputType string         `json:"output_type"`
	OnInvalid  string         `json:"on_invalid"`
	OnNull     string         `json:"on_null"`
	Ignore     bool           `json:"ignore"`
	Summary    *columnSummary `json:"summary,omitempty"`
}

// columnSummary is the gonum/stat-computed summary of a numeric column's
// committed output, over one sample CSV run.
type columnSummary struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
}

type explainProcess struct {
	Name            string          `json:"name"`
	AggregateColumn string          `json:"aggregate_column,omitempty"`
	Columns         []explainColumn `json:"columns"`
}

type explainDump struct {
	Processes []explainProcess `json:"processes"`
}

// explainSchema is the JSON Schema the --json dump is validated against
// before being printed, so a malformed dump is caught here rather than by
// whatever downstream tool consumes it.
const explainSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["processes"],
  "properties": {
    "processes": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "columns"],
        "properties": {
          "name": {"type": "string"},
          "aggregate_column": {"type": "string"},
          "columns": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["title", "on_invalid", "on_null", "ignore"],
              "properties": {
                "title": {"type": "string"},
                "input_type": {"type": "string"},
                "output_type": {"type": "string"},
                "on_invalid": {"type": "string"},
                "on_null": {"type": "string"},
                "ignore": {"type": "boolean"},
                "summary": {
                  "type": "object",
                  "required": ["min", "max", "mean"],
                  "properties": {
                    "min": {"type": "number"},
                    "max": {"type": "number"},
                    "mean": {"type": "number"}
                  }
                }
              }
            }
          }
        }
      }
    }
  }
}`

func runExplain(c *cli.Context) error {
	path := c.Args().First()
	if err := security.ValidateInputPath(path, security.ConfigExtensions...); err != nil {
		return pkgerrors.Wrap(err, "configuration path")
	}

	prog, err := config.LoadFile(path)
	if err != nil {
		return err
	}

	var sampleResults []*program.Result
	if sample := c.String("sample"); sample != "" {
		if err := security.ValidateInputPath(sample, security.CSVExtensions...); err != nil {
			return pkgerrors.Wrap(err, "sample path")
		}
		raw, err := os.ReadFile(sample)
		if err != nil {
			return pkgerrors.Wrap(err, "reading sample CSV")
		}
		chainResults, err := sanitisecsv.Run(string(raw), prog)
		if err != nil {
			return pkgerrors.Wrap(err, "running sample CSV")
		}
		// Summaries describe one representative run; under on-title: split
		// a sample has several independent sections, so only the first is
		// reported.
		sampleResults = chainResults[0].Results
	}

	dump := explainDump{}
	for pi, p := range prog.Processes {
		ep := explainProcess{Name: p.Name, AggregateColumn: p.AggregateColumn}
		var res *program.Result
		if sampleResults != nil {
			res = sampleResults[pi]
		}
		for _, col := range p.Columns {
			ep.Columns = append(ep.Columns, toExplainColumn(col, res))
		}
		dump.Processes = append(dump.Processes, ep)
	}

	if c.Bool("json") {
		return printExplainJSON(c, dump)
	}
	printExplainTable(c, dump)
	return nil
}

func toExplainColumn(col *column.Column, res *program.Result) explainColumn {
	if col.Ignore {
		return explainColumn{Title: col.Title, Ignore: true}
	}
	ec := explainColumn{
		Title:      col.Title,
		InputType:  col.InputType.String(),
		OutputType: col.OutputType.String(),
		OnInvalid:  col.OnInvalid.Kind.String(),
		OnNull:     col.OnNull.Kind.String(),
	}
	if res != nil && col.OutputType.IsNumeric() {
		if vs, ok := res.Columns[col.Title]; ok && len(vs) > 0 {
			ec.Summary = summarize(vs)
		}
	}
	return ec
}

// summarize computes the min, max, and gonum/stat-backed mean of a
// numeric column's committed output over one sample run.
func summarize(vs []value.Value) *columnSummary {
	floats := make([]float64, 0, len(vs))
	for _, v := range vs {
		if f, ok := v.Numeric(); ok {
			floats = append(floats, f)
		}
	}
	if len(floats) == 0 {
		return nil
	}
	min, max := floats[0], floats[0]
	for _, f := range floats[1:] {
		if f < min {
			min = f
		}
		if f > max {
			max = f
		}
	}
	return &columnSummary{Min: min, Max: max, Mean: stat.Mean(floats, nil)}
}

func printExplainJSON(c *cli.Context, dump explainDump) error {
	encoded, err := json.MarshalIndent(dump, "", "  ")
	if err != nil {
		return pkgerrors.Wrap(err, "encoding explain dump")
	}

	schemaLoader := gojsonschema.NewStringLoader(explainSchema)
	docLoader := gojsonschema.NewBytesLoader(encoded)
	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return pkgerrors.Wrap(err, "validating explain dump")
	}
	if !result.Valid() {
		return formatValidationErrors(result.Errors())
	}

	_, err = fmt.Fprintln(c.App.Writer, string(encoded))
	return err
}

// formatValidationErrors renders gojsonschema validation failures as one
// line per offending field.
func formatValidationErrors(errors []gojsonschema.ResultError) error {
	var msgs []string
	for _, e := range errors {
		field := e.Field()
		if field == "(root)" {
			field = "dump"
		}
		msgs = append(msgs, fmt.Sprintf("  - %s: %s", field, e.Description()))
	}
	return fmt.Errorf("explain dump failed its own schema:\n%s", strings.Join(msgs, "\n"))
}

func printExplainTable(c *cli.Context, dump explainDump) {
	hasSummary := false
	for _, p := range dump.Processes {
		for _, col := range p.Columns {
			if col.Summary != nil {
				hasSummary = true
			}
		}
	}

	for _, p := range dump.Processes {
		fmt.Fprintf(c.App.Writer, "process %q", p.Name)
		if p.AggregateColumn != "" {
			fmt.Fprintf(c.App.Writer, " (aggregate-column: %s)", p.AggregateColumn)
		}
		fmt.Fprintln(c.App.Writer)

		header := []string{"column", "input", "output", "on-invalid", "on-null"}
		if hasSummary {
			header = append(header, "min", "max", "mean")
		}
		table := tablewriter.NewWriter(c.App.Writer)
		table.SetHeader(header)
		for _, col := range p.Columns {
			if col.Ignore {
				row := []string{col.Title, "-", "-", "ignored", "ignored"}
				if hasSummary {
					row = append(row, "-", "-", "-")
				}
				table.Append(row)
				continue
			}
			row := []string{col.Title, col.InputType, col.OutputType, col.OnInvalid, col.OnNull}
			if hasSummary {
				if col.Summary != nil {
					row = append(row,
						strconv.FormatFloat(col.Summary.Min, 'g', -1, 64),
						strconv.FormatFloat(col.Summary.Max, 'g', -1, 64),
						strconv.FormatFloat(col.Summary.Mean, 'g', -1, 64))
				} else {
					row = append(row, "-", "-", "-")
				}
			}
			table.Append(row)
		}
		table.Render()
	}
}
