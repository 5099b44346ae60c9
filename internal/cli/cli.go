// Copyright 2025 bitjungle - Rune Mathisen. All rights reserved.
// Use of this source code is governed by the MIT license
// that can be found in the LICENSE file.
// The author respectfully requests that it not be used for
// military, warfare, or surveillance applications.

package cli

import (
	"fmt"
	"os"

	"github.com/bitjungle/sanitise/internal/version"
	cli "github.com/urfave/cli/v2"
)

const (
	AppName = "sanitise"
)

// NewApp creates and configures the CLI application.
func NewApp() *cli.App {
	app := &cli.App{
		Name:    AppName,
		Usage:   "declarative CSV column sanitisation pipeline compiler",
		Version: version.Get().Short(),
		Authors: []*cli.Author{
			{
				Name:  "sanitise contributors",
				Email: "support@bitjungle.example.com",
			},
		},
		Description: `sanitise compiles a declarative YAML pipeline into a sequence of
column automata and runs it against CSV input, repairing invalid and
missing cells according to the policy each column declares.

QUICK START:
  Run a pipeline:            sanitise run -c pipeline.yaml data.csv
  Check a pipeline compiles: sanitise validate-config pipeline.yaml
  Inspect compiled columns:  sanitise explain pipeline.yaml

For detailed help on any command, use: sanitise <command> --help`,
		Commands: []*cli.Command{
			runCommand(),
			validateConfigCommand(),
			explainCommand(),
			versionCommand(),
		},
		Before: func(c *cli.Context) error {
			if c.NArg() == 0 && c.Command.Name == "" {
				_ = cli.ShowAppHelp(c)
				os.Exit(0)
			}
			return nil
		},
		CommandNotFound: func(c *cli.Context, command string) {
			_, _ = fmt.Fprintf(c.App.Writer, "Unknown command '%s'. Try '%s help'\n", command, c.App.Name)
		},
	}

	cli.AppHelpTemplate = `NAME:
   {{.Name}}{{if .Usage}} - {{.Usage}}{{end}}

USAGE:
   {{if .UsageText}}{{.UsageText}}{{else}}{{.HelpName}} {{if .VisibleFlags}}[global options]{{end}}{{if .Commands}} command [command options]{{end}} {{if .ArgsUsage}}{{.ArgsUsage}}{{else}}[arguments...]{{end}}{{end}}{{if .Version}}{{if not .HideVersion}}

VERSION:
   {{.Version}}{{end}}{{end}}{{if .Description}}

DESCRIPTION:
   {{.Description}}{{end}}{{if len .Authors}}

AUTHOR{{with $length := len .Authors}}{{if ne 1 $length}}S{{end}}{{end}}:
   {{range $index, $author := .Authors}}{{if $index}}
   {{end}}{{$author}}{{end}}{{end}}{{if .VisibleCommands}}

COMMANDS:{{range .VisibleCategories}}{{if .Name}}
   {{.Name}}:{{range .VisibleCommands}}
     {{join .Names ", "}}{{"\t"}}{{.Usage}}{{end}}{{else}}{{range .VisibleCommands}}
   {{join .Names ", "}}{{"\t"}}{{.Usage}}{{end}}{{end}}{{end}}{{end}}{{if .VisibleFlags}}

GLOBAL OPTIONS:
   {{range $index, $option := .VisibleFlags}}{{if $index}}
   {{end}}{{$option}}{{end}}{{end}}{{if .Copyright}}

COPYRIGHT:
   {{.Copyright}}{{end}}
`

	return app
}

// Run executes the CLI application.
func Run(args []string) error {
	app := NewApp()
	return app.Run(args)
}

// RunWithOSExit runs the CLI and exits with an appropriate status code.
func RunWithOSExit() {
	if err := Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// versionCommand returns the version command.
func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Display version information",
		Action: func(c *cli.Context) error {
			info := version.Get()
			fmt.Println(info.String())
			return nil
		},
	}
}
