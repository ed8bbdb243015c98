// Command objdiff compares two JSON or YAML documents & prints the paths of
// the leaf values that differ.
//
//	objdiff [flags] OLD NEW
//
// Exit status is 0 when the documents are equal, 1 when differences were
// found & 2 on error
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/qri-io/objdiff"
	"github.com/qri-io/objdiff/internal/log"
)

const (
	exitSame      = 0
	exitDifferent = 1
	exitError     = 2
)

func main() {
	log.InitLogger()
	os.Exit(realMain(context.Background(), os.Args, os.Stdout, os.Stderr))
}

func realMain(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var found bool
	cmd := newCommand(stdout, &found)
	cmd.ErrWriter = stderr

	if err := cmd.Run(ctx, args); err != nil {
		log.WithError(err).Debug("objdiff failed")
		fmt.Fprintf(stderr, "objdiff: %s\n", err)
		return exitError
	}
	if found {
		return exitDifferent
	}
	return exitSame
}

func newCommand(stdout io.Writer, found *bool) *cli.Command {
	return &cli.Command{
		Name:      "objdiff",
		Usage:     "compare two JSON or YAML documents structurally",
		ArgsUsage: "OLD NEW",
		Writer:    stdout,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "output format: pretty, json or yaml",
				Value:   "pretty",
			},
			&cli.StringFlag{
				Name:  "input",
				Usage: "input format: json or yaml, detected from file extensions when empty",
			},
			&cli.StringFlag{
				Name:  "at",
				Usage: "only compare the values this gjson query selects",
			},
			&cli.BoolFlag{
				Name:  "strict",
				Usage: "fail on values that can't be compared instead of reporting them",
			},
			&cli.IntFlag{
				Name:  "max-depth",
				Usage: "fail when values nest deeper than this, 0 for no limit",
			},
			&cli.BoolFlag{
				Name:  "stats",
				Usage: "print a summary line after the differences",
			},
			&cli.StringFlag{
				Name:  "color",
				Usage: "colorize pretty output: auto, always or never",
				Value: "auto",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 2 {
				return fmt.Errorf("expected OLD and NEW arguments, got %d", cmd.NArg())
			}

			opts := options{
				format:   cmd.String("format"),
				input:    cmd.String("input"),
				at:       cmd.String("at"),
				strict:   cmd.Bool("strict"),
				maxDepth: int(cmd.Int("max-depth")),
				stats:    cmd.Bool("stats"),
				color:    useColor(cmd.String("color"), stdout),
			}
			diffs, err := run(opts, cmd.Args().Get(0), cmd.Args().Get(1), stdout)
			if err != nil {
				return err
			}
			*found = len(diffs) > 0
			return nil
		},
	}
}

type options struct {
	format   string
	input    string
	at       string
	strict   bool
	maxDepth int
	stats    bool
	color    bool
}

func run(opts options, oldPath, newPath string, w io.Writer) (objdiff.Differences, error) {
	a, err := readDocument(oldPath, opts.input)
	if err != nil {
		return nil, err
	}
	b, err := readDocument(newPath, opts.input)
	if err != nil {
		return nil, err
	}
	log.Debugf("read %s & %s", oldPath, newPath)

	st := &objdiff.Stats{}
	cfg := []objdiff.Option{
		objdiff.OptionSetStats(st),
		objdiff.OptionMaxDepth(opts.maxDepth),
	}
	if opts.strict {
		cfg = append(cfg, objdiff.OptionStrict())
	}

	var diffs objdiff.Differences
	if opts.at != "" {
		oldJSON, err := json.Marshal(a)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", oldPath, err)
		}
		newJSON, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", newPath, err)
		}
		log.Tracef("selecting %q", opts.at)
		diffs, err = objdiff.CompareJSONAt(oldJSON, newJSON, opts.at, cfg...)
		if err != nil {
			return nil, err
		}
	} else {
		if diffs, err = objdiff.Compare(a, b, cfg...); err != nil {
			return nil, err
		}
	}

	switch opts.format {
	case "pretty", "":
		if err := objdiff.FormatPretty(w, diffs, opts.color); err != nil {
			return nil, err
		}
		if opts.stats {
			if opts.color {
				fmt.Fprint(w, objdiff.FormatPrettyStatsColor(st))
			} else {
				fmt.Fprint(w, objdiff.FormatPrettyStats(st))
			}
		}
	case "json":
		err = objdiff.FormatJSON(w, diffs)
	case "yaml":
		err = objdiff.FormatYAML(w, diffs)
	default:
		err = fmt.Errorf("unknown format %q", opts.format)
	}
	if err != nil {
		return nil, err
	}
	return diffs, nil
}

// readDocument decodes a JSON or YAML file into generic go values. format
// overrides detection by file extension, anything that isn't .yaml or .yml
// is read as JSON
func readDocument(path, format string) (interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if format == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			format = "yaml"
		default:
			format = "json"
		}
	}

	var v interface{}
	switch format {
	case "json":
		err = json.Unmarshal(data, &v)
	case "yaml":
		err = yaml.Unmarshal(data, &v)
	default:
		return nil, fmt.Errorf("unknown input format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}

func useColor(mode string, w io.Writer) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}
