package objdiff

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// FormatPrettyString is a convenice wrapper that outputs to a string instead of
// an io.Writer
func FormatPrettyString(diffs Differences, colorTTY bool) (string, error) {
	buf := &bytes.Buffer{}
	if err := FormatPretty(buf, diffs, colorTTY); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// FormatPretty writes a text report to w, one line per difference:
//   ~ Child.ChildProp: "a" => "b"
// values are JSON encoded where possible. if colorTTY is true it will add
// blue for paths, red for old values & green for new values
func FormatPretty(w io.Writer, diffs Differences, colorTTY bool) error {
	var colorMap map[string]string

	if colorTTY {
		colorMap = map[string]string{
			"close": "\x1b[0m", // end color tag

			"path": "\x1b[34m", // blue
			"old":  "\x1b[31m", // red
			"new":  "\x1b[32m", // green
		}
	}

	for _, d := range diffs {
		path := d.Path
		if path == "" {
			path = "<root>"
		}
		_, err := fmt.Fprintf(w, "~ %s%s%s: %s%s%s => %s%s%s\n",
			colorMap["path"], path, colorMap["close"],
			colorMap["old"], formatValue(d.OldValue), colorMap["close"],
			colorMap["new"], formatValue(d.NewValue), colorMap["close"],
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// formatValue renders a value as JSON, falling back to go syntax for values
// JSON can't represent (channels, funcs, maps with non-string keys)
func formatValue(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%#v", v)
	}
	return string(data)
}

// FormatJSON writes differences as an indented JSON array of
// [path, old, new] triples
func FormatJSON(w io.Writer, diffs Differences) error {
	if diffs == nil {
		diffs = Differences{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(diffs)
}

// FormatYAML writes differences as a YAML sequence of path, old, new
// mappings
func FormatYAML(w io.Writer, diffs Differences) error {
	if diffs == nil {
		diffs = Differences{}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(diffs); err != nil {
		return err
	}
	return enc.Close()
}

// FormatPrettyStats prints a string of stats info
func FormatPrettyStats(diffStat *Stats) string {
	return formatStats(diffStat, false)
}

// FormatPrettyStatsColor prints a string of stats info with ANSI colors
func FormatPrettyStatsColor(diffStat *Stats) string {
	return formatStats(diffStat, true)
}

func formatStats(st *Stats, color bool) string {
	var (
		neutralColor, changeColor, warnColor, closeColor string
	)

	if st == nil {
		return ""
	}

	if color {
		neutralColor = "\x1b[37m"
		changeColor = "\x1b[34m"
		warnColor = "\x1b[33m"
		closeColor = "\x1b[0m"
	}

	buf := &bytes.Buffer{}

	buf.WriteString(fmt.Sprintf("%s%d %s.%s", neutralColor, st.Nodes, plural(st.Nodes, "node"), closeColor))
	buf.WriteString(fmt.Sprintf(" %s%d %s.%s", changeColor, st.Differences, plural(st.Differences, "difference"), closeColor))

	if st.ShortCircuits > 0 {
		buf.WriteString(fmt.Sprintf(" %s%d %s compared whole.%s", neutralColor, st.ShortCircuits, plural(st.ShortCircuits, "collection"), closeColor))
	}
	if st.Mismatches > 0 {
		buf.WriteString(fmt.Sprintf(" %s%d %s.%s", warnColor, st.Mismatches, plural(st.Mismatches, "mismatch"), closeColor))
	}

	buf.WriteRune('\n')

	return buf.String()
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	if strings.HasSuffix(word, "ch") {
		return word + "es"
	}
	return word + "s"
}
