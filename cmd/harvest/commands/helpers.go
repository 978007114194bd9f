package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/harvest-client/internal/constants"
	"github.com/fivetwenty-io/harvest-client/pkg/harvest"
)

// ResolvePath turns "resource[/id[/related[/id]]]" into a configured handle.
func ResolvePath(client harvest.Client, path string) (harvest.Resource, error) {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) > 4 || slices.Contains(segments, "") {
		return nil, fmt.Errorf("%w: %q", constants.ErrInvalidPath, path)
	}

	resource, err := client.Resolve(segments[0])
	if err != nil {
		return nil, err
	}

	if len(segments) == 1 {
		return resource, nil
	}

	resource.Select(segments[1])

	if len(segments) == 2 {
		return resource, nil
	}

	related, err := resource.Related(segments[2])
	if err != nil {
		return nil, err
	}

	if len(segments) == 4 {
		related.Select(segments[3])
	}

	return related, nil
}

// readData parses a --data value: inline JSON, "@file" or "@-" for stdin.
func readData(data string, stdin io.Reader) (json.RawMessage, error) {
	if data == "" {
		return nil, constants.ErrNoData
	}

	raw := []byte(data)

	if name, ok := strings.CutPrefix(data, "@"); ok {
		var err error

		if name == "-" {
			raw, err = io.ReadAll(stdin)
		} else {
			// #nosec G304
			raw, err = os.ReadFile(name)
		}

		if err != nil {
			return nil, fmt.Errorf("failed to read data: %w", err)
		}
	}

	if !json.Valid(raw) {
		return nil, fmt.Errorf("--data is not valid JSON")
	}

	return json.RawMessage(raw), nil
}

// writeBody renders a response body in the configured output format.
func writeBody(w io.Writer, body json.RawMessage) error {
	switch format := viper.GetString("output"); format {
	case constants.FormatJSON, "":
		var out bytes.Buffer

		if len(body) == 0 {
			return nil
		}

		err := json.Indent(&out, body, "", strings.Repeat(" ", constants.JSONIndentSize))
		if err != nil {
			return fmt.Errorf("failed to format response: %w", err)
		}

		out.WriteByte('\n')
		_, err = w.Write(out.Bytes())

		return err
	case constants.FormatYAML:
		value, err := decodeBody(body)
		if err != nil {
			return err
		}

		return yaml.NewEncoder(w).Encode(value)
	case constants.FormatTable:
		value, err := decodeBody(body)
		if err != nil {
			return err
		}

		return renderTable(w, value)
	default:
		return fmt.Errorf("%w: %s", constants.ErrUnsupportedFormat, format)
	}
}

// writeValue renders a Go value in the configured output format; rows feed the table format.
func writeValue(w io.Writer, value any, header []string, rows [][]string) error {
	switch format := viper.GetString("output"); format {
	case constants.FormatJSON, "":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", strings.Repeat(" ", constants.JSONIndentSize))

		return encoder.Encode(value)
	case constants.FormatYAML:
		return yaml.NewEncoder(w).Encode(value)
	case constants.FormatTable:
		table := tablewriter.NewWriter(w)
		table.Header(toAny(header)...)

		for _, row := range rows {
			_ = table.Append(row)
		}

		if err := table.Render(); err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}

		return nil
	default:
		return fmt.Errorf("%w: %s", constants.ErrUnsupportedFormat, format)
	}
}

func decodeBody(body json.RawMessage) (any, error) {
	if len(body) == 0 {
		return nil, nil
	}

	var value any

	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()

	err := decoder.Decode(&value)
	if err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return value, nil
}

// renderTable prints a list of objects as one row per object and a single
// object as property/value pairs. Anything else falls back to JSON.
func renderTable(w io.Writer, value any) error {
	table := tablewriter.NewWriter(w)

	switch typed := value.(type) {
	case []any:
		columns := tableColumns(typed)
		if len(columns) == 0 {
			_, err := fmt.Fprintf(w, "%d records\n", len(typed))

			return err
		}

		table.Header(toAny(columns)...)

		for _, item := range typed {
			object, _ := item.(map[string]any)
			row := make([]string, len(columns))

			for i, column := range columns {
				row[i] = cellText(object[column])
			}

			_ = table.Append(row)
		}
	case map[string]any:
		table.Header("Property", "Value")

		for _, key := range sortedKeys(typed) {
			_ = table.Append(key, cellText(typed[key]))
		}
	default:
		_, err := fmt.Fprintln(w, cellText(value))

		return err
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

// tableColumns lists the keys of the first object, "id" first.
func tableColumns(items []any) []string {
	for _, item := range items {
		object, ok := item.(map[string]any)
		if !ok {
			continue
		}

		keys := sortedKeys(object)

		sort.SliceStable(keys, func(i, j int) bool { return keys[i] == "id" && keys[j] != "id" })

		return keys
	}

	return nil
}

func sortedKeys(object map[string]any) []string {
	keys := make([]string, 0, len(object))
	for key := range object {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}

func cellText(value any) string {
	var text string

	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		text = typed
	case json.Number, bool:
		text = fmt.Sprint(typed)
	default:
		data, err := json.Marshal(typed)
		if err != nil {
			return constants.NotAvailable
		}

		text = string(data)
	}

	if len(text) > constants.StringTruncationLength {
		return text[:constants.StringTruncationLength-3] + "..."
	}

	return text
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, value := range values {
		out[i] = value
	}

	return out
}
