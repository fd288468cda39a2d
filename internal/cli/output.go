package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-yaml"

	"hy2core/pkg/types"
)

const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

// render writes v in the selected format; text uses the given printer.
func (o *Options) render(v any, text func(io.Writer) error) error {
	if o.Output == outputText {
		return text(o.out)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return o.renderRawJSON(string(b))
}

// renderRawJSON prints a JSON document as is, indented, or as YAML.
func (o *Options) renderRawJSON(doc string) error {
	switch o.Output {
	case outputYAML:
		y, err := yaml.JSONToYAML([]byte(doc))
		if err != nil {
			return fmt.Errorf("convert to yaml: %w", err)
		}
		_, err = o.out.Write(y)
		return err
	case outputJSON:
		var v any
		if err := json.Unmarshal([]byte(doc), &v); err != nil {
			return err
		}
		enc := json.NewEncoder(o.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		_, err := fmt.Fprintln(o.out, doc)
		return err
	}
}

// renderStream prints one frame per line; yaml frames are separated by "---".
func (o *Options) renderStream(m types.StreamMessage) error {
	switch o.Output {
	case outputJSON:
		return json.NewEncoder(o.out).Encode(m)
	case outputYAML:
		if _, err := io.WriteString(o.out, "---\n"); err != nil {
			return err
		}
		return o.render(m, nil)
	}
	ts := m.Time.Local().Format(time.TimeOnly)
	var err error
	if m.Kind == types.StreamKindLog {
		_, err = fmt.Fprintf(o.out, "%s %-5s %s\n", ts, m.Level, m.Message)
	} else {
		_, err = fmt.Fprintf(o.out, "%s event %s %s\n", ts, m.Name, m.Data)
	}
	return err
}

func writeStatus(w io.Writer, st types.StatusResponse) error {
	_, err := fmt.Fprintf(w, "state:      %s\nversion:    %s\nengine:     %s\nlog level:  %s\nuptime:     %s\noperations: %d\n",
		st.State, st.Version, st.EngineVersion, st.LogLevel,
		(time.Duration(st.UptimeSeconds) * time.Second).String(), st.Operations)
	if err != nil || st.LastError == "" {
		return err
	}
	_, err = fmt.Fprintf(w, "last error: %s (%s)\n", st.LastError, time.Unix(st.LastErrorUnix, 0).UTC().Format(time.RFC3339))
	return err
}
