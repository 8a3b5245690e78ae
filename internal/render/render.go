// Package render turns control states into the select markup the host page swaps in.
package render

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/abrezinsky/pairsync/internal/selection"
)

const selectTemplate = `<select id="id_{{.Key}}" name="{{.Key}}">
{{- range .Segments}}
{{- if .Group}}<optgroup label="{{.Group}}">{{end}}
{{- range .Options}}<option value="{{.Value}}"{{if .Selected}} selected{{end}}{{if .Hidden}} hidden{{end}}>{{.Label}}</option>{{end}}
{{- if .Group}}</optgroup>{{end}}
{{- end}}</select>`

var tmpl = template.Must(template.New("select").Parse(selectTemplate))

type optionView struct {
	Value    string
	Label    string
	Selected bool
	Hidden   bool
}

// segment is a run of consecutive options sharing a group; Group is empty for plain options
type segment struct {
	Group   string
	Options []optionView
}

type selectView struct {
	Key      string
	Segments []segment
}

func newSelectView(c selection.ControlState) selectView {
	view := selectView{Key: c.Key}
	// only the first option carrying the value is marked, matching Control.GroupOf
	marked := false
	for i, opt := range c.Options {
		ov := optionView{
			Value:    string(opt.Value),
			Label:    opt.Label,
			Selected: !marked && opt.Value == c.Value,
			Hidden:   opt.Hidden,
		}
		marked = marked || ov.Selected
		if i == 0 || opt.Group != c.Options[i-1].Group {
			view.Segments = append(view.Segments, segment{Group: opt.Group})
		}
		last := &view.Segments[len(view.Segments)-1]
		last.Options = append(last.Options, ov)
	}
	return view
}

// Control renders one control as a select element
func Control(c selection.ControlState) (template.HTML, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, newSelectView(c)); err != nil {
		return "", fmt.Errorf("render %s: %w", c.Key, err)
	}
	return template.HTML(buf.String()), nil
}

// Snapshot renders every control of a snapshot, keyed by control key
func Snapshot(s selection.Snapshot) (map[string]template.HTML, error) {
	out := make(map[string]template.HTML, len(s.Controls))
	for _, c := range s.Controls {
		html, err := Control(c)
		if err != nil {
			return nil, err
		}
		out[c.Key] = html
	}
	return out, nil
}
