package cli

import (
	"encoding/json"
	"fmt"

	"github.com/toyz/annotate/pkg/annotations"
	"github.com/toyz/annotate/pkg/reader"
)

// Finding is one annotation found by a scan
type Finding struct {
	File       string          `json:"file" msgpack:"file"`
	Element    string          `json:"element" msgpack:"element"`
	Kind       string          `json:"kind" msgpack:"kind"`
	Annotation string          `json:"annotation" msgpack:"annotation"`
	RawName    string          `json:"rawName,omitempty" msgpack:"raw_name"`
	Line       int             `json:"line" msgpack:"line"`
	Column     int             `json:"column" msgpack:"column"`
	Value      string          `json:"value" msgpack:"value"`
	Object     json.RawMessage `json:"object,omitempty" msgpack:"object"`
}

// Location renders the position of the finding as file:line:column
func (f Finding) Location() string {
	return fmt.Sprintf("%s:%d:%d", f.File, f.Line, f.Column)
}

// newFinding converts a parse result of el into a finding. Objects that do
// not marshal to JSON keep their textual form only.
func newFinding(path string, el reader.Element, res annotations.Result) Finding {
	f := Finding{
		File:       path,
		Element:    el.Label,
		Kind:       el.Kind.String(),
		Annotation: res.Name,
		Line:       res.Location.Line,
		Column:     res.Location.Column,
		Value:      fmt.Sprint(res.Object),
	}
	if res.RawName != res.Name {
		f.RawName = res.RawName
	}
	if data, err := json.Marshal(res.Object); err == nil {
		f.Object = data
	}
	return f
}
