// Package schema turns remote layer metadata into the list of selectable
// status categories and validates persisted point records.
package schema

import (
	"fmt"

	"github.com/vijayrajbudala/GIS-Application/arcgis"
)

// Option is one selectable status category.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// FromLayer extracts the categories of the layer's unique value renderer.
// Every missing-field case collapses into ok=false.
func FromLayer(layer *arcgis.Layer) (options []Option, ok bool) {
	if layer == nil || layer.DrawingInfo == nil || layer.DrawingInfo.Renderer == nil {
		return nil, false
	}
	r := layer.DrawingInfo.Renderer

	seen := make(map[string]bool)
	add := func(value, label string) {
		if value == "" || seen[value] {
			return
		}
		seen[value] = true
		if label == "" {
			label = value
		}
		options = append(options, Option{Value: value, Label: label})
	}

	for _, info := range r.UniqueValueInfos {
		add(valueString(info.Value), info.Label)
	}
	if len(r.UniqueValueInfos) == 0 {
		for _, group := range r.UniqueValueGroups {
			for _, class := range group.Classes {
				for _, values := range class.Values {
					if len(values) > 0 {
						add(values[0], class.Label)
					}
				}
			}
		}
	}

	if len(options) == 0 {
		return nil, false
	}
	return options, true
}

// Contains reports whether value is one of the options.
func Contains(options []Option, value string) bool {
	for _, o := range options {
		if o.Value == value {
			return true
		}
	}
	return false
}

func valueString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}
