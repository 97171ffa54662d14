package parser

import (
	"encoding/json"
	"fmt"
)

// decodeGeoJSON decodes the document without reshaping it. A top-level
// array contributes one row per element.
func decodeGeoJSON(content []byte) ([]string, []map[string]any, error) {
	var doc any
	if err := json.Unmarshal(content, &doc); err != nil {
		return nil, nil, fmt.Errorf("geojson: %w", err)
	}

	switch v := doc.(type) {
	case map[string]any:
		return nil, []map[string]any{v}, nil
	case []any:
		rows := make([]map[string]any, 0, len(v))
		for i, el := range v {
			obj, ok := el.(map[string]any)
			if !ok {
				return nil, nil, fmt.Errorf("geojson: element %d is %T, want object", i, el)
			}
			rows = append(rows, obj)
		}
		return nil, rows, nil
	default:
		return nil, nil, fmt.Errorf("geojson: top-level value is %T, want object", doc)
	}
}
