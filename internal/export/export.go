// Package export writes farm lists as xlsx, csv or geojson files.
package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/terratrac/terratrac-go/internal/client"
)

// Format is an export file format.
type Format string

const (
	FormatXLSX    Format = "xlsx"
	FormatCSV     Format = "csv"
	FormatGeoJSON Format = "geojson"
)

// ErrUnknownFormat is returned for formats other than xlsx, csv and geojson.
var ErrUnknownFormat = errors.New("unknown export format")

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimPrefix(s, "."))); f {
	case FormatXLSX, FormatCSV, FormatGeoJSON:
		return f, nil
	case "xls":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// SheetName is the worksheet exported farms are written to.
const SheetName = "Plots Data"

var baseNames = map[string]string{
	"en": "validated_farms",
	"fr": "fermes_validées",
	"rw": "ubutaka_bwasuzumwe",
	"es": "granjas_validadas",
	"sw": "mashamba_yaliyothibitishwa",
}

// FileName returns the export file name for a UI language, falling back to
// English for unknown languages.
func FileName(lang string, format Format, now time.Time) string {
	base, ok := baseNames[strings.ToLower(lang)]
	if !ok {
		base = baseNames["en"]
	}
	stamp := strings.ReplaceAll(now.UTC().Format("2006-01-02T15:04:05.000Z"), ":", "-")
	return fmt.Sprintf("%s_%s.%s", base, stamp, format)
}

// Column is one exported farm attribute.
type Column struct {
	Key   string
	Value func(client.Farm) any
}

// Columns are the exported attributes in output order.
var Columns = []Column{
	{"id", func(f client.Farm) any { return f.ID }},
	{"geoid", func(f client.Farm) any { return deref(f.GeoID) }},
	{"remote_id", func(f client.Farm) any { return deref(f.RemoteID) }},
	{"farmer_name", func(f client.Farm) any { return f.FarmerName }},
	{"member_id", func(f client.Farm) any { return deref(f.MemberID) }},
	{"farm_size", func(f client.Farm) any { return f.FarmSize }},
	{"collection_site", func(f client.Farm) any { return f.CollectionSite }},
	{"agent_name", func(f client.Farm) any { return deref(f.AgentName) }},
	{"farm_village", func(f client.Farm) any { return f.FarmVillage }},
	{"farm_district", func(f client.Farm) any { return f.FarmDistrict }},
	{"latitude", func(f client.Farm) any { return f.Latitude }},
	{"longitude", func(f client.Farm) any { return f.Longitude }},
	{"eudr_risk_level", func(f client.Farm) any { return f.RiskLevel() }},
	{"is_validated", func(f client.Farm) any { return f.IsValidated }},
	{"updated_at", func(f client.Farm) any { return f.UpdatedAt.Format(time.RFC3339) }},
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func header() []string {
	out := make([]string, len(Columns))
	for i, c := range Columns {
		out[i] = c.Key
	}
	return out
}

// Write encodes farms to w in the given format.
func Write(w io.Writer, format Format, farms []client.Farm) error {
	switch format {
	case FormatXLSX:
		return WriteXLSX(w, farms)
	case FormatCSV:
		return WriteCSV(w, farms)
	case FormatGeoJSON:
		return WriteGeoJSON(w, farms)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// WriteXLSX writes a workbook with a bold header row.
func WriteXLSX(w io.Writer, farms []client.Farm) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	cols := header()
	row := make([]any, len(cols))
	for i, c := range cols {
		row[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &row); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(cols), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, "A1", last, bold); err != nil {
		return fmt.Errorf("apply header style: %w", err)
	}

	for i, farm := range farms {
		cells := make([]any, len(Columns))
		for j, c := range Columns {
			cells[j] = c.Value(farm)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, &cells); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// WriteCSV writes a header row followed by one row per farm.
func WriteCSV(w io.Writer, farms []client.Farm) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header()); err != nil {
		return err
	}
	for _, farm := range farms {
		rec := make([]string, len(Columns))
		for i, c := range Columns {
			rec[i] = cellString(c.Value(farm))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func cellString(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

type feature struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
	Geometry   geometry       `json:"geometry"`
}

type geometry struct {
	Type        string `json:"type"`
	Coordinates any    `json:"coordinates"`
}

// WriteGeoJSON writes a FeatureCollection. A farm's geometry is its polygon
// when it has one, otherwise a point at [longitude, latitude].
func WriteGeoJSON(w io.Writer, farms []client.Farm) error {
	fc := featureCollection{Type: "FeatureCollection", Features: make([]feature, 0, len(farms))}
	for _, farm := range farms {
		props := make(map[string]any, len(Columns)+1)
		for _, c := range Columns {
			props[c.Key] = c.Value(farm)
		}
		if len(farm.Analysis) > 0 {
			props["analysis"] = farm.Analysis
		}

		geom := geometry{Type: "Point", Coordinates: []float64{farm.Longitude, farm.Latitude}}
		if farm.HasPolygon() {
			geom = geometry{Type: "Polygon", Coordinates: farm.Polygon}
		}
		fc.Features = append(fc.Features, feature{Type: "Feature", Properties: props, Geometry: geom})
	}

	enc := json.NewEncoder(w)
	return enc.Encode(fc)
}
