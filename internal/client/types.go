package client

import (
	"encoding/json"
	"time"
)

// Risk levels computed server-side.
const (
	RiskLow            = "low"
	RiskHigh           = "high"
	RiskMoreInfoNeeded = "more_info_needed"
)

// Farm is a plot record as returned by the farm list endpoints.
type Farm struct {
	ID             int64           `json:"id"`
	RemoteID       *string         `json:"remote_id,omitempty"`
	FarmerName     string          `json:"farmer_name"`
	MemberID       *string         `json:"member_id,omitempty"`
	FarmSize       float64         `json:"farm_size"`
	CollectionSite string          `json:"collection_site"`
	AgentName      *string         `json:"agent_name,omitempty"`
	FarmVillage    string          `json:"farm_village"`
	FarmDistrict   string          `json:"farm_district"`
	Latitude       float64         `json:"latitude"`
	Longitude      float64         `json:"longitude"`
	Polygon        json.RawMessage `json:"polygon,omitempty"`
	PolygonType    string          `json:"polygon_type,omitempty"`
	GeoID          *string         `json:"geoid,omitempty"`
	IsValidated    bool            `json:"is_validated"`
	Analysis       map[string]any  `json:"analysis,omitempty"`
	FileID         *string         `json:"file_id,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// RiskLevel returns analysis.eudr_risk_level, or "" before analysis ran.
func (f Farm) RiskLevel() string {
	level, _ := f.Analysis["eudr_risk_level"].(string)
	return level
}

// HasPolygon reports a non-empty polygon geometry.
func (f Farm) HasPolygon() bool {
	switch string(f.Polygon) {
	case "", "null", "[]", `""`:
		return false
	}
	return true
}

// UploadedFile is a file previously submitted to the ingestion endpoint.
type UploadedFile struct {
	ID         int64     `json:"id"`
	FileName   string    `json:"file_name"`
	UploadedBy string    `json:"uploaded_by"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CollectionSite groups farm plots by site.
type CollectionSite struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	AgentName   *string   `json:"agent_name,omitempty"`
	Email       *string   `json:"email,omitempty"`
	PhoneNumber *string   `json:"phone_number,omitempty"`
	Village     string    `json:"village"`
	District    string    `json:"district"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Template is a downloaded upload template.
type Template struct {
	FileName string
	Content  []byte
}
