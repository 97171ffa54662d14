package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/terratrac/terratrac-go/internal/client"
	"github.com/terratrac/terratrac-go/internal/farmview"
	"github.com/terratrac/terratrac-go/internal/metrics"
)

func TestFarmTable(t *testing.T) {
	farms := []client.Farm{
		{ID: 1, FarmerName: "Ada", FarmSize: 2.5, CollectionSite: "Kigali", Analysis: map[string]any{"eudr_risk_level": "more_info_needed"}},
		{ID: 2, FarmerName: "Bea", UpdatedAt: time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)},
	}
	out := DefaultTheme.FarmTable(farms)

	assert.Contains(t, out, "Farmer")
	assert.Contains(t, out, "Ada")
	assert.Contains(t, out, "2.5")
	assert.Contains(t, out, "N/A")
	assert.Contains(t, out, "More Info Needed")
	assert.Contains(t, out, "Mon May 06 2024")
}

func TestRiskChart(t *testing.T) {
	s := farmview.Summary{Total: 4, Shares: []farmview.RiskShare{
		{Level: "low", Count: 3, Percent: 75},
		{Level: "high", Count: 1, Percent: 25},
		{Level: "more_info_needed"},
	}}
	out := DefaultTheme.RiskChart(s, 20)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 4)
	assert.Contains(t, lines[0], "Total farms: 4")
	assert.Contains(t, lines[1], "75.00%")
	assert.Equal(t, 15, strings.Count(lines[1], "█"))
	assert.Equal(t, 5, strings.Count(lines[2], "█"))
	assert.Zero(t, strings.Count(lines[3], "█"))

	assert.Contains(t, DefaultTheme.RiskChart(farmview.Summary{}, 20), "No risk analysis yet")
}

func TestStatsTable(t *testing.T) {
	c := metrics.NewCollector()
	c.RecordTransfer(metrics.OpUpload, 40*time.Millisecond, 2048)
	c.RecordOutcome("success")

	out := DefaultTheme.StatsTable(c.Snapshot())
	assert.Contains(t, out, "upload")
	assert.Contains(t, out, "2048")
	assert.NotContains(t, out, "parse")
	assert.Contains(t, out, "success: 1")
}

func TestFileAndSiteTables(t *testing.T) {
	agent := "Jo"
	out := DefaultTheme.FileTable([]client.UploadedFile{{ID: 9, FileName: "farms", UploadedBy: "ada"}})
	assert.Contains(t, out, "farms")
	assert.Contains(t, out, "9")

	out = DefaultTheme.SiteTable([]client.CollectionSite{{ID: 1, Name: "Kigali", AgentName: &agent}})
	assert.Contains(t, out, "Kigali")
	assert.Contains(t, out, "Jo")
	assert.Contains(t, out, "N/A")
}
