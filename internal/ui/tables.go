package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/terratrac/terratrac-go/internal/client"
	"github.com/terratrac/terratrac-go/internal/farmview"
	"github.com/terratrac/terratrac-go/internal/metrics"
	"github.com/terratrac/terratrac-go/internal/upload"
)

const dateLayout = "Mon Jan 02 2006"

func (t Theme) newTable(headers ...string) *table.Table {
	header := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(t.Hint)).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		}).
		Headers(headers...)
}

func orNA(s *string) string {
	if s == nil || *s == "" {
		return "N/A"
	}
	return *s
}

// FarmTable renders farms as the plots table.
func (t Theme) FarmTable(farms []client.Farm) string {
	tbl := t.newTable("#", "GeoID", "Farmer", "Size", "Site", "Village", "District", "Risk", "Updated")
	for i, f := range farms {
		risk := lipgloss.NewStyle().Foreground(t.riskColor(f.RiskLevel())).Render(farmview.RiskLabel(f.RiskLevel()))
		tbl.Row(
			strconv.Itoa(i+1)+".",
			orNA(f.GeoID),
			f.FarmerName,
			strconv.FormatFloat(f.FarmSize, 'f', -1, 64),
			f.CollectionSite,
			f.FarmVillage,
			f.FarmDistrict,
			risk,
			f.UpdatedAt.Format(dateLayout),
		)
	}
	return tbl.String()
}

// FileTable renders uploaded files.
func (t Theme) FileTable(files []client.UploadedFile) string {
	tbl := t.newTable("ID", "File", "Uploaded by", "Uploaded")
	for _, f := range files {
		tbl.Row(strconv.FormatInt(f.ID, 10), f.FileName, f.UploadedBy, f.CreatedAt.Format(dateLayout))
	}
	return tbl.String()
}

// SiteTable renders collection sites.
func (t Theme) SiteTable(sites []client.CollectionSite) string {
	tbl := t.newTable("ID", "Name", "Agent", "Phone", "Village", "District")
	for _, s := range sites {
		tbl.Row(strconv.FormatInt(s.ID, 10), s.Name, orNA(s.AgentName), orNA(s.PhoneNumber), s.Village, s.District)
	}
	return tbl.String()
}

// RiskChart renders the risk breakdown as horizontal bars of at most width
// cells.
func (t Theme) RiskChart(s farmview.Summary, width int) string {
	if s.Empty() {
		return t.hintStyle().Render("No risk analysis yet") + "\n"
	}
	if width <= 0 {
		width = 40
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Total farms: %d\n", s.Total)
	for _, sh := range s.Shares {
		n := int(sh.Percent / 100 * float64(width))
		if sh.Count > 0 && n == 0 {
			n = 1
		}
		bar := lipgloss.NewStyle().Foreground(t.riskColor(sh.Level)).Render(strings.Repeat("█", n))
		fmt.Fprintf(&b, "%-17s %s %6.2f%% (%d)\n", farmview.RiskLabel(sh.Level), bar, sh.Percent, sh.Count)
	}
	return b.String()
}

// StatsTable renders the timing stats of a run.
func (t Theme) StatsTable(s metrics.Snapshot) string {
	tbl := t.newTable("Operation", "Count", "Avg ms", "Min ms", "Max ms", "Bytes")
	for _, op := range []struct {
		name string
		snap *metrics.OperationSnapshot
	}{
		{metrics.OpParse, s.Parse},
		{metrics.OpUpload, s.Upload},
		{metrics.OpSettle, s.Settle},
	} {
		if op.snap == nil {
			continue
		}
		bytes := "-"
		if op.snap.TotalBytes != nil {
			bytes = strconv.FormatInt(*op.snap.TotalBytes, 10)
		}
		tbl.Row(op.name,
			strconv.FormatInt(op.snap.Count, 10),
			strconv.FormatFloat(op.snap.AvgTimeMs, 'f', 1, 64),
			strconv.FormatInt(op.snap.MinTimeMs, 10),
			strconv.FormatInt(op.snap.MaxTimeMs, 10),
			bytes,
		)
	}

	var b strings.Builder
	b.WriteString(tbl.String() + "\n")
	for _, kind := range []upload.OutcomeKind{upload.Success, upload.ValidationFailed, upload.NetworkFailed} {
		if n := s.Outcomes[kind.String()]; n > 0 {
			fmt.Fprintf(&b, "%s: %d\n", kind, n)
		}
	}
	return b.String()
}
