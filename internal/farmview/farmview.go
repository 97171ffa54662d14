// Package farmview derives what the farm screens show from a list of farms:
// filtered and sorted rows plus the risk breakdown.
package farmview

import (
	"math"
	"slices"
	"sort"
	"strings"

	"github.com/terratrac/terratrac-go/internal/client"
)

// RiskLevels lists the known risk levels in display order.
var RiskLevels = []string{client.RiskLow, client.RiskHigh, client.RiskMoreInfoNeeded}

// Filter narrows a farm list. Empty fields match everything.
type Filter struct {
	Risk string
	Site string
}

// Apply returns the farms matching f. The input is not modified.
func (f Filter) Apply(farms []client.Farm) []client.Farm {
	out := make([]client.Farm, 0, len(farms))
	for _, farm := range farms {
		if f.Risk != "" && !strings.EqualFold(farm.RiskLevel(), f.Risk) {
			continue
		}
		if f.Site != "" && !strings.EqualFold(farm.CollectionSite, f.Site) {
			continue
		}
		out = append(out, farm)
	}
	return out
}

// SortByRisk orders farms low risk first, keeping the server order otherwise.
func SortByRisk(farms []client.Farm) {
	sort.SliceStable(farms, func(i, j int) bool {
		return riskRank(farms[i]) < riskRank(farms[j])
	})
}

func riskRank(f client.Farm) int {
	if f.RiskLevel() == client.RiskLow {
		return 0
	}
	return 1
}

// RiskShare is one slice of the risk breakdown.
type RiskShare struct {
	Level   string
	Count   int
	Percent float64 // rounded to two decimals
}

// Summary is the risk breakdown of a farm list.
type Summary struct {
	Total  int
	Shares []RiskShare
}

// Share returns the share for level.
func (s Summary) Share(level string) RiskShare {
	for _, sh := range s.Shares {
		if sh.Level == level {
			return sh
		}
	}
	return RiskShare{Level: level}
}

// Empty reports whether no farm has a known risk level.
func (s Summary) Empty() bool {
	for _, sh := range s.Shares {
		if sh.Count > 0 {
			return false
		}
	}
	return true
}

// Summarize counts farms per risk level.
func Summarize(farms []client.Farm) Summary {
	counts := make(map[string]int, len(RiskLevels))
	for _, f := range farms {
		counts[f.RiskLevel()]++
	}

	s := Summary{Total: len(farms), Shares: make([]RiskShare, 0, len(RiskLevels))}
	for _, level := range RiskLevels {
		share := RiskShare{Level: level, Count: counts[level]}
		if s.Total > 0 {
			share.Percent = math.Round(float64(share.Count)/float64(s.Total)*10000) / 100
		}
		s.Shares = append(s.Shares, share)
	}
	return s
}

// Sites returns the distinct collection sites, sorted.
func Sites(farms []client.Farm) []string {
	var out []string
	for _, f := range farms {
		if f.CollectionSite != "" && !slices.Contains(out, f.CollectionSite) {
			out = append(out, f.CollectionSite)
		}
	}
	slices.Sort(out)
	return out
}

// RiskLabel renders a risk level for display: "more_info_needed" becomes
// "More Info Needed", unknown levels become "-".
func RiskLabel(level string) string {
	if level == "" {
		return "-"
	}
	words := strings.Split(level, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
