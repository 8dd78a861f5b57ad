package analysis

import (
	"sort"
	"strings"

	"github.com/phoenixcrm/leadview/pkg/model"
)

// SortKey selects the ordering Apply uses.
type SortKey string

const (
	SortByName     SortKey = "name"     // ascending "first last"
	SortByValue    SortKey = "value"    // descending monetary value
	SortByPriority SortKey = "priority" // high, medium (and unknown), low
	SortByStage    SortKey = "stage"    // ascending status, unset counts as "new"
)

// SortKeys lists the recognized sort keys in the order the UI cycles them.
var SortKeys = []SortKey{SortByName, SortByValue, SortByPriority, SortByStage}

// IsKnown returns true if the key triggers a reordering in Apply.
func (k SortKey) IsKnown() bool {
	switch k {
	case SortByName, SortByValue, SortByPriority, SortByStage:
		return true
	}
	return false
}

// Next returns the key after k in SortKeys, wrapping around. Unknown keys
// restart the cycle at name.
func (k SortKey) Next() SortKey {
	for i, key := range SortKeys {
		if key == k {
			return SortKeys[(i+1)%len(SortKeys)]
		}
	}
	return SortByName
}

// Query is the search/filter/sort state applied to a lead collection.
type Query struct {
	Search string  `json:"search"`
	Stage  string  `json:"stage"`
	SortBy SortKey `json:"sort_by"`
}

// DefaultQuery matches everything and sorts by name.
func DefaultQuery() Query {
	return Query{Stage: model.StageAll, SortBy: SortByName}
}

// Apply filters and orders leads according to q.
//
// The input slice is never modified and the result is always a newly
// allocated slice, even when nothing was filtered out. Sorting is stable, so
// leads that compare equal keep their server order. An unrecognized sort key
// leaves the filtered order as-is.
func Apply(leads []model.Lead, q Query) []model.Lead {
	lowerQuery := strings.ToLower(q.Search)
	filterStage := q.Stage != model.StageAll

	result := make([]model.Lead, 0, len(leads))
	for _, lead := range leads {
		if q.Search != "" && !lead.Matches(lowerQuery) {
			continue
		}
		if filterStage && lead.Status != q.Stage {
			continue
		}
		result = append(result, lead)
	}

	SortLeads(result, q.SortBy)
	return result
}

// SortLeads orders leads in place by key. Unknown keys are a no-op.
func SortLeads(leads []model.Lead, key SortKey) {
	switch key {
	case SortByName:
		sort.SliceStable(leads, func(i, j int) bool {
			return leads[i].SortName() < leads[j].SortName()
		})
	case SortByValue:
		sort.SliceStable(leads, func(i, j int) bool {
			return leads[i].Value > leads[j].Value
		})
	case SortByPriority:
		sort.SliceStable(leads, func(i, j int) bool {
			return leads[i].PriorityRank() < leads[j].PriorityRank()
		})
	case SortByStage:
		sort.SliceStable(leads, func(i, j int) bool {
			return leads[i].Stage() < leads[j].Stage()
		})
	}
}
