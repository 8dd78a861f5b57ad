package analysis

import (
	"sort"

	"github.com/phoenixcrm/leadview/pkg/model"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats are the headline pipeline counts shown above the lead list.
// They are always computed over the unfiltered collection.
type Stats struct {
	Total     int `json:"total"`
	New       int `json:"new"`       // status exactly "new"
	Qualified int `json:"qualified"` // status exactly "qualified"
}

// ComputeStats counts leads in a single pass. Status is compared raw: a lead
// without a status does not count as new.
func ComputeStats(leads []model.Lead) Stats {
	s := Stats{Total: len(leads)}
	for _, lead := range leads {
		switch lead.Status {
		case model.StageNew:
			s.New++
		case model.StageQualified:
			s.Qualified++
		}
	}
	return s
}

// StageCount is the number of leads carrying one raw status.
type StageCount struct {
	Stage string `json:"stage"`
	Count int    `json:"count"`
}

// CountByStage tallies leads per raw status. Known pipeline stages come
// first in pipeline order, followed by any other statuses alphabetically.
// Pipeline stages with no leads are reported with a zero count.
func CountByStage(leads []model.Lead) []StageCount {
	counts := make(map[string]int)
	for _, lead := range leads {
		counts[lead.Status]++
	}

	result := make([]StageCount, 0, len(counts)+len(model.PipelineStages))
	for _, stage := range model.PipelineStages {
		result = append(result, StageCount{Stage: stage, Count: counts[stage]})
		delete(counts, stage)
	}

	var others []string
	for stage := range counts {
		others = append(others, stage)
	}
	sort.Strings(others)
	for _, stage := range others {
		result = append(result, StageCount{Stage: stage, Count: counts[stage]})
	}
	return result
}

// StageGroup is one column of the pipeline board.
type StageGroup struct {
	Stage string       `json:"stage"`
	Leads []model.Lead `json:"leads"`
}

// GroupByStage buckets leads into the fixed pipeline columns, keeping the
// input order inside each column. Leads without a status land in "new";
// leads in a stage outside the pipeline are not shown on the board.
func GroupByStage(leads []model.Lead) []StageGroup {
	index := make(map[string]int, len(model.PipelineStages))
	groups := make([]StageGroup, len(model.PipelineStages))
	for i, stage := range model.PipelineStages {
		index[stage] = i
		groups[i] = StageGroup{Stage: stage, Leads: []model.Lead{}}
	}

	for _, lead := range leads {
		if i, ok := index[lead.Stage()]; ok {
			groups[i].Leads = append(groups[i].Leads, lead)
		}
	}
	return groups
}

// ValueSummary describes the monetary value of a lead collection.
type ValueSummary struct {
	Count  int     `json:"count"`
	Sum    float64 `json:"sum"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
	Max    float64 `json:"max"`
}

// ComputeValueSummary aggregates lead values. Missing values count as 0.
func ComputeValueSummary(leads []model.Lead) ValueSummary {
	if len(leads) == 0 {
		return ValueSummary{}
	}

	values := make([]float64, len(leads))
	for i, lead := range leads {
		values[i] = lead.Value
	}
	sort.Float64s(values)

	summary := ValueSummary{
		Count:  len(values),
		Sum:    floats.Sum(values),
		Mean:   stat.Mean(values, nil),
		Median: stat.Quantile(0.5, stat.Empirical, values, nil),
		Max:    floats.Max(values),
	}
	if len(values) > 1 {
		summary.StdDev = stat.StdDev(values, nil)
	}
	return summary
}
