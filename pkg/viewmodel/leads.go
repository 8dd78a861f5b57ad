// Package viewmodel holds the lead list state behind the TUI and robot
// commands: the last fetched collection, the search/stage/sort selection, and
// the filtered view derived from them.
package viewmodel

import (
	"context"
	"errors"
	"fmt"

	"github.com/phoenixcrm/leadview/pkg/analysis"
	"github.com/phoenixcrm/leadview/pkg/model"

	"go.uber.org/zap"
)

// Fetcher retrieves the full lead collection. Implementations may block.
type Fetcher interface {
	FetchLeads(ctx context.Context) ([]model.Lead, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context) ([]model.Lead, error)

// FetchLeads implements Fetcher.
func (f FetcherFunc) FetchLeads(ctx context.Context) ([]model.Lead, error) {
	return f(ctx)
}

// LoadResult is delivered to a Load callback.
type LoadResult struct {
	Leads []model.Lead // filtered view after the update; nil on failure
	Err   error
}

// OK returns true if the load succeeded.
func (r LoadResult) OK() bool {
	return r.Err == nil
}

// Message is the human-readable failure text, or "" on success.
func (r LoadResult) Message() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// LeadsModel owns the lead collection and its derived view.
//
// All methods except Load must be called from the control goroutine. Load
// starts the fetch on its own goroutine and applies the result through the
// Dispatcher, so state only ever changes on the control goroutine.
type LeadsModel struct {
	fetcher    Fetcher
	dispatcher Dispatcher
	logger     *zap.Logger

	raw      []model.Lead
	query    analysis.Query
	filtered []model.Lead
	loaded   bool
}

// Option configures a LeadsModel.
type Option func(*LeadsModel)

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *LeadsModel) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithQuery sets the initial search/stage/sort selection.
func WithQuery(q analysis.Query) Option {
	return func(m *LeadsModel) {
		m.query = q
	}
}

// New creates an empty model. Nothing is fetched until Load is called.
func New(fetcher Fetcher, dispatcher Dispatcher, opts ...Option) *LeadsModel {
	m := &LeadsModel{
		fetcher:    fetcher,
		dispatcher: dispatcher,
		logger:     zap.NewNop(),
		query:      analysis.DefaultQuery(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.recompute()
	return m
}

// Load fetches the collection in the background. On success the raw
// collection is replaced and the view recomputed before onDone runs; on
// failure the previous state is kept. onDone runs exactly once, on the
// control goroutine.
//
// Overlapping loads are not coordinated: each result is applied in the
// order it reaches the control goroutine, so the last one delivered wins.
func (m *LeadsModel) Load(ctx context.Context, onDone func(LoadResult)) {
	fetcher := m.fetcher
	go func() {
		leads, err := safeFetch(ctx, fetcher)
		m.dispatcher.Post(func() {
			if err != nil {
				m.logger.Warn("load leads failed", zap.Error(err))
				if onDone != nil {
					onDone(LoadResult{Err: err})
				}
				return
			}
			m.Replace(leads)
			m.logger.Debug("loaded leads",
				zap.Int("raw", len(m.raw)),
				zap.Int("filtered", len(m.filtered)),
			)
			if onDone != nil {
				onDone(LoadResult{Leads: m.filtered})
			}
		})
	}()
}

var errNoSource = errors.New("no lead source configured")

// safeFetch runs the fetcher, turning a panic into an error so the
// completion is always delivered.
func safeFetch(ctx context.Context, f Fetcher) (leads []model.Lead, err error) {
	defer func() {
		if r := recover(); r != nil {
			leads, err = nil, fmt.Errorf("fetch panic: %v", r)
		}
	}()
	if f == nil {
		return nil, errNoSource
	}
	return f.FetchLeads(ctx)
}

// Replace swaps in a new raw collection and recomputes the view. Load uses
// it on success; the snapshot and file sources use it for preloaded data.
func (m *LeadsModel) Replace(leads []model.Lead) []model.Lead {
	raw := make([]model.Lead, len(leads))
	copy(raw, leads)
	m.raw = raw
	m.loaded = true
	return m.recompute()
}

// SetSearch updates the search text and returns the new view.
func (m *LeadsModel) SetSearch(query string) []model.Lead {
	m.query.Search = query
	return m.recompute()
}

// SetStageFilter updates the stage filter ("all" disables it) and returns
// the new view.
func (m *LeadsModel) SetStageFilter(stage string) []model.Lead {
	m.query.Stage = stage
	return m.recompute()
}

// SetSort updates the sort key and returns the new view. Unknown keys keep
// the filtered order.
func (m *LeadsModel) SetSort(key analysis.SortKey) []model.Lead {
	m.query.SortBy = key
	return m.recompute()
}

// Stats summarizes the unfiltered collection.
func (m *LeadsModel) Stats() analysis.Stats {
	return analysis.ComputeStats(m.raw)
}

// StageGroups buckets the unfiltered collection into pipeline columns.
func (m *LeadsModel) StageGroups() []analysis.StageGroup {
	return analysis.GroupByStage(m.raw)
}

// ValueSummary aggregates the value of the filtered view.
func (m *LeadsModel) ValueSummary() analysis.ValueSummary {
	return analysis.ComputeValueSummary(m.filtered)
}

// Filtered returns the current view. Callers must not modify it.
func (m *LeadsModel) Filtered() []model.Lead {
	return m.filtered
}

// Raw returns a copy of the unfiltered collection.
func (m *LeadsModel) Raw() []model.Lead {
	out := make([]model.Lead, len(m.raw))
	copy(out, m.raw)
	return out
}

// Query returns the current selection.
func (m *LeadsModel) Query() analysis.Query {
	return m.query
}

// HasData returns true once any collection has been applied.
func (m *LeadsModel) HasData() bool {
	return m.loaded
}

func (m *LeadsModel) recompute() []model.Lead {
	m.filtered = analysis.Apply(m.raw, m.query)
	return m.filtered
}
