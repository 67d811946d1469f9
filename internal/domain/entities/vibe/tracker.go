package vibe

import (
	"math"
	"sync"
	"time"
)

// DefaultRecentCount is how many history entries the profile view shows.
const DefaultRecentCount = 5

// ProfileTracker accumulates one visitor's analyses. The log is append-only
// and unbounded; aggregates are recomputed on every Record.
type ProfileTracker struct {
	mu           sync.RWMutex
	records      []AnalysisRecord
	averageScore int
	topTribe     string
}

// NewProfileTracker returns a tracker seeded with previously persisted records,
// oldest first.
func NewProfileTracker(history []AnalysisRecord) *ProfileTracker {
	t := &ProfileTracker{records: append([]AnalysisRecord(nil), history...)}
	t.recompute()
	return t
}

// Record appends the result's overall score and top persona, stamped at now,
// and returns the appended record.
func (t *ProfileTracker) Record(result *AnalysisResult, now time.Time) (AnalysisRecord, bool) {
	top, ok := result.TopPersona()
	if !ok {
		return AnalysisRecord{}, false
	}

	rec := AnalysisRecord{
		Score:          result.OverallScore,
		TopPersonaName: top.DisplayName,
		Timestamp:      now,
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.records = append(t.records, rec)
	t.recompute()
	return rec, true
}

// recompute must be called with the write lock held.
func (t *ProfileTracker) recompute() {
	if len(t.records) == 0 {
		t.averageScore = 0
		t.topTribe = ""
		return
	}

	total := 0
	counts := make(map[string]int)
	var order []string
	for _, rec := range t.records {
		total += rec.Score
		if _, seen := counts[rec.TopPersonaName]; !seen {
			order = append(order, rec.TopPersonaName)
		}
		counts[rec.TopPersonaName]++
	}
	t.averageScore = int(math.Round(float64(total) / float64(len(t.records))))

	best := order[0]
	for _, name := range order[1:] {
		if counts[name] > counts[best] {
			best = name
		}
	}
	t.topTribe = best
}

// TotalAnalyses returns the number of recorded analyses.
func (t *ProfileTracker) TotalAnalyses() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.records)
}

// AverageScore returns the rounded mean overall score, or 0 with no history.
func (t *ProfileTracker) AverageScore() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.averageScore
}

// TopTribe returns the most frequent top persona name, or "" with no history.
func (t *ProfileTracker) TopTribe() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.topTribe
}

// Recent returns up to n records, most recent first.
func (t *ProfileTracker) Recent(n int) []AnalysisRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if n <= 0 {
		return []AnalysisRecord{}
	}
	if n > len(t.records) {
		n = len(t.records)
	}
	out := make([]AnalysisRecord, 0, n)
	for i := len(t.records) - 1; i >= len(t.records)-n; i-- {
		out = append(out, t.records[i])
	}
	return out
}

// ProfileSummary is the serialisable view of a tracker.
type ProfileSummary struct {
	TotalAnalyses      int              `json:"totalAnalyses"`
	AverageScore       int              `json:"averageScore"`
	TopTribe           string           `json:"topTribe"`
	Recent             []AnalysisRecord `json:"recent"`
	InstagramConnected bool             `json:"isInstagramConnected"`
}

// Summary snapshots the tracker for rendering.
func (t *ProfileTracker) Summary() ProfileSummary {
	return ProfileSummary{
		TotalAnalyses: t.TotalAnalyses(),
		AverageScore:  t.AverageScore(),
		TopTribe:      t.TopTribe(),
		Recent:        t.Recent(DefaultRecentCount),
	}
}
