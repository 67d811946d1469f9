package vibe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resultWith(score int, top string) *AnalysisResult {
	return &AnalysisResult{
		OverallScore: score,
		Personas: []ScoredPersona{
			{Persona: Persona{ID: top, DisplayName: top}, Score: 90},
			{Persona: Persona{ID: "other", DisplayName: "Other"}, Score: 10},
		},
	}
}

func TestProfileTracker_AverageAndRecent(t *testing.T) {
	tracker := NewProfileTracker(nil)
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	for i, score := range []int{80, 90, 70} {
		_, ok := tracker.Record(resultWith(score, "Gamer"), base.Add(time.Duration(i)*time.Minute))
		require.True(t, ok)
	}

	assert.Equal(t, 80, tracker.AverageScore())
	assert.Equal(t, 3, tracker.TotalAnalyses())

	recent := tracker.Recent(DefaultRecentCount)
	require.Len(t, recent, 3)
	assert.Equal(t, 70, recent[0].Score)
	assert.Equal(t, 90, recent[1].Score)
	assert.Equal(t, 80, recent[2].Score)
}

func TestProfileTracker_RecentCapsAtN(t *testing.T) {
	tracker := NewProfileTracker(nil)
	now := time.Now()
	for i := 0; i < 7; i++ {
		tracker.Record(resultWith(70+i, "Gamer"), now)
	}

	recent := tracker.Recent(5)
	require.Len(t, recent, 5)
	assert.Equal(t, 76, recent[0].Score)
	assert.Equal(t, 72, recent[4].Score)
}

func TestProfileTracker_AverageRounds(t *testing.T) {
	tracker := NewProfileTracker(nil)
	tracker.Record(resultWith(80, "A"), time.Now())
	tracker.Record(resultWith(81, "A"), time.Now())

	assert.Equal(t, 81, tracker.AverageScore())
}

func TestProfileTracker_TopTribeTieGoesToFirstSeen(t *testing.T) {
	tracker := NewProfileTracker(nil)
	tracker.Record(resultWith(80, "Music Head"), time.Now())
	tracker.Record(resultWith(80, "Gamer"), time.Now())

	assert.Equal(t, "Music Head", tracker.TopTribe())

	tracker.Record(resultWith(80, "Gamer"), time.Now())
	assert.Equal(t, "Gamer", tracker.TopTribe())
}

func TestProfileTracker_Empty(t *testing.T) {
	tracker := NewProfileTracker(nil)

	assert.Equal(t, 0, tracker.AverageScore())
	assert.Equal(t, "", tracker.TopTribe())
	assert.Empty(t, tracker.Recent(5))

	_, ok := tracker.Record(&AnalysisResult{OverallScore: 90}, time.Now())
	assert.False(t, ok)
	assert.Equal(t, 0, tracker.TotalAnalyses())
}

func TestProfileTracker_SeededHistory(t *testing.T) {
	history := []AnalysisRecord{
		{Score: 70, TopPersonaName: "Eco Warrior"},
		{Score: 100, TopPersonaName: "Hustle"},
	}
	tracker := NewProfileTracker(history)

	assert.Equal(t, 85, tracker.AverageScore())
	assert.Equal(t, "Eco Warrior", tracker.TopTribe())
	assert.Equal(t, "Hustle", tracker.Summary().Recent[0].TopPersonaName)
}
