package vibe

// Positional flags on recommendation lists.
const (
	TrendingHashtagCount = 8
	TrendingSongCount    = 2
	OptimalTimingCount   = 1
)

// Hashtag is a suggested tag with its approximate post count.
type Hashtag struct {
	Tag      string `json:"tag" yaml:"tag"`
	Count    string `json:"count" yaml:"count"`
	Trending bool   `json:"trending" yaml:"-"`
}

// Song is a suggested audio track.
type Song struct {
	Title        string `json:"title" yaml:"title"`
	Artist       string `json:"artist" yaml:"artist"`
	TrendPercent int    `json:"trend" yaml:"trend"`
	Duration     string `json:"duration" yaml:"duration"`
	Trending     bool   `json:"trending" yaml:"-"`
}

// Timing is a suggested posting slot.
type Timing struct {
	Time       string `json:"time" yaml:"time"`
	Day        string `json:"day" yaml:"day"`
	Engagement string `json:"engagement" yaml:"engagement"`
	Audience   string `json:"audience" yaml:"audience"`
	Optimal    bool   `json:"optimal" yaml:"-"`
}

// Recommendations is the per-persona hashtag, song and timing bundle.
type Recommendations struct {
	Hashtags []Hashtag `json:"hashtags" yaml:"hashtags"`
	Songs    []Song    `json:"songs" yaml:"songs"`
	Timing   []Timing  `json:"timing" yaml:"timing"`
}

// TrendingHashtag is a landing-page trend entry.
type TrendingHashtag struct {
	Tag   string `json:"tag" yaml:"tag"`
	Count string `json:"count" yaml:"count"`
	Trend string `json:"trend" yaml:"trend"`
}

// TrendingSong is a landing-page trending track.
type TrendingSong struct {
	Title    string `json:"title" yaml:"title"`
	Artist   string `json:"artist" yaml:"artist"`
	Trend    string `json:"trend" yaml:"trend"`
	Platform string `json:"platform" yaml:"platform"`
}

// TrendingTiming is the landing-page peak posting window.
type TrendingTiming struct {
	Peak       string `json:"peak" yaml:"peak"`
	BestDay    string `json:"bestDay" yaml:"bestDay"`
	Engagement string `json:"engagement" yaml:"engagement"`
}

// TrendingSnapshot is the static "trending now" data.
type TrendingSnapshot struct {
	Hashtags []TrendingHashtag `json:"hashtags" yaml:"hashtags"`
	Songs    []TrendingSong    `json:"songs" yaml:"songs"`
	Timing   TrendingTiming    `json:"timing" yaml:"timing"`
}
