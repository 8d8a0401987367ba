package dashboard

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/couchcryptid/shore-hazard-service/internal/domain"
	"github.com/jonboulle/clockwork"
)

// Platform is a social network watched for hazard chatter.
type Platform string

const (
	PlatformTwitter   Platform = "twitter"
	PlatformFacebook  Platform = "facebook"
	PlatformInstagram Platform = "instagram"
	PlatformReddit    Platform = "reddit"
)

var Platforms = []Platform{PlatformTwitter, PlatformFacebook, PlatformInstagram, PlatformReddit}

// Sentiment is the tone label attached to a post.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

var Sentiments = []Sentiment{SentimentPositive, SentimentNeutral, SentimentNegative}

// Windows are the look-back ranges a feed can be filtered to.
var Windows = map[string]time.Duration{
	"24h": 24 * time.Hour,
	"7d":  7 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
	"90d": 90 * 24 * time.Hour,
}

// DefaultWindow is used when no range is requested.
const DefaultWindow = "7d"

type Engagement struct {
	Likes    int `json:"likes"`
	Shares   int `json:"shares"`
	Comments int `json:"comments"`
}

// SocialPost is one post from the monitoring feed.
type SocialPost struct {
	ID         string     `json:"id"`
	Platform   Platform   `json:"platform"`
	Author     string     `json:"author"`
	Content    string     `json:"content"`
	PostedAt   time.Time  `json:"posted_at"`
	Engagement Engagement `json:"engagement"`
	Sentiment  Sentiment  `json:"sentiment"`
	Location   string     `json:"location,omitempty"`
	Hashtags   []string   `json:"hashtags"`
	Relevance  float64    `json:"relevance"`
}

// Trend is a keyword gaining or losing mentions.
type Trend struct {
	Keyword   string   `json:"keyword"`
	Mentions  int      `json:"mentions"`
	Sentiment float64  `json:"sentiment"` // -1 to 1
	Change    int      `json:"change"`
	Locations []string `json:"locations"`
}

// Score pairs a label with a sentiment score between -1 and 1.
type Score struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

type LocationMentions struct {
	Location string `json:"location"`
	Mentions int    `json:"mentions"`
}

// SocialOverview holds the headline figures for the monitored period.
type SocialOverview struct {
	TotalMentions      int                  `json:"total_mentions"`
	MentionsChangePct  int                  `json:"mentions_change_pct"`
	SentimentScore     float64              `json:"sentiment_score"`
	SentimentChangePct int                  `json:"sentiment_change_pct"`
	TrendingKeywords   int                  `json:"trending_keywords"`
	AlertLevel         domain.Severity      `json:"alert_level"`
	MentionsByPlatform map[Platform]int     `json:"mentions_by_platform"`
	Engagement         Engagement           `json:"engagement"`
	Views              int                  `json:"views"`
	SentimentShare     map[Sentiment]int    `json:"sentiment_share_pct"`
	PlatformSentiment  map[Platform]float64 `json:"platform_sentiment"`
	SentimentHistory   []Score              `json:"sentiment_history"`
	TopLocations       []LocationMentions   `json:"top_locations"`
	RegionalSentiment  []Score              `json:"regional_sentiment"`
}

// PostFilter narrows the post list. Zero fields match everything.
type PostFilter struct {
	Platform  Platform      `json:"platform,omitempty"`
	Sentiment Sentiment     `json:"sentiment,omitempty"`
	Window    time.Duration `json:"-"`
	Range     string        `json:"range"`
}

// ParsePostFilter reads filter values as sent by the analytics screen. Empty
// values and "all" match everything; an empty window means DefaultWindow.
func ParsePostFilter(platform, sentiment, window string) (PostFilter, error) {
	var f PostFilter
	if p := strings.ToLower(strings.TrimSpace(platform)); p != "" && p != "all" {
		if !slices.Contains(Platforms, Platform(p)) {
			return PostFilter{}, fmt.Errorf("%w: unknown platform %q", domain.ErrValidationFailed, platform)
		}
		f.Platform = Platform(p)
	}
	if s := strings.ToLower(strings.TrimSpace(sentiment)); s != "" && s != "all" {
		if !slices.Contains(Sentiments, Sentiment(s)) {
			return PostFilter{}, fmt.Errorf("%w: unknown sentiment %q", domain.ErrValidationFailed, sentiment)
		}
		f.Sentiment = Sentiment(s)
	}
	f.Range = strings.TrimSpace(window)
	if f.Range == "" {
		f.Range = DefaultWindow
	}
	d, ok := Windows[f.Range]
	if !ok {
		return PostFilter{}, fmt.Errorf("%w: unknown range %q", domain.ErrValidationFailed, window)
	}
	f.Window = d
	return f, nil
}

func (f PostFilter) match(p SocialPost, now time.Time) bool {
	if f.Platform != "" && p.Platform != f.Platform {
		return false
	}
	if f.Sentiment != "" && p.Sentiment != f.Sentiment {
		return false
	}
	return f.Window <= 0 || !p.PostedAt.Before(now.Add(-f.Window))
}

// SocialInsights is the social section of the analytics view.
type SocialInsights struct {
	Filter    PostFilter        `json:"filter"`
	Overview  SocialOverview    `json:"overview"`
	Trends    []Trend           `json:"trends"`
	Posts     []SocialPost      `json:"posts"`
	Sentiment map[Sentiment]int `json:"sentiment"`
}

// SocialFeed serves a fixed sample of social media monitoring data. Post
// times are relative to the clock so the sample always looks current.
type SocialFeed struct {
	clock    clockwork.Clock
	posts    []samplePost
	trends   []Trend
	overview SocialOverview
}

type samplePost struct {
	age  time.Duration
	post SocialPost
}

// NewMockSocialFeed returns the built-in sample feed. A nil clock uses the
// process clock.
func NewMockSocialFeed(clock clockwork.Clock) *SocialFeed {
	if clock == nil {
		clock = domain.Clock()
	}
	return &SocialFeed{
		clock:    clock,
		posts:    samplePosts(),
		trends:   sampleTrends(),
		overview: sampleOverview(),
	}
}

// Posts returns matching posts, newest first.
func (f *SocialFeed) Posts(filter PostFilter) []SocialPost {
	now := f.clock.Now()
	out := []SocialPost{}
	for _, s := range f.posts {
		p := s.post
		p.PostedAt = now.Add(-s.age).UTC()
		p.Hashtags = slices.Clone(p.Hashtags)
		if filter.match(p, now) {
			out = append(out, p)
		}
	}
	slices.SortStableFunc(out, func(a, b SocialPost) int { return b.PostedAt.Compare(a.PostedAt) })
	return out
}

// Trends returns trending keywords by mentions, highest first.
func (f *SocialFeed) Trends() []Trend {
	out := make([]Trend, len(f.trends))
	for i, t := range f.trends {
		t.Locations = slices.Clone(t.Locations)
		out[i] = t
	}
	slices.SortStableFunc(out, func(a, b Trend) int { return b.Mentions - a.Mentions })
	return out
}

func (f *SocialFeed) Overview() SocialOverview {
	o := f.overview
	o.MentionsByPlatform = maps.Clone(o.MentionsByPlatform)
	o.SentimentShare = maps.Clone(o.SentimentShare)
	o.PlatformSentiment = maps.Clone(o.PlatformSentiment)
	o.SentimentHistory = slices.Clone(o.SentimentHistory)
	o.TopLocations = slices.Clone(o.TopLocations)
	o.RegionalSentiment = slices.Clone(o.RegionalSentiment)
	return o
}

// Insights assembles the social section for filter, counting sentiment over
// the matching posts.
func (f *SocialFeed) Insights(filter PostFilter) SocialInsights {
	posts := f.Posts(filter)
	counts := make(map[Sentiment]int, len(Sentiments))
	for _, s := range Sentiments {
		counts[s] = 0
	}
	for _, p := range posts {
		counts[p.Sentiment]++
	}
	return SocialInsights{
		Filter:    filter,
		Overview:  f.Overview(),
		Trends:    f.Trends(),
		Posts:     posts,
		Sentiment: counts,
	}
}

func samplePosts() []samplePost {
	return []samplePost{
		{2 * time.Hour, SocialPost{
			ID:         "1",
			Platform:   PlatformTwitter,
			Author:     "@EcoWarrior2024",
			Content:    "Massive oil spill spotted near Marina Beach! This is devastating for marine life. #OceanPollution #SaveOurSeas",
			Engagement: Engagement{Likes: 245, Shares: 89, Comments: 34},
			Sentiment:  SentimentNegative,
			Location:   "Chennai, India",
			Hashtags:   []string{"OceanPollution", "SaveOurSeas"},
			Relevance:  0.95,
		}},
		{4 * time.Hour, SocialPost{
			ID:         "2",
			Platform:   PlatformFacebook,
			Author:     "Kerala Ocean Watch",
			Content:    "Great to see the cleanup efforts at Kovalam Beach today. Community coming together!",
			Engagement: Engagement{Likes: 156, Shares: 23, Comments: 18},
			Sentiment:  SentimentPositive,
			Location:   "Kerala, India",
			Hashtags:   []string{"CleanupEfforts", "CommunityAction"},
			Relevance:  0.87,
		}},
		{6 * time.Hour, SocialPost{
			ID:         "3",
			Platform:   PlatformInstagram,
			Author:     "@beachphotographer",
			Content:    "Plastic debris everywhere at the beach today. When will this stop? #PlasticPollution",
			Engagement: Engagement{Likes: 89, Shares: 12, Comments: 7},
			Sentiment:  SentimentNegative,
			Location:   "Mumbai, India",
			Hashtags:   []string{"PlasticPollution"},
			Relevance:  0.78,
		}},
		{30 * time.Hour, SocialPost{
			ID:         "4",
			Platform:   PlatformReddit,
			Author:     "u/goa_local",
			Content:    "Tar balls washing up on Calangute again. Anyone know if the beach is safe for kids this weekend?",
			Engagement: Engagement{Likes: 132, Shares: 4, Comments: 57},
			Sentiment:  SentimentNegative,
			Location:   "Goa, India",
			Hashtags:   []string{"TarBalls"},
			Relevance:  0.81,
		}},
		{3 * 24 * time.Hour, SocialPost{
			ID:         "5",
			Platform:   PlatformTwitter,
			Author:     "@CoastalBulletin",
			Content:    "High swell advisory for the Odisha coast through Thursday. Fishing boats advised to stay in harbour. #SwellAlert",
			Engagement: Engagement{Likes: 410, Shares: 198, Comments: 22},
			Sentiment:  SentimentNeutral,
			Location:   "Puri, India",
			Hashtags:   []string{"SwellAlert"},
			Relevance:  0.91,
		}},
		{20 * 24 * time.Hour, SocialPost{
			ID:         "6",
			Platform:   PlatformInstagram,
			Author:     "@andaman_reefs",
			Content:    "Coral recovery at Havelock looking strong after last year's bleaching. #MarineLife",
			Engagement: Engagement{Likes: 512, Shares: 41, Comments: 29},
			Sentiment:  SentimentPositive,
			Location:   "Andaman Islands, India",
			Hashtags:   []string{"MarineLife"},
			Relevance:  0.64,
		}},
	}
}

func sampleTrends() []Trend {
	return []Trend{
		{Keyword: "oil spill", Mentions: 1247, Sentiment: -0.73, Change: 156, Locations: []string{"Chennai", "Mumbai", "Kochi"}},
		{Keyword: "plastic pollution", Mentions: 892, Sentiment: -0.65, Change: 89, Locations: []string{"Mumbai", "Goa", "Visakhapatnam"}},
		{Keyword: "beach cleanup", Mentions: 634, Sentiment: 0.82, Change: 45, Locations: []string{"Kerala", "Tamil Nadu", "Karnataka"}},
		{Keyword: "marine life", Mentions: 456, Sentiment: -0.34, Change: -23, Locations: []string{"Andaman", "Lakshadweep", "Gujarat"}},
	}
}

func sampleOverview() SocialOverview {
	return SocialOverview{
		TotalMentions:      15200,
		MentionsChangePct:  12,
		SentimentScore:     -0.34,
		SentimentChangePct: -8,
		TrendingKeywords:   23,
		AlertLevel:         domain.SeverityMedium,
		MentionsByPlatform: map[Platform]int{
			PlatformTwitter:   7200,
			PlatformFacebook:  4800,
			PlatformInstagram: 2100,
			PlatformReddit:    1100,
		},
		Engagement:     Engagement{Likes: 89200, Shares: 23400, Comments: 12700},
		Views:          456000,
		SentimentShare: map[Sentiment]int{SentimentPositive: 23, SentimentNeutral: 45, SentimentNegative: 32},
		PlatformSentiment: map[Platform]float64{
			PlatformTwitter:   -0.45,
			PlatformFacebook:  -0.12,
			PlatformInstagram: 0.23,
			PlatformReddit:    -0.67,
		},
		SentimentHistory: []Score{
			{Label: "today", Score: -0.34},
			{Label: "yesterday", Score: -0.28},
			{Label: "3 days ago", Score: -0.15},
			{Label: "1 week ago", Score: -0.08},
		},
		TopLocations: []LocationMentions{
			{Location: "Chennai, Tamil Nadu", Mentions: 2100},
			{Location: "Mumbai, Maharashtra", Mentions: 1800},
			{Location: "Kochi, Kerala", Mentions: 1200},
			{Location: "Visakhapatnam, AP", Mentions: 900},
		},
		RegionalSentiment: []Score{
			{Label: "West Coast", Score: -0.45},
			{Label: "East Coast", Score: -0.38},
			{Label: "Southern Coast", Score: -0.12},
			{Label: "Island Territories", Score: 0.23},
		},
	}
}
