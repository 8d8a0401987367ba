package dashboard

import (
	"testing"
	"time"

	"github.com/couchcryptid/shore-hazard-service/internal/domain"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postIDs(posts []SocialPost) []string {
	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	return ids
}

func TestParsePostFilter(t *testing.T) {
	f, err := ParsePostFilter("", "all", "")
	require.NoError(t, err)
	assert.Equal(t, PostFilter{Range: "7d", Window: 7 * 24 * time.Hour}, f)

	f, err = ParsePostFilter("Reddit", " negative ", "30d")
	require.NoError(t, err)
	assert.Equal(t, PlatformReddit, f.Platform)
	assert.Equal(t, SentimentNegative, f.Sentiment)
	assert.Equal(t, 30*24*time.Hour, f.Window)

	for _, tc := range [][3]string{
		{"myspace", "", ""},
		{"", "angry", ""},
		{"", "", "1y"},
	} {
		_, err := ParsePostFilter(tc[0], tc[1], tc[2])
		require.ErrorIs(t, err, domain.ErrValidationFailed, "%v", tc)
	}
}

func TestSocialFeed_PostFilters(t *testing.T) {
	feed := NewMockSocialFeed(clockwork.NewFakeClockAt(base))
	window := func(r string) time.Duration { return Windows[r] }

	tests := []struct {
		name   string
		filter PostFilter
		want   []string
	}{
		{"last 24h", PostFilter{Window: window("24h")}, []string{"1", "2", "3"}},
		{"last 7 days", PostFilter{Window: window("7d")}, []string{"1", "2", "3", "4", "5"}},
		{"last 90 days", PostFilter{Window: window("90d")}, []string{"1", "2", "3", "4", "5", "6"}},
		{"twitter", PostFilter{Platform: PlatformTwitter, Window: window("7d")}, []string{"1", "5"}},
		{"negative", PostFilter{Sentiment: SentimentNegative, Window: window("7d")}, []string{"1", "3", "4"}},
		{"instagram positive", PostFilter{Platform: PlatformInstagram, Sentiment: SentimentPositive, Window: window("30d")}, []string{"6"}},
		{"reddit today", PostFilter{Platform: PlatformReddit, Window: window("24h")}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, postIDs(feed.Posts(tt.filter)))
		})
	}
}

func TestSocialFeed_PostTimesFollowClock(t *testing.T) {
	clock := clockwork.NewFakeClockAt(base)
	feed := NewMockSocialFeed(clock)

	first := feed.Posts(PostFilter{})[0]
	assert.Equal(t, base.Add(-2*time.Hour), first.PostedAt)

	clock.Advance(time.Hour)
	assert.Equal(t, base.Add(-time.Hour), feed.Posts(PostFilter{})[0].PostedAt)
}

func TestSocialFeed_Trends(t *testing.T) {
	feed := NewMockSocialFeed(nil)
	trends := feed.Trends()

	require.Len(t, trends, 4)
	for i := 1; i < len(trends); i++ {
		assert.GreaterOrEqual(t, trends[i-1].Mentions, trends[i].Mentions)
	}
	assert.Equal(t, "oil spill", trends[0].Keyword)

	trends[0].Locations[0] = "changed"
	assert.Equal(t, "Chennai", feed.Trends()[0].Locations[0])
}

func TestSocialFeed_Insights(t *testing.T) {
	feed := NewMockSocialFeed(clockwork.NewFakeClockAt(base))
	f, err := ParsePostFilter("twitter", "", "7d")
	require.NoError(t, err)

	in := feed.Insights(f)

	assert.Equal(t, []string{"1", "5"}, postIDs(in.Posts))
	assert.Equal(t, map[Sentiment]int{SentimentPositive: 0, SentimentNeutral: 1, SentimentNegative: 1}, in.Sentiment)
	assert.Equal(t, 15200, in.Overview.TotalMentions)
	assert.Equal(t, domain.SeverityMedium, in.Overview.AlertLevel)
	assert.Len(t, in.Trends, 4)

	in.Overview.MentionsByPlatform[PlatformTwitter] = 0
	assert.Equal(t, 7200, feed.Overview().MentionsByPlatform[PlatformTwitter])
}
