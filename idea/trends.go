package idea

import (
	"context"
	"fmt"
	"sort"

	"github.com/vartanbeno/go-reddit/v2/reddit"
)

// TrendSource supplies topical hooks to seed idea prompts. Trend lookups
// are best-effort; an error just means the prompt goes out without them.
type TrendSource interface {
	Hooks(ctx context.Context, limit int) ([]string, error)
}

// RedditTrends pulls hot post titles from configured subreddits using the
// read-only Reddit API.
type RedditTrends struct {
	client     *reddit.Client
	subreddits []string
}

// NewRedditTrends creates a RedditTrends source, or an error when the
// read-only client cannot be constructed.
func NewRedditTrends(subreddits []string) (*RedditTrends, error) {
	if len(subreddits) == 0 {
		return nil, fmt.Errorf("no trend subreddits configured")
	}
	client, err := reddit.NewReadonlyClient()
	if err != nil {
		return nil, fmt.Errorf("reddit client: %w", err)
	}
	return &RedditTrends{client: client, subreddits: subreddits}, nil
}

// Hooks returns up to limit hot post titles across the configured
// subreddits, highest-scored first.
func (r *RedditTrends) Hooks(ctx context.Context, limit int) ([]string, error) {
	type scored struct {
		title string
		score int
	}
	var all []scored

	for _, sub := range r.subreddits {
		posts, _, err := r.client.Subreddit.HotPosts(ctx, sub, &reddit.ListOptions{Limit: limit})
		if err != nil {
			// One bad subreddit shouldn't sink the whole lookup.
			continue
		}
		for _, p := range posts {
			if p.Title == "" {
				continue
			}
			all = append(all, scored{title: p.Title, score: p.Score})
		}
	}

	if len(all) == 0 {
		return nil, fmt.Errorf("no trend posts found in %d subreddit(s)", len(r.subreddits))
	}

	sort.Slice(all, func(i, j int) bool { return all[i].score > all[j].score })
	if len(all) > limit {
		all = all[:limit]
	}

	hooks := make([]string, len(all))
	for i, s := range all {
		hooks[i] = s.title
	}
	return hooks, nil
}
