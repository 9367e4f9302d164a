package tui

import (
	"fmt"
	"strings"
	"time"
)

// Canonical short status messages used across the app.
const (
	MsgLoadingPosts = "Loading posts…"
	MsgRefreshing   = "Refreshing…"
	MsgPublishing   = "Publishing…"
	MsgSaving       = "Saving…"
	MsgDeleting     = "Deleting…"
	MsgPublished    = "Post published"
	MsgPostUpdated  = "Post updated"
	MsgPostDeleted  = "Post deleted"
	MsgLoadingMore  = "Loading more…"
	MsgEndOfFeed    = "You've reached the end"
)

func MsgNoMatches(term string) string {
	return fmt.Sprintf("No posts matching “%s”", strings.TrimSpace(term))
}

func MsgMatchCount(n int) string {
	if n == 1 {
		return "1 match"
	}
	return fmt.Sprintf("%d matches", n)
}

func MsgPostCount(n int) string {
	if n == 1 {
		return "1 post"
	}
	return fmt.Sprintf("%d posts", n)
}

func MsgReadingTime(minutes int) string {
	return fmt.Sprintf("%d min read", minutes)
}

func MsgOffline(fetchedAt time.Time) string {
	if fetchedAt.IsZero() {
		return "Offline • showing saved posts"
	}
	return fmt.Sprintf("Offline • showing posts saved %s", fetchedAt.Format("Jan 2, 15:04"))
}

func MsgActionFailed(action, reason string) string {
	return fmt.Sprintf("Could not %s: %s", action, reason)
}
