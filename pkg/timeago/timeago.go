// Package timeago renders the human-relative time labels used by job and bid
// listings and the provider dashboard.
package timeago

import (
	"fmt"
	"time"
)

// Label formats the elapsed time between t and now. Buckets use floor
// semantics: <1h "Just now", <24h "{h}h ago", <7d "{d}d ago", else "{w}w ago".
func Label(t, now time.Time) string {
	hours := int(now.Sub(t).Hours())
	if hours < 1 {
		return "Just now"
	}
	if hours < 24 {
		return fmt.Sprintf("%dh ago", hours)
	}

	days := hours / 24
	if days < 7 {
		return fmt.Sprintf("%dd ago", days)
	}

	return fmt.Sprintf("%dw ago", days/7)
}

// LabelMillis is Label for unix-millisecond timestamps, the representation
// the stores persist.
func LabelMillis(created int64, now time.Time) string {
	return Label(time.UnixMilli(created), now)
}
