package main

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// fingerprintLength is the number of hex characters kept from the sha256
// digest. Eight characters is plenty for the tens of events a family
// calendar holds; collisions are accepted as a risk rather than detected.
// Widening or narrowing this requires a matching change in the tag format
// in tag.go.
const fingerprintLength = 8

// Fingerprint returns a short deterministic hash of the event's
// content-relevant fields: title, start, end and the all-day flag. The
// description is deliberately excluded, since that is where the
// ownership tag itself is stored and including it would make every write
// change the fingerprint.
func Fingerprint(e *Event) string {
	content := fmt.Sprintf("%s|%d|%d", e.Title, e.Start.UTC().Unix(), e.End.UTC().Unix())
	if e.AllDay {
		// A timed event at midnight and an all-day event on the same
		// date are different content.
		content += "|allday"
	}
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])[:fingerprintLength]
}

// SyncWindow is the forward-looking time range a run considers,
// [Start, End). It is fixed once per run so every child sees the same
// window.
type SyncWindow struct {
	Start time.Time
	End   time.Time
}

// NewSyncWindow returns the window [now, now+days).
func NewSyncWindow(now time.Time, daysToSync int) SyncWindow {
	return SyncWindow{
		Start: now,
		End:   now.AddDate(0, 0, daysToSync),
	}
}

// Contains reports whether t falls inside the window. The start bound is
// inclusive, the end bound exclusive.
func (w SyncWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}
