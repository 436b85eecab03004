package task

import (
	"strconv"
	"sync"
	"time"

	domain "github.com/emersxw/taskscape/domain/task"
	"golang.org/x/sync/singleflight"
)

// calendarCache memoizes CompletionsByDate per collection version and location.
// Only entries for the newest version seen are retained. Returned calendars are shared
// and must not be modified.
type calendarCache struct {
	sfGroup singleflight.Group // collapses concurrent misses for the same key
	mu      sync.Mutex
	version uint64
	entries map[string]domain.Calendar
}

func newCalendarCache() *calendarCache {
	return &calendarCache{
		entries: make(map[string]domain.Calendar),
	}
}

func calendarKey(version uint64, loc *time.Location) string {
	return strconv.FormatUint(version, 10) + "|" + loc.String()
}

// Lookup returns the cached calendar for version in loc, if any.
func (c *calendarCache) Lookup(version uint64, loc *time.Location) (domain.Calendar, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	byDate, ok := c.entries[calendarKey(version, loc)]
	return byDate, ok
}

// Get returns the calendar of snap in loc, computing it at most once per version.
func (c *calendarCache) Get(snap Snapshot, loc *time.Location) domain.Calendar {
	if byDate, ok := c.Lookup(snap.Version, loc); ok {
		return byDate
	}

	key := calendarKey(snap.Version, loc)
	val, _, _ := c.sfGroup.Do(key, func() (any, error) {
		byDate := domain.CompletionsByDate(snap.Tasks, loc)

		c.mu.Lock()
		defer c.mu.Unlock()
		switch {
		case snap.Version > c.version:
			c.version = snap.Version
			c.entries = map[string]domain.Calendar{key: byDate}
		case snap.Version == c.version:
			c.entries[key] = byDate
		}
		return byDate, nil
	})
	return val.(domain.Calendar)
}

// Len returns the number of cached calendars.
func (c *calendarCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
