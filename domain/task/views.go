package task

import (
	"cmp"
	"fmt"
	"slices"
	"time"
)

// DateLayout is the calendar day key format.
const DateLayout = "2006-01-02"

// StatusCompleted and StatusInProgress are the labels shown in the task details view.
const (
	StatusCompleted  = "Completed"
	StatusInProgress = "In Progress"
)

// VisibleList returns the tasks to show in the main list, newest first.
// Completed tasks are dropped when hideCompleted is set. Equal creation times keep
// their input order.
func VisibleList(tasks []Task, hideCompleted bool) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if hideCompleted && t.Completed {
			continue
		}
		out = append(out, t.Clone())
	}
	slices.SortStableFunc(out, func(a, b Task) int {
		return cmp.Compare(b.CreatedAt, a.CreatedAt)
	})
	return out
}

// DateKey returns the YYYY-MM-DD day of a millisecond timestamp in loc.
// A nil loc means time.Local.
func DateKey(ms int64, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return time.UnixMilli(ms).In(loc).Format(DateLayout)
}

// Calendar maps a YYYY-MM-DD day to the tasks completed on it, most recent first.
type Calendar map[string][]Task

// CompletionsByDate groups completed tasks by the local day of their completion.
func CompletionsByDate(tasks []Task, loc *time.Location) Calendar {
	byDate := make(Calendar)
	for _, t := range tasks {
		if t.CompletedAt == nil {
			continue
		}
		day := DateKey(*t.CompletedAt, loc)
		byDate[day] = append(byDate[day], t.Clone())
	}
	for _, day := range byDate {
		slices.SortStableFunc(day, func(a, b Task) int {
			return cmp.Compare(*b.CompletedAt, *a.CompletedAt)
		})
	}
	return byDate
}

// TasksForDate returns the tasks completed on date, or an empty slice.
func (c Calendar) TasksForDate(date string) []Task {
	if day, ok := c[date]; ok {
		return day
	}
	return []Task{}
}

// MarkedDates lists, in ascending order, every day with at least one completion.
func (c Calendar) MarkedDates() []string {
	days := make([]string, 0, len(c))
	for day := range c {
		days = append(days, day)
	}
	slices.Sort(days)
	return days
}

// FormatDuration renders a millisecond duration as HH:MM:SS. Hours are not wrapped
// at 24. A missing, zero or negative duration renders as --:--:--.
func FormatDuration(ms *int64) string {
	if ms == nil || *ms <= 0 {
		return "--:--:--"
	}
	total := *ms / 1000
	hours := total / 3600
	minutes := (total / 60) % 60
	seconds := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

// StatusLabel returns the human label for the task's state.
func StatusLabel(t Task) string {
	if t.Completed {
		return StatusCompleted
	}
	return StatusInProgress
}
