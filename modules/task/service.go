package task

import (
	"context"
	"fmt"
	"time"

	domain "github.com/emersxw/taskscape/domain/task"
	"github.com/go-monolith/mono"
)

// createTask handles the create-task service request.
func (m *TaskModule) createTask(_ context.Context, req CreateTaskRequest, _ *mono.Msg) (CreateTaskResponse, error) {
	if !m.repo.Loaded() {
		return CreateTaskResponse{}, ErrNotLoaded
	}

	t, ok := m.repo.Create(req.Text)
	if !ok {
		return CreateTaskResponse{Created: false}, nil
	}
	return CreateTaskResponse{Created: true, Task: &t}, nil
}

// toggleTask handles the toggle-task service request.
func (m *TaskModule) toggleTask(_ context.Context, req ToggleTaskRequest, _ *mono.Msg) (ToggleTaskResponse, error) {
	if !m.repo.Loaded() {
		return ToggleTaskResponse{}, ErrNotLoaded
	}

	t, ok := m.repo.Toggle(req.TaskID)
	if !ok {
		return ToggleTaskResponse{Toggled: false}, nil
	}
	return ToggleTaskResponse{Toggled: true, Task: &t}, nil
}

// updateTask handles the update-task service request.
func (m *TaskModule) updateTask(_ context.Context, req UpdateTaskRequest, _ *mono.Msg) (UpdateTaskResponse, error) {
	if !m.repo.Loaded() {
		return UpdateTaskResponse{}, ErrNotLoaded
	}
	return UpdateTaskResponse{Updated: m.repo.Update(req.Task)}, nil
}

// deleteTask handles the delete-task service request.
func (m *TaskModule) deleteTask(_ context.Context, req DeleteTaskRequest, _ *mono.Msg) (DeleteTaskResponse, error) {
	if !m.repo.Loaded() {
		return DeleteTaskResponse{}, ErrNotLoaded
	}
	return DeleteTaskResponse{Deleted: m.repo.Delete(req.TaskID)}, nil
}

// getTask handles the get-task service request (task details view).
func (m *TaskModule) getTask(_ context.Context, req GetTaskRequest, _ *mono.Msg) (TaskDetailsResponse, error) {
	loc, err := m.location(req.Timezone)
	if err != nil {
		return TaskDetailsResponse{}, err
	}

	t, ok := m.repo.Get(req.TaskID)
	if !ok {
		return TaskDetailsResponse{Found: false}, nil
	}

	resp := TaskDetailsResponse{
		Found:        true,
		Task:         &t,
		Status:       domain.StatusLabel(t),
		CreatedDate:  domain.DateKey(t.CreatedAt, loc),
		DurationText: domain.FormatDuration(t.Duration),
	}
	if t.CompletedAt != nil {
		resp.CompletedDate = domain.DateKey(*t.CompletedAt, loc)
	}
	return resp, nil
}

// listTasks handles the list-tasks service request.
func (m *TaskModule) listTasks(_ context.Context, _ ListTasksRequest, _ *mono.Msg) (ListTasksResponse, error) {
	tasks := m.repo.All()
	return ListTasksResponse{Tasks: tasks, Total: len(tasks)}, nil
}

// visibleTasks handles the visible-tasks service request.
func (m *TaskModule) visibleTasks(_ context.Context, req VisibleTasksRequest, _ *mono.Msg) (ListTasksResponse, error) {
	tasks := domain.VisibleList(m.repo.All(), req.HideCompleted)
	return ListTasksResponse{Tasks: tasks, Total: len(tasks)}, nil
}

// completionsByDate handles the completions-by-date service request.
func (m *TaskModule) completionsByDate(_ context.Context, req CompletionsByDateRequest, _ *mono.Msg) (CompletionsByDateResponse, error) {
	loc, err := m.location(req.Timezone)
	if err != nil {
		return CompletionsByDateResponse{}, err
	}

	byDate := m.calendarIn(loc)
	return CompletionsByDateResponse{
		Dates:       byDate,
		MarkedDates: byDate.MarkedDates(),
		Today:       domain.DateKey(time.Now().UnixMilli(), loc),
	}, nil
}

// tasksForDate handles the tasks-for-date service request.
func (m *TaskModule) tasksForDate(_ context.Context, req TasksForDateRequest, _ *mono.Msg) (TasksForDateResponse, error) {
	loc, err := m.location(req.Timezone)
	if err != nil {
		return TasksForDateResponse{}, err
	}

	date := req.Date
	if date == "" {
		date = domain.DateKey(time.Now().UnixMilli(), loc)
	}

	tasks := m.calendarIn(loc).TasksForDate(date)
	return TasksForDateResponse{Date: date, Tasks: tasks, Total: len(tasks)}, nil
}

// calendarIn returns the calendar of the current collection in loc. The collection
// is only copied when the cache has nothing for its version.
func (m *TaskModule) calendarIn(loc *time.Location) domain.Calendar {
	if byDate, ok := m.calendar.Lookup(m.repo.Version(), loc); ok {
		return byDate
	}
	return m.calendar.Get(m.repo.Snapshot(), loc)
}

// location resolves an IANA zone name, falling back to the module default.
func (m *TaskModule) location(name string) (*time.Location, error) {
	if name == "" {
		return m.loc, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, name)
	}
	return loc, nil
}
