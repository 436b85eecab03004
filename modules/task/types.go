package task

import (
	domain "github.com/emersxw/taskscape/domain/task"
)

// CreateTaskRequest is the request for creating a task.
type CreateTaskRequest struct {
	Text string `json:"text"`
}

// CreateTaskResponse is the response for creating a task.
// Created is false when the text was blank.
type CreateTaskResponse struct {
	Created bool         `json:"created"`
	Task    *domain.Task `json:"task,omitempty"`
}

// ToggleTaskRequest is the request for toggling a task's completion.
type ToggleTaskRequest struct {
	TaskID string `json:"task_id"`
}

// ToggleTaskResponse is the response for toggling a task.
type ToggleTaskResponse struct {
	Toggled bool         `json:"toggled"`
	Task    *domain.Task `json:"task,omitempty"`
}

// UpdateTaskRequest carries an edited copy of a task to store back.
type UpdateTaskRequest struct {
	Task domain.Task `json:"task"`
}

// UpdateTaskResponse is the response for updating a task.
type UpdateTaskResponse struct {
	Updated bool `json:"updated"`
}

// DeleteTaskRequest is the request for deleting a task.
type DeleteTaskRequest struct {
	TaskID string `json:"task_id"`
}

// DeleteTaskResponse is the response for deleting a task.
type DeleteTaskResponse struct {
	Deleted bool `json:"deleted"`
}

// GetTaskRequest is the request for the task details view.
type GetTaskRequest struct {
	TaskID   string `json:"task_id"`
	Timezone string `json:"timezone,omitempty"`
}

// TaskDetailsResponse is the task details view.
type TaskDetailsResponse struct {
	Found         bool         `json:"found"`
	Task          *domain.Task `json:"task,omitempty"`
	Status        string       `json:"status,omitempty"`
	CreatedDate   string       `json:"created_date,omitempty"`
	CompletedDate string       `json:"completed_date,omitempty"`
	DurationText  string       `json:"duration_text,omitempty"`
}

// ListTasksRequest is the request for the raw collection.
type ListTasksRequest struct{}

// VisibleTasksRequest is the request for the main list view.
type VisibleTasksRequest struct {
	HideCompleted bool `json:"hide_completed"`
}

// ListTasksResponse is the response for list-tasks and visible-tasks.
type ListTasksResponse struct {
	Tasks []domain.Task `json:"tasks"`
	Total int           `json:"total"`
}

// CompletionsByDateRequest is the request for the calendar view.
type CompletionsByDateRequest struct {
	Timezone string `json:"timezone,omitempty"`
}

// CompletionsByDateResponse is the calendar view: completions grouped by day,
// the days to mark and today's key for the default selection.
type CompletionsByDateResponse struct {
	Dates       map[string][]domain.Task `json:"dates"`
	MarkedDates []string                 `json:"marked_dates"`
	Today       string                   `json:"today"`
}

// TasksForDateRequest is the request for one calendar day. An empty date means today.
type TasksForDateRequest struct {
	Date     string `json:"date,omitempty"`
	Timezone string `json:"timezone,omitempty"`
}

// TasksForDateResponse lists the tasks completed on Date.
type TasksForDateResponse struct {
	Date  string        `json:"date"`
	Tasks []domain.Task `json:"tasks"`
	Total int           `json:"total"`
}
