package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Task field bounds, in characters.
const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 1000
)

// Task is a todo item. It is mutated only through tool execution,
// which re-checks OwnerID on every call.
type Task struct {
	ID          int64     `json:"id"`
	OwnerID     int64     `json:"owner_id"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TaskFilter selects tasks by completion state.
type TaskFilter string

// Task filters accepted by the list tool.
const (
	TaskFilterAll       TaskFilter = "all"
	TaskFilterActive    TaskFilter = "active"
	TaskFilterCompleted TaskFilter = "completed"
)

// ParseTaskFilter parses s, treating the empty string as TaskFilterAll.
func ParseTaskFilter(s string) (TaskFilter, error) {
	switch f := TaskFilter(strings.ToLower(strings.TrimSpace(s))); f {
	case "", TaskFilterAll:
		return TaskFilterAll, nil
	case TaskFilterActive, TaskFilterCompleted:
		return f, nil
	default:
		return "", NewValidationError("status", "must be one of all, active, completed", ErrInvalidTaskFilter)
	}
}

// Matches reports whether t passes the filter.
func (f TaskFilter) Matches(t *Task) bool {
	switch f {
	case TaskFilterActive:
		return !t.Completed
	case TaskFilterCompleted:
		return t.Completed
	default:
		return true
	}
}

// NewTask creates an unsaved, incomplete task.
func NewTask(ownerID int64, title string, description *string) (*Task, error) {
	now := time.Now().UTC()
	task := &Task{
		OwnerID:     ownerID,
		Title:       strings.TrimSpace(title),
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := task.Validate(); err != nil {
		return nil, err
	}
	return task, nil
}

// Validate checks the task fields.
func (t *Task) Validate() error {
	if t.OwnerID <= 0 {
		return NewValidationError("owner_id", "must be positive", ErrInvalidID)
	}
	if t.Title == "" {
		return NewValidationError("title", "is required", ErrEmptyTitle)
	}
	if utf8.RuneCountInString(t.Title) > MaxTitleLength {
		return NewValidationError("title", "is too long", ErrFieldTooLong)
	}
	if t.Description != nil && utf8.RuneCountInString(*t.Description) > MaxDescriptionLength {
		return NewValidationError("description", "is too long", ErrFieldTooLong)
	}
	return nil
}

// TaskPatch lists the fields an update changes. Nil fields are left untouched.
type TaskPatch struct {
	Title       *string
	Description *string
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil
}

// Apply copies the present fields onto t and bumps UpdatedAt.
func (t *Task) Apply(p TaskPatch, now time.Time) {
	if p.Title != nil {
		t.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		d := *p.Description
		t.Description = &d
	}
	t.UpdatedAt = now
}

// MarkComplete sets Completed and bumps UpdatedAt.
func (t *Task) MarkComplete(now time.Time) {
	t.Completed = true
	t.UpdatedAt = now
}

// Reopen clears Completed and bumps UpdatedAt.
func (t *Task) Reopen(now time.Time) {
	t.Completed = false
	t.UpdatedAt = now
}
