package store

import (
	"context"
	"database/sql"

	"github.com/phrazzld/tasktalk-api/internal/domain"
)

// TaskStore defines the interface for task data persistence.
// Implementations enforce no ownership rules; callers compare OwnerID.
type TaskStore interface {
	// Create inserts the task and sets its ID.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by its ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id int64) (*domain.Task, error)

	// ListByOwner returns the owner's tasks matching filter, oldest first.
	ListByOwner(ctx context.Context, ownerID int64, filter domain.TaskFilter) ([]*domain.Task, error)

	// Update writes title, description, completed and updated_at.
	// Returns ErrTaskNotFound if the task does not exist.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes a task.
	// Returns ErrTaskNotFound if the task does not exist.
	Delete(ctx context.Context, id int64) error

	// WithTx returns a TaskStore bound to tx.
	WithTx(tx *sql.Tx) TaskStore
}
