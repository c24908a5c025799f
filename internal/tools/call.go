package tools

import "github.com/phrazzld/tasktalk-api/internal/domain"

// Name is a canonical tool name.
type Name string

// Canonical tool names.
const (
	Create   Name = "create"
	List     Name = "list"
	Update   Name = "update"
	Complete Name = "complete"
	Delete   Name = "delete"

	// Reopen is only reachable through the task REST surface and is never
	// advertised to providers.
	Reopen Name = "reopen"
)

// Wire names advertised to understanding providers and MCP clients.
const (
	WireCreate   = "add_task"
	WireList     = "list_tasks"
	WireUpdate   = "update_task"
	WireComplete = "complete_task"
	WireDelete   = "delete_task"
)

var wireNames = map[Name]string{
	Create:   WireCreate,
	List:     WireList,
	Update:   WireUpdate,
	Complete: WireComplete,
	Delete:   WireDelete,
}

// Wire returns the provider-facing name of n.
func (n Name) Wire() string {
	return wireNames[n]
}

// Lookup resolves a wire or canonical name.
func Lookup(name string) (Name, bool) {
	for canonical, wire := range wireNames {
		if name == wire || name == string(canonical) {
			return canonical, true
		}
	}
	return "", false
}

// Call is one typed tool invocation. The concrete types below are the only
// implementations.
type Call interface {
	ToolName() Name
	isCall()
}

// CreateTask adds a task.
type CreateTask struct {
	Title       string
	Description *string
}

// ListTasks lists the owner's tasks.
type ListTasks struct {
	Status domain.TaskFilter
}

// UpdateTask changes the fields that are non-nil.
type UpdateTask struct {
	TaskID      int64
	Title       *string
	Description *string
}

// CompleteTask marks a task done.
type CompleteTask struct {
	TaskID int64
}

// ReopenTask marks a completed task as not done.
type ReopenTask struct {
	TaskID int64
}

// DeleteTask removes a task.
type DeleteTask struct {
	TaskID int64
}

func (CreateTask) ToolName() Name   { return Create }
func (ListTasks) ToolName() Name    { return List }
func (UpdateTask) ToolName() Name   { return Update }
func (CompleteTask) ToolName() Name { return Complete }
func (DeleteTask) ToolName() Name   { return Delete }
func (ReopenTask) ToolName() Name   { return Reopen }

func (CreateTask) isCall()   {}
func (ListTasks) isCall()    {}
func (UpdateTask) isCall()   {}
func (CompleteTask) isCall() {}
func (DeleteTask) isCall()   {}
func (ReopenTask) isCall()   {}
