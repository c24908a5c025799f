package tools

import (
	"encoding/json"

	"github.com/phrazzld/tasktalk-api/internal/understanding"
)

type spec struct {
	name        Name
	description string
	schema      string
}

// catalog is the wire contract with the understanding service. Field names
// and required sets must stay stable.
var catalog = []spec{
	{
		name:        Create,
		description: "Create a new task with a title and optional description",
		schema: `{
  "type": "object",
  "properties": {
    "title": {"type": "string", "maxLength": 200, "description": "Task title (required, e.g., 'Buy groceries')"},
    "description": {"type": "string", "maxLength": 1000, "description": "Optional task description with more details"}
  },
  "required": ["title"]
}`,
	},
	{
		name:        List,
		description: "List all tasks or filter by status (active/completed/all)",
		schema: `{
  "type": "object",
  "properties": {
    "status": {
      "type": "string",
      "enum": ["all", "active", "completed"],
      "description": "Filter tasks by status: 'all', 'active' (not completed), or 'completed'. Default is 'all'."
    }
  }
}`,
	},
	{
		name:        Update,
		description: "Update a task's title or description",
		schema: `{
  "type": "object",
  "properties": {
    "task_id": {"type": "integer", "minimum": 1, "description": "ID of the task to update"},
    "title": {"type": "string", "maxLength": 200, "description": "New task title (optional)"},
    "description": {"type": "string", "maxLength": 1000, "description": "New task description (optional)"}
  },
  "required": ["task_id"]
}`,
	},
	{
		name:        Complete,
		description: "Mark a task as completed",
		schema: `{
  "type": "object",
  "properties": {
    "task_id": {"type": "integer", "minimum": 1, "description": "ID of the task to mark as complete"}
  },
  "required": ["task_id"]
}`,
	},
	{
		name:        Delete,
		description: "Delete a task permanently",
		schema: `{
  "type": "object",
  "properties": {
    "task_id": {"type": "integer", "minimum": 1, "description": "ID of the task to delete"}
  },
  "required": ["task_id"]
}`,
	},
}

// Catalog returns the tool specs advertised to understanding providers,
// keyed by wire name.
func Catalog() []understanding.ToolSpec {
	out := make([]understanding.ToolSpec, len(catalog))
	for i, s := range catalog {
		out[i] = understanding.ToolSpec{
			Name:        s.name.Wire(),
			Description: s.description,
			Parameters:  json.RawMessage(s.schema),
		}
	}
	return out
}
