package chat

import (
	"github.com/phrazzld/tasktalk-api/internal/domain"
	"github.com/phrazzld/tasktalk-api/internal/understanding"
)

// SystemPrompt instructs the understanding service on its role and tools.
const SystemPrompt = `You are a helpful AI assistant for a todo management system.
You help users manage their tasks through natural language commands.

When users ask to perform task operations, use the provided functions:
- add_task: Create new tasks
- list_tasks: Show tasks (can filter by status: all/active/completed)
- update_task: Modify task details
- complete_task: Mark tasks as done
- delete_task: Remove tasks

Always use functions when the user wants to perform an action. Be conversational and helpful.
When listing tasks, present them in a clear, organized format.`

// transcriptOf converts stored history into transcript turns.
func transcriptOf(history []*domain.Message) []understanding.Turn {
	turns := make([]understanding.Turn, 0, len(history)+1)
	for _, m := range history {
		role := understanding.RoleUser
		if m.Role == domain.RoleAssistant {
			role = understanding.RoleAssistant
		}
		turns = append(turns, understanding.Turn{Role: role, Content: m.Content})
	}
	return turns
}
