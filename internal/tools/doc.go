// Package tools defines the five task tools the understanding service may
// invoke, decodes raw tool requests into typed calls, and executes them
// against the task store with a per-call ownership check.
//
// Each tool has a canonical name (create, list, update, complete, delete)
// used in results and reports, and a wire name (add_task, list_tasks, ...)
// advertised to providers.
package tools
