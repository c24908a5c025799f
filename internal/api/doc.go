// Package api provides the HTTP surface: chat submission, conversation
// queries, direct task CRUD and operational stats. Handlers translate HTTP
// into pipeline or executor calls and classified failures back into status
// codes; they hold no business rules of their own.
package api
