// Package service contains the application-specific use cases and business
// logic. It orchestrates interactions between domain objects and repositories
// (defined in internal/store) to fulfill application features.
//
// ConversationService owns message history: it is the only writer of
// messages, it enforces conversation ownership, and it publishes
// conversation events after every change. The chat pipeline that consumes it
// lives in the chat subpackage.
//
// Services receive dependencies through constructor injection and depend on
// repository interfaces from store, never on a concrete database.
package service
