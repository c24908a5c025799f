// Package events provides types and interfaces for an event-driven architecture.
//
// Services emit ConversationEvents without knowing which handlers consume
// them. The only consumer today is Generations, a per-owner counter that the
// chat pipeline folds into read-side cache keys so that a change to an
// owner's conversations makes their cached reads unreachable.
//
// The primary components are:
// - ConversationEvent: a change to an owner's conversations
// - EventHandler: interface for components that can handle events
// - EventEmitter: interface for components that can emit events
package events
