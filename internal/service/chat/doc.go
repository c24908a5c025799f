// Package chat implements the orchestration pipeline behind the chat API.
//
// A Submit call authenticates the caller, loads the conversation context,
// stores the user's message, asks the understanding service what to do,
// runs any requested tools, asks again for a summary of the tool outcomes,
// and stores the reply. Each run walks the State machine defined in
// state.go; any failure moves it to Failed and is returned as a
// *classify.Failure.
//
// The read operations (conversation listings, single conversations, message
// pages) share the same authentication step and are served through the
// response cache, keyed by the owner's event generation.
package chat
