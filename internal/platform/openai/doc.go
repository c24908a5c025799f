// Package openai implements understanding.Service on the OpenAI Chat
// Completions API with tool calling.
//
// The neutral transcript maps one-to-one onto chat messages: assistant turns
// carrying tool requests become assistant messages with tool_calls, and each
// tool turn becomes a tool message answering its call id. The SDK's own
// retries are disabled; transient failures go through
// understanding.WithRetry like every other provider.
package openai
