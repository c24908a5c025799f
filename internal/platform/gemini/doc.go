// Package gemini implements understanding.Service on Google's Gemini API
// using function calling.
//
// This package is an infrastructure adapter: it translates the neutral
// transcript and tool catalog into genai contents and function
// declarations, and translates candidates back into reply text or tool
// requests, without exposing genai types to the rest of the application.
//
// Transient API failures are retried with exponential backoff and jitter.
// Empty or blocked responses are permanent and reported as
// understanding.ErrInvalidResponse or understanding.ErrContentBlocked.
package gemini
