// Package understanding defines the boundary between the chat pipeline and an
// external language-understanding service. Given a system instruction, a
// transcript and a catalog of tool signatures, a Service returns either a
// natural-language reply or a list of requested tool invocations.
//
// Provider adapters live in internal/platform/gemini and internal/platform/openai.
package understanding
