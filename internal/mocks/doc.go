// Package mocks provides centralized mock implementations for testing.
//
// Mocks use function fields for custom behaviour, default return values
// otherwise, and record their calls for verification:
//
//	u := mocks.NewScriptedUnderstanding(
//	    mocks.ToolStep(mocks.ToolCall("add_task", `{"title":"buy milk"}`)),
//	    mocks.TextStep("Added buy milk."),
//	)
//
// When adding a new mock to this package:
//  1. Create a new file named after the interface being mocked
//  2. Implement the mock struct with function fields for each interface method
//  3. Document any helper methods or special functionality
package mocks
