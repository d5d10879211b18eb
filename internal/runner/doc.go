// Package runner drives one user query through the model and the tools.
//
// Each iteration sends the transcript and every tool descriptor, then
// either returns the model's text as the answer or runs all requested
// tools concurrently and appends:
//
//	assistant(text?, tool_request...) then tool(result) per request, in request order
//
// After MaxCalls tool invocations one last call is made. Its tool requests
// are discarded and only its text can become the answer.
//
// Run never mutates the history it is given. RunQuery in query.go wraps Run
// for the shell and reports failures as values.
package runner
