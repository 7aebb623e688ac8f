// Package runner supervises a single external program invocation: sandboxed
// environment construction, output capture to a file, a deadline-bounded
// poll loop, and process-tree termination on timeout.
package runner
