// Package workspace manages per-job scratch directories for conversions.
//
// Each conversion gets an ephemeral timestamped directory (e.g.
// kpfbuilder-20260823-122336) under the system temp dir, cleaned up
// completely after use. Within a workspace, numbered subdirectories hand
// out unique working directories for individual Previewer invocations.
package workspace
