package vkpresent

import (
	"fmt"
	"os"
)

// BreadcrumbSink receives diagnostic messages for conditions the worker
// cannot recover from (device-lost, surface-lost) per spec §7's
// "reported via a breadcrumb sink" propagation policy. It is never used for
// argument errors, which are returned directly to the caller instead.
type BreadcrumbSink func(format string, args ...any)

// defaultBreadcrumbSink writes to stderr, matching the teacher codebase's
// own fmt.Fprintf(os.Stderr, ...) convention — this repo has no structured
// logging dependency to reach for (see DESIGN.md).
func defaultBreadcrumbSink(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "vkpresent: "+format+"\n", args...)
}
