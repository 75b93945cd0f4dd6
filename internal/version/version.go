// Package version holds build metadata stamped in at link time.
package version

import (
	"fmt"
	"io"
)

// Set with -ldflags "-X github.com/dkoosis/pkltask/internal/version.Version=...".
var (
	Version    = "dev"
	CommitHash = "unknown"
	BuildDate  = "unknown"

	// InterpreterVersion is the pkl release the binary was packaged for.
	InterpreterVersion = "unknown"
)

// Fprint writes the version block shown by `pkltask version`.
func Fprint(w io.Writer, program string) {
	fmt.Fprintf(w, "%s version %s\n", program, Version)
	fmt.Fprintf(w, "Commit: %s\n", CommitHash)
	fmt.Fprintf(w, "Built: %s\n", BuildDate)
	fmt.Fprintf(w, "Interpreter: pkl %s\n", InterpreterVersion)
}
