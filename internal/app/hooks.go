package app

import (
	"io"
	"os"
)

// version is set at build time with -ldflags "-X btor2run/internal/app.version=...".
var version = "dev"

var (
	exitFn              = os.Exit
	stdout    io.Writer = os.Stdout
	stderr    io.Writer = os.Stderr
	cleanupFn           = cleanupOldLogs
)
