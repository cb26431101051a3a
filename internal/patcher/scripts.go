package patcher

import (
	_ "embed"
	"strconv"
	"strings"
)

// Embedded assets written into the bundle.

//go:embed scripts/worker.js
var workerTemplate string

//go:embed scripts/bootstrap.html
var bootstrapTemplate string

// WorkerScript renders the injected worker for the given listener port. The
// worker sends GET http://localhost:{port}/{event} for every message it
// receives and answers "ready" 300ms later.
func WorkerScript(port int) string {
	return strings.ReplaceAll(strings.TrimSpace(workerTemplate), "{PORT}", strconv.Itoa(port))
}

// bootstrapMarkup renders the script tags that replace the bundle's loader.
func bootstrapMarkup(website string) string {
	return strings.ReplaceAll(strings.TrimSpace(bootstrapTemplate), "{WEBSITE}", website)
}
