package main

import "github.com/ezblocker/spapatch/cmd"

// Set by the release build.
var (
	version = "dev"
	commit  = ""
	date    = ""
)

func main() {
	cmd.Execute(cmd.Metadata{Version: version, Commit: commit, Date: date})
}
