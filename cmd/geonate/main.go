package main

import (
	"log"
	"os"

	"github.com/geonate/geonate/internal/cli"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Logging goes to stderr so command output stays clean on stdout.
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime)

	if os.Getenv("GEONATE_LOG_LEVEL") == "debug" {
		log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
		log.Printf("geonate %s (built %s, commit %s)", Version, BuildTime, GitCommit)
	}

	cli.Execute(cli.BuildInfo{
		Version:   Version,
		BuildTime: BuildTime,
		GitCommit: GitCommit,
	})
}
