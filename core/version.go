package core

// Build metadata, injected with
//
//	go build -ldflags "-X ruserwation/core.Version=$(git describe --tags --always)"
var (
	Version   = "dev"
	GitCommit = "unknown"
)
