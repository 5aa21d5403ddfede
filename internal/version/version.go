// Copyright The docscrub Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package version carries build identification, overridden at link time.
package version

// Set via -ldflags "-X docscrub/internal/version.Version=..." at build.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Info is the build identity exposed on the API and the CLI.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Get returns the current build identity.
func Get() Info {
	return Info{Version: Version, Commit: Commit, Date: Date}
}
