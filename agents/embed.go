package agents

import "embed"

// FS holds the built-in agent definitions.
//
//go:embed *.yaml
var FS embed.FS
