//nolint:gochecknoglobals
package pkg

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var version string

// Version returns the semantic version of the clonelist module embedded at
// build time.
func Version() string { return strings.TrimSpace(version) }

const (
	// Name is the canonical command and module identifier. It appears in help
	// text, the default macro name, and default config paths.
	Name = "clonelist"

	// Description is a short summary of the project used in help output.
	Description = "Duplicate-before-use binding list expander for Go"

	// Macro is the default pseudo-call name recognized in Go source files.
	Macro = "clone"

	// DupImport is the import path of the duplication runtime package
	// referenced by generated code.
	DupImport = "github.com/ardnew/clonelist/dup"

	// DupFunc is the default duplication function called by generated code.
	DupFunc = "dup.Of"
)

// AuthorInfo represents an individual author's name and email address.
type AuthorInfo struct {
	Name  string
	Email string
}

// Author lists the primary author(s) of the project.
var Author = []AuthorInfo{
	{"ardnew", "andrew@ardnew.com"},
}
