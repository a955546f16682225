package cli

import (
	"github.com/alecthomas/kong"

	"github.com/ardnew/clonelist/lang"
	"github.com/ardnew/clonelist/log"
)

// langConfig holds the expansion flags shared by every command.
type langConfig struct {
	Macro           string `default:"${defaultMacro}"        help:"Name of the pseudo-macro to expand."                  short:"m"`
	DupFunc         string `default:"${defaultDupFunc}"      help:"Function duplicating each bound value, empty to copy."`
	DupImport       string `default:"${defaultDupImport}"    help:"Import path providing the duplication function."`
	ResultType      string `                                 help:"Force the result type of every expansion."`
	FallbackType    string `default:"${defaultFallbackType}" help:"Result type used when none can be inferred."`
	MutabilityCheck bool   `default:"true"                   help:"Reject assignments to bindings not marked mut." negatable:""`
}

func (*langConfig) vars() kong.Vars {
	return kong.Vars{
		"defaultMacro":        lang.DefaultMacro,
		"defaultDupFunc":      lang.DefaultDupFunc,
		"defaultDupImport":    lang.DefaultDupImport,
		"defaultFallbackType": lang.DefaultFallbackType,
	}
}

func (*langConfig) group() kong.Group {
	return kong.Group{Key: "lang", Title: "Expansion options"}
}

// options returns the lang options the flags select.
func (f *langConfig) options(logger log.Logger) []lang.Option {
	return []lang.Option{
		lang.WithLogger(logger),
		lang.WithMacro(f.Macro),
		lang.WithDupFunc(f.DupFunc),
		lang.WithDupImport(f.DupImport),
		lang.WithResultType(f.ResultType),
		lang.WithFallbackType(f.FallbackType),
		lang.WithMutabilityCheck(f.MutabilityCheck),
	}
}
