package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/alecthomas/kong"
	"github.com/go-viper/mapstructure/v2"
	"github.com/goccy/go-yaml"
)

// settings lists every key a configuration file may set, named like the
// flag it provides a value for. It exists to validate loaded files.
type settings struct {
	LogLevel        string `mapstructure:"log-level"`
	LogFormat       string `mapstructure:"log-format"`
	LogTimeLayout   string `mapstructure:"log-time-layout"`
	LogCaller       bool   `mapstructure:"log-caller"`
	LogPretty       bool   `mapstructure:"log-pretty"`
	PprofMode       string `mapstructure:"pprof-mode"`
	PprofDir        string `mapstructure:"pprof-dir"`
	Macro           string `mapstructure:"macro"`
	DupFunc         string `mapstructure:"dup-func"`
	DupImport       string `mapstructure:"dup-import"`
	ResultType      string `mapstructure:"result-type"`
	FallbackType    string `mapstructure:"fallback-type"`
	MutabilityCheck bool   `mapstructure:"mutability-check"`
	Ext             string `mapstructure:"ext"`
	Indent          int    `mapstructure:"indent"`
}

// decodeFunc decodes a whole configuration document into a map.
type decodeFunc func(r io.Reader, v *map[string]any) error

func decodeYAML(r io.Reader, v *map[string]any) error {
	return yaml.NewDecoder(r).Decode(v)
}

func decodeTOML(r io.Reader, v *map[string]any) error {
	_, err := toml.NewDecoder(r).Decode(v)

	return err
}

// resolve returns a [kong.ConfigurationLoader] for documents decoded by
// decode. Nested tables are flattened into hyphenated flag names, so
//
//	log:
//	  level: debug
//	dup_func: clone.Deep
//
// sets --log-level and --dup-func. Keys that name no setting are an error.
// Command-line flags override config file values.
func resolve(decode decodeFunc) kong.ConfigurationLoader {
	return func(r io.Reader) (kong.Resolver, error) {
		var doc map[string]any

		if err := decode(r, &doc); err != nil && err != io.EOF {
			return nil, err
		}

		cfg := config{}
		flatten(cfg, "", doc)

		if err := cfg.validate(); err != nil {
			return nil, err
		}

		return cfg, nil
	}
}

// flatten copies src into dst, joining nested keys with hyphens and
// normalizing underscores to hyphens.
func flatten(dst config, prefix string, src map[string]any) {
	for key, val := range src {
		name := strings.ReplaceAll(strings.ToLower(key), "_", "-")
		if prefix != "" {
			name = prefix + "-" + name
		}

		if sub, ok := val.(map[string]any); ok {
			flatten(dst, name, sub)

			continue
		}

		dst[name] = val
	}
}

// config implements [kong.Resolver] for flattened configuration files.
type config map[string]any

// validate decodes c into [settings], rejecting unknown keys and values
// that cannot be converted to the setting's type.
func (c config) validate() error {
	var s settings

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &s,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}

	if err := dec.Decode(map[string]any(c)); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	return nil
}

// Validate implements [kong.Resolver].
func (c config) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver].
func (c config) Resolve(
	_ *kong.Context,
	_ *kong.Path,
	flag *kong.Flag,
) (any, error) {
	value, ok := c[flag.Name]
	if !ok {
		return nil, nil
	}

	// Kong parses numbers from their text.
	switch v := value.(type) {
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case int:
		return strconv.Itoa(v), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	}

	return value, nil
}

// findProjectConfig walks up from dir looking for the project configuration
// file and returns its path, or "" if there is none.
func findProjectConfig(dir string) string {
	for {
		path := filepath.Join(dir, baseProjectConfig)
		if _, err := os.Stat(path); err == nil {
			return path
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}

		dir = parent
	}
}
