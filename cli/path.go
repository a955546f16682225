package cli

import (
	"os"
	"path/filepath"

	"github.com/ardnew/clonelist/pkg"
)

const (
	// baseConfig is the base name of the user configuration files.
	baseConfig = "config"

	// baseProjectConfig is the project configuration file found by walking
	// up from the working directory.
	baseProjectConfig = "." + pkg.Name + ".toml"
)

var defaultDirMode os.FileMode = 0o700

// configPath joins elem to the user configuration directory.
func configPath(elem ...string) string {
	return filepath.Join(append([]string{pkg.ConfigDir()}, elem...)...)
}

// mkdirAllRequired creates the configuration and cache directories.
func mkdirAllRequired() error {
	for _, dir := range []string{pkg.ConfigDir(), pkg.CacheDir()} {
		if err := os.MkdirAll(dir, defaultDirMode); err != nil {
			return err
		}
	}

	return nil
}
