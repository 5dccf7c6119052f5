package scripts

import (
	"errors"
	"regexp"
	"strings"

	"github.com/grafana/create-plugin/internal/codemods"
)

// ExampleOptions are the options accepted by Example.
type ExampleOptions struct {
	Profile    bool `mapstructure:"profile"`
	SkipBackup bool `mapstructure:"skipBackup"`
	Verbose    bool `mapstructure:"verbose"`
}

var webpackBuildScript = regexp.MustCompile(`(webpack.+-c\s.+\.ts)\s(.+)`)

// Example demonstrates every Context operation and typed options. It is not
// registered and exists as a template for new migrations.
var Example = codemods.WithOptions(ExampleOptions{}, example)

func example(c *codemods.Context, opts ExampleOptions) error {
	logger := c.Logger()
	if opts.Verbose {
		logger.Info("running migration", "profile", opts.Profile, "skipBackup", opts.SkipBackup)
	}

	pkg, err := codemods.ReadPackageJSON(c, codemods.PackageJSONPath)
	switch {
	case errors.Is(err, codemods.ErrNotFound):
	case err != nil:
		return err
	default:
		build, ok := pkg.Scripts["build"]
		if ok && opts.Profile && webpackBuildScript.MatchString(build) && !strings.Contains(build, "--profile") {
			pkg.Scripts["build"] = webpackBuildScript.ReplaceAllString(build, "${1} --profile ${2}")
			if err := codemods.WritePackageJSON(c, codemods.PackageJSONPath, pkg); err != nil {
				return err
			}
		}
	}

	if !opts.SkipBackup && c.DoesFileExist("src/README.md") {
		if err := c.DeleteFile("src/README.md"); err != nil {
			return err
		}
	}

	if !c.DoesFileExist("src/foo.json") {
		if err := c.AddFile("src/foo.json", `{"foo":"bar"}`); err != nil {
			return err
		}
	}

	if c.DoesFileExist(".eslintrc") {
		if err := c.RenameFile(".eslintrc", ".eslint.config.json"); err != nil {
			return err
		}
	}

	for entry := range c.ReadDir("src") {
		logger.Debug("src entry", "path", entry)
	}
	return nil
}
