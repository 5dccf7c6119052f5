package scripts

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/charmbracelet/log"

	"github.com/grafana/create-plugin/internal/codemods"
	"github.com/grafana/create-plugin/internal/codemods/document"
)

const pluginJSONPath = "src/plugin.json"

// ErrUnsupportedReact is returned by I18n for plugins on React 17 or older.
var ErrUnsupportedReact = errors.New("@grafana/i18n requires React 18 or higher")

var (
	minReact          = semver.MustParse("18.0.0")
	translationLoader = semver.MustParse("12.1.0")
)

type I18nOptions struct {
	Locales []string `mapstructure:"locales" validate:"required,min=1,dive,locale"`
}

// I18n adds internationalisation support: locale files, the @grafana/i18n
// runtime and tooling, and the plugin.json and bundler settings they need.
// Plugins targeting Grafana older than 12.1.0 also get a resource loader.
var I18n = codemods.WithOptions(I18nOptions{}, i18n)

func i18n(c *codemods.Context, opts I18nOptions) error {
	logger := c.Logger()
	logger.Debug("adding i18n support", "locales", opts.Locales)

	if err := checkReactVersion(c); err != nil {
		return err
	}

	legacy := needsTranslationLoader(c)
	logger.Debug("checked grafana dependency", "needsLoader", legacy)

	if err := updateComposeFeatureToggle(c); err != nil {
		return err
	}
	if err := updatePluginJSON(c, opts.Locales, legacy); err != nil {
		return err
	}
	if err := createLocaleFiles(c, opts.Locales); err != nil {
		return err
	}

	if err := addDependencies(c, map[string]string{"@grafana/i18n": "^12.2.2"}, nil); err != nil {
		return err
	}
	if legacy {
		if err := addDependencies(c, map[string]string{"semver": "^7.6.0"}, map[string]string{"@types/semver": "^7.5.0"}); err != nil {
			return err
		}
	}

	if err := updateESLintConfig(c); err != nil {
		return err
	}
	if err := addTranslationInit(c, legacy); err != nil {
		return err
	}
	if legacy {
		if err := createLoadResources(c); err != nil {
			return err
		}
	}

	if err := addExtractScript(c); err != nil {
		return err
	}
	if err := createI18nextConfig(c); err != nil {
		return err
	}
	if err := ensureI18nextExternal(c); err != nil {
		return err
	}

	logger.Info("i18n support added",
		"next", "wrap user facing strings with t() or <Trans>, then run the i18n-extract script and translate the locale files")
	return nil
}

func checkReactVersion(c *codemods.Context) error {
	pkg, err := codemods.ReadPackageJSON(c, codemods.PackageJSONPath)
	if err != nil {
		c.Logger().Debug("cannot check react version", "err", err)
		return nil
	}

	var version string
	for _, deps := range []map[string]string{pkg.Dependencies, pkg.DevDependencies, pkg.PeerDependencies} {
		if v, ok := deps["react"]; ok {
			version = v
			break
		}
	}
	if version == "" {
		return nil
	}

	v, ok := codemods.CoerceVersion(version)
	if ok && v.LessThan(minReact) {
		return fmt.Errorf("%w: the plugin uses react %s, update package.json to \"react\": \"^18.3.0\" and \"react-dom\": \"^18.3.0\"", ErrUnsupportedReact, version)
	}
	return nil
}

// needsTranslationLoader reports whether the plugin supports Grafana
// versions that do not load plugin translations themselves. A missing or
// unreadable plugin.json counts as yes.
func needsTranslationLoader(c *codemods.Context) bool {
	raw, ok := c.GetFile(pluginJSONPath)
	if !ok {
		return true
	}
	root, err := document.Parse(raw)
	if err != nil {
		c.Logger().Debug("cannot parse plugin.json", "err", err)
		return true
	}
	dep := document.Lookup(root, "dependencies", "grafanaDependency")
	if dep == nil || dep.Value == "" {
		c.Logger().Warn("grafanaDependency is missing from plugin.json, assuming Grafana < 12.1.0 is supported")
		return true
	}
	return !atLeast(dep.Value, translationLoader)
}

// atLeast reports whether a range such as ">=12.1.0" starts at or above min.
func atLeast(constraint string, min *semver.Version) bool {
	v, ok := codemods.CoerceVersion(strings.TrimLeft(constraint, "><="))
	return ok && !v.LessThan(min)
}

func addDependencies(c *codemods.Context, deps, devDeps map[string]string) error {
	err := codemods.AddDependencies(c, codemods.PackageJSONPath, deps, devDeps)
	if errors.Is(err, codemods.ErrNotFound) {
		c.Logger().Debug("package.json not found, skipping dependencies")
		return nil
	}
	return err
}

// debugSkip logs an optional file that could not be parsed.
func debugSkip(logger *log.Logger, path string, err error) {
	logger.Debug("skipping unparsable file", "path", path, "err", err)
}
