package scripts

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"github.com/grafana/create-plugin/internal/codemods"
	"github.com/grafana/create-plugin/internal/codemods/document"
	"github.com/grafana/create-plugin/internal/codemods/jssource"
)

const (
	composePath          = "docker-compose.yaml"
	featureTogglesEnv    = "GF_FEATURE_TOGGLES_ENABLE"
	localizationToggle   = "localizationForPlugins"
	i18nextConfigPath    = "i18next.config.ts"
	externalsPath        = ".config/bundler/externals.ts"
	legacyWebpackPath    = ".config/webpack/webpack.config.ts"
	defaultGrafanaDepMin = ">=11.0.0"
)

var externalsArray = regexp.MustCompile(`\bexternals\b[^=:\n]*[=:]\s*\[`)

// updateComposeFeatureToggle enables the localizationForPlugins feature
// toggle on the grafana service when it declares an environment.
func updateComposeFeatureToggle(c *codemods.Context) error {
	logger := c.Logger()
	raw, ok := c.GetFile(composePath)
	if !ok || raw == "" {
		logger.Debug("docker-compose.yaml not found, skipping")
		return nil
	}

	doc, err := document.ParseDocument(raw)
	if err != nil {
		debugSkip(logger, composePath, err)
		return nil
	}
	env := document.Lookup(doc.Content[0], "services", "grafana", "environment")
	if env == nil {
		logger.Debug("no environment on the grafana service, skipping")
		return nil
	}

	switch env.Kind {
	case yaml.MappingNode:
		toggles := document.Get(env, featureTogglesEnv)
		if toggles == nil || toggles.Value == "" {
			document.Set(env, featureTogglesEnv, document.String(localizationToggle))
			break
		}
		if strings.Contains(toggles.Value, localizationToggle) {
			return nil
		}
		toggles.Value += "," + localizationToggle
	case yaml.SequenceNode:
		prefix := featureTogglesEnv + "="
		var toggles *yaml.Node
		for _, item := range env.Content {
			if strings.HasPrefix(item.Value, prefix) {
				toggles = item
			}
		}
		switch {
		case toggles == nil:
			env.Content = append(env.Content, document.String(prefix+localizationToggle))
		case strings.Contains(toggles.Value, localizationToggle):
			return nil
		case toggles.Value == prefix:
			toggles.Value += localizationToggle
		default:
			toggles.Value += "," + localizationToggle
		}
	default:
		return nil
	}

	out, err := document.EncodeYAML(doc)
	if err != nil {
		return err
	}
	return c.UpdateFile(composePath, out)
}

// updatePluginJSON adds locales to languages and raises grafanaDependency to
// the first Grafana version i18n works with.
func updatePluginJSON(c *codemods.Context, locales []string, legacy bool) error {
	logger := c.Logger()
	raw, ok := c.GetFile(pluginJSONPath)
	if !ok || raw == "" {
		logger.Debug("src/plugin.json not found, skipping")
		return nil
	}
	root, err := document.Parse(raw)
	if err != nil {
		debugSkip(logger, pluginJSONPath, err)
		return nil
	}

	languages := document.Get(root, "languages")
	if languages == nil || languages.Kind != yaml.SequenceNode {
		languages = &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		document.Set(root, "languages", languages)
	}
	for _, locale := range locales {
		if !document.SequenceContains(languages, locale) {
			languages.Content = append(languages.Content, document.String(locale))
		}
	}

	deps := document.Get(root, "dependencies")
	if deps == nil || deps.Kind != yaml.MappingNode {
		deps = document.Mapping()
		document.Set(root, "dependencies", deps)
	}
	current := defaultGrafanaDepMin
	if dep := document.Get(deps, "grafanaDependency"); dep != nil && dep.Value != "" {
		current = dep.Value
	}
	target := translationLoader
	if legacy {
		target = semver.MustParse("11.0.0")
	}
	if !atLeast(current, target) {
		document.Set(deps, "grafanaDependency", document.String(">="+target.String()))
		logger.Debug("updated grafanaDependency", "to", ">="+target.String())
	}

	out, err := document.EncodeJSON(root)
	if err != nil {
		return err
	}
	return c.UpdateFile(pluginJSONPath, out)
}

func pluginID(c *codemods.Context) string {
	raw, ok := c.GetFile(pluginJSONPath)
	if !ok {
		return ""
	}
	root, err := document.Parse(raw)
	if err != nil {
		return ""
	}
	if id := document.Get(root, "id"); id != nil {
		return id.Value
	}
	return ""
}

func createLocaleFiles(c *codemods.Context, locales []string) error {
	id := pluginID(c)
	if id == "" {
		c.Logger().Debug("no plugin id in plugin.json, skipping locale files")
		return nil
	}
	for _, locale := range locales {
		p := fmt.Sprintf("src/locales/%s/%s.json", locale, id)
		if c.DoesFileExist(p) {
			continue
		}
		if err := c.AddFile(p, "{}"); err != nil {
			return err
		}
	}
	return nil
}

const i18nextConfig = `import { defineConfig } from 'i18next-cli';
import pluginJson from './src/plugin.json';

export default defineConfig({
  locales: pluginJson.languages,
  extract: {
    input: ['src/**/*.{tsx,ts}'],
    output: 'src/locales/{{language}}/{{namespace}}.json',
    defaultNS: pluginJson.id,
    functions: ['t', '*.t'],
    transComponents: ['Trans'],
  },
});
`

func createI18nextConfig(c *codemods.Context) error {
	if c.DoesFileExist(i18nextConfigPath) {
		return nil
	}
	if pluginID(c) == "" {
		c.Logger().Debug("no plugin id in plugin.json, skipping i18next config")
		return nil
	}
	return c.AddFile(i18nextConfigPath, i18nextConfig)
}

// ensureI18nextExternal adds i18next to the bundler externals so the plugin
// shares Grafana's instance. The bundler externals file wins over the
// legacy webpack config.
func ensureI18nextExternal(c *codemods.Context) error {
	for _, p := range []string{externalsPath, legacyWebpackPath} {
		src, ok := c.GetFile(p)
		if !ok {
			continue
		}
		loc := externalsArray.FindStringIndex(src)
		if loc == nil {
			c.Logger().Debug("no externals array found", "path", p)
			return nil
		}
		open := loc[1] - 1
		end := jssource.Closing(src, open+1, '[', ']')
		if end == -1 || jssource.HasString(src[open:end], "i18next") {
			return nil
		}
		updated, ok := jssource.AppendToArray(src, open, "'i18next'")
		if !ok {
			return nil
		}
		return c.UpdateFile(p, updated)
	}
	return nil
}
