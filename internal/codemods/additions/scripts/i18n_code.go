package scripts

import (
	"errors"
	"regexp"
	"strings"

	"github.com/grafana/create-plugin/internal/codemods"
	"github.com/grafana/create-plugin/internal/codemods/jssource"
)

const (
	eslintConfigPath  = "eslint.config.mjs"
	eslintPluginPath  = "@grafana/i18n/eslint-plugin"
	loadResourcesPath = "src/loadResources.ts"
	extractScript     = "i18n-extract"
)

var defineConfigArray = regexp.MustCompile(`defineConfig\(\s*\[`)

const eslintI18nConfig = `{
  name: 'grafana/i18n-rules',
  plugins: { '@grafana/i18n': grafanaI18nPlugin },
  rules: {
    '@grafana/i18n/no-untranslated-strings': ['error', { calleesToIgnore: ['^css$', 'use[A-Z].*'] }],
    '@grafana/i18n/no-translation-top-level': 'error',
  },
}`

// updateESLintConfig registers the @grafana/i18n lint rules in a flat
// eslint config built with defineConfig([...]).
func updateESLintConfig(c *codemods.Context) error {
	src, ok := c.GetFile(eslintConfigPath)
	if !ok || src == "" || strings.Contains(src, eslintPluginPath) {
		return nil
	}
	loc := defineConfigArray.FindStringIndex(src)
	if loc == nil {
		c.Logger().Debug("no defineConfig array found, skipping", "path", eslintConfigPath)
		return nil
	}
	updated, ok := jssource.AppendToArray(src, loc[1]-1, eslintI18nConfig)
	if !ok {
		return nil
	}
	updated = jssource.InsertAfterImports(updated, "import grafanaI18nPlugin from '"+eslintPluginPath+"';\n")
	return c.UpdateFile(eslintConfigPath, updated)
}

const (
	translationInit = `await initPluginTranslations(pluginJson.id);
`
	legacyTranslationInit = `// Before Grafana version 12.1.0 the plugin is responsible for loading translation resources
// In Grafana version 12.1.0 and later Grafana is responsible for loading translation resources
const loaders = semver.lt(config?.buildInfo?.version || '0.0.0', '12.1.0') ? [loadResources] : [];

await initPluginTranslations(pluginJson.id, loaders);
`
)

// addTranslationInit initialises translations at the top of the plugin
// module.
func addTranslationInit(c *codemods.Context, legacy bool) error {
	modulePath := ""
	for _, p := range []string{"src/module.ts", "src/module.tsx"} {
		if c.DoesFileExist(p) {
			modulePath = p
			break
		}
	}
	if modulePath == "" {
		c.Logger().Debug("no module.ts or module.tsx found, skipping i18n initialisation")
		return nil
	}
	src, _ := c.GetFile(modulePath)
	if src == "" || strings.Contains(src, "initPluginTranslations") {
		return nil
	}

	var b strings.Builder
	b.WriteString("import { initPluginTranslations } from '@grafana/i18n';\n")
	b.WriteString("import pluginJson from 'plugin.json';\n")
	initCode := translationInit
	if legacy {
		b.WriteString("import { config } from '@grafana/runtime';\n")
		b.WriteString("import semver from 'semver';\n")
		b.WriteString("import { loadResources } from './loadResources';\n")
		initCode = legacyTranslationInit
	}
	b.WriteString("\n")
	b.WriteString(initCode)

	return c.UpdateFile(modulePath, jssource.InsertAfterImports(src, b.String()))
}

const loadResources = "import { LANGUAGES, ResourceLoader, Resources } from '@grafana/i18n';\n" +
	"import pluginJson from 'plugin.json';\n" +
	"\n" +
	"const resources = LANGUAGES.reduce<Record<string, () => Promise<{ default: Resources }>>>((acc, lang) => {\n" +
	"  acc[lang.code] = () => import(`./locales/${lang.code}/${pluginJson.id}.json`);\n" +
	"  return acc;\n" +
	"}, {});\n" +
	"\n" +
	"export const loadResources: ResourceLoader = async (resolvedLanguage: string) => {\n" +
	"  try {\n" +
	"    const translation = await resources[resolvedLanguage]();\n" +
	"    return translation.default;\n" +
	"  } catch (error) {\n" +
	"    // This makes sure that the plugin doesn't crash when the resolved language in Grafana isn't supported by the plugin\n" +
	"    console.error(`The plugin '${pluginJson.id}' doesn't support the language '${resolvedLanguage}'`, error);\n" +
	"    return {};\n" +
	"  }\n" +
	"};\n"

func createLoadResources(c *codemods.Context) error {
	if c.DoesFileExist(loadResourcesPath) || !c.DoesFileExist(pluginJSONPath) {
		return nil
	}
	return c.AddFile(loadResourcesPath, loadResources)
}

// addExtractScript installs i18next-cli and the npm script that extracts
// translation keys.
func addExtractScript(c *codemods.Context) error {
	if err := addDependencies(c, nil, map[string]string{"i18next-cli": "^1.1.1"}); err != nil {
		return err
	}
	pkg, err := codemods.ReadPackageJSON(c, codemods.PackageJSONPath)
	if errors.Is(err, codemods.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if _, ok := pkg.Scripts[extractScript]; ok {
		return nil
	}
	if pkg.Scripts == nil {
		pkg.Scripts = make(map[string]string)
	}
	pkg.Scripts[extractScript] = "i18next-cli extract --sync-primary"
	return codemods.WritePackageJSON(c, codemods.PackageJSONPath, pkg)
}
