package scripts

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/grafana/create-plugin/internal/codemods"
	"github.com/grafana/create-plugin/internal/codemods/document"
)

const (
	eslintConfigPath      = ".config/.eslintrc"
	deprecationRule       = "deprecation/deprecation"
	noDeprecatedRule      = "@typescript-eslint/no-deprecated"
	deprecationPlugin     = "deprecation"
	deprecationPluginDep  = "eslint-plugin-deprecation"
	typescriptSourceGlob  = "src/**/*.{ts,tsx}"
	typescriptESLintRange = "^8.3.0"
)

// ESLintDeprecation swaps the eslint-plugin-deprecation rule for the
// @typescript-eslint/no-deprecated rule and drops the plugin package.
var ESLintDeprecation = codemods.ScriptFunc(eslintDeprecation)

func eslintDeprecation(c *codemods.Context) error {
	raw, ok := c.GetFile(eslintConfigPath)
	if !ok || !c.DoesFileExist(codemods.PackageJSONPath) {
		return nil
	}

	comments, body := splitESLintConfig(raw)
	config, err := document.Parse(body)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", eslintConfigPath, err)
	}

	overrides := document.Get(config, "overrides")
	if !usesDeprecationRule(overrides) {
		return codemods.RemoveDependencies(c, codemods.PackageJSONPath, nil, []string{deprecationPluginDep})
	}

	for _, override := range overrides.Content {
		if !document.SequenceContains(document.Get(override, "files"), typescriptSourceGlob) {
			continue
		}
		if plugins := document.Get(override, "plugins"); plugins != nil && plugins.Kind == yaml.SequenceNode {
			kept := plugins.Content[:0]
			for _, p := range plugins.Content {
				if p.Value != deprecationPlugin {
					kept = append(kept, p)
				}
			}
			plugins.Content = kept
			if len(kept) == 0 {
				document.Delete(override, "plugins")
			}
		}
		if rules := document.Get(override, "rules"); rules != nil && rules.Kind == yaml.MappingNode {
			document.Delete(rules, deprecationRule)
			document.Set(rules, noDeprecatedRule, document.String("warn"))
		}
	}

	encoded, err := document.EncodeJSON(config)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", eslintConfigPath, err)
	}
	if len(comments) > 0 {
		encoded = strings.Join(comments, "\n") + "\n" + encoded
	}
	if err := c.UpdateFile(eslintConfigPath, encoded); err != nil {
		return err
	}

	if err := codemods.AddDependencies(c, codemods.PackageJSONPath, map[string]string{
		"@typescript-eslint/eslint-plugin": typescriptESLintRange,
		"@typescript-eslint/parser":        typescriptESLintRange,
	}, nil); err != nil {
		return err
	}
	return codemods.RemoveDependencies(c, codemods.PackageJSONPath, nil, []string{deprecationPluginDep})
}

func usesDeprecationRule(overrides *yaml.Node) bool {
	if overrides == nil || overrides.Kind != yaml.SequenceNode {
		return false
	}
	for _, override := range overrides.Content {
		if rule := document.Lookup(override, "rules", deprecationRule); rule != nil && rule.ShortTag() != "!!null" {
			return true
		}
	}
	return false
}

// splitESLintConfig separates block comment lines from the JSON body of an
// .eslintrc file.
func splitESLintConfig(content string) (comments []string, body string) {
	var b strings.Builder
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "/*") || strings.HasPrefix(trimmed, "*") {
			comments = append(comments, line)
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return comments, b.String()
}
