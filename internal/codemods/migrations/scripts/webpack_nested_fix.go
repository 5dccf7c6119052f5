package scripts

import (
	"regexp"
	"strings"

	"github.com/grafana/create-plugin/internal/codemods"
	"github.com/grafana/create-plugin/internal/codemods/jssource"
)

const (
	webpackConfigPath  = ".config/webpack/webpack.config.ts"
	replacePluginCall  = "new ReplaceInFileWebpackPlugin("
	nestedFilesPattern = `test: [/(^|\/)plugin\.json$/, /(^|\/)README\.md$/]`
)

// filesProperty matches files: ['plugin.json', 'README.md'] in either order
// and with either quote style.
var filesProperty = regexp.MustCompile(
	`files:\s*\[\s*(?:` +
		`(?:'plugin\.json'|"plugin\.json")\s*,\s*(?:'README\.md'|"README\.md")` +
		`|` +
		`(?:'README\.md'|"README\.md")\s*,\s*(?:'plugin\.json'|"plugin\.json")` +
		`)\s*,?\s*\]`,
)

// WebpackNestedFix makes ReplaceInFileWebpackPlugin match plugin.json and
// README.md in nested directories by replacing its files list with test
// patterns.
var WebpackNestedFix = codemods.ScriptFunc(webpackNestedFix)

func webpackNestedFix(c *codemods.Context) error {
	content, ok := c.GetFile(webpackConfigPath)
	if !ok || content == "" {
		return nil
	}

	var b strings.Builder
	rest := content
	changed := false
	for {
		i := strings.Index(rest, replacePluginCall)
		if i == -1 {
			b.WriteString(rest)
			break
		}
		start := i + len(replacePluginCall)
		end := jssource.Closing(rest, start, '(', ')')
		if end == -1 {
			b.WriteString(rest)
			break
		}

		args := rest[start:end]
		replaced := filesProperty.ReplaceAllLiteralString(args, nestedFilesPattern)
		if replaced != args {
			changed = true
		}
		b.WriteString(rest[:start])
		b.WriteString(replaced)
		rest = rest[end:]
	}

	if !changed {
		return nil
	}
	return c.UpdateFile(webpackConfigPath, b.String())
}
