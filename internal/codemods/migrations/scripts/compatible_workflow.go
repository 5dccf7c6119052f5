package scripts

import (
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/grafana/create-plugin/internal/codemods"
	"github.com/grafana/create-plugin/internal/codemods/document"
)

const isCompatibleWorkflowPath = ".github/workflows/is-compatible.yml"

const findModuleScript = `MODULETS="$(find ./src -type f \( -name "module.ts" -o -name "module.tsx" \))"
echo "modulets=${MODULETS}" >> $GITHUB_OUTPUT`

// CompatibleWorkflow replaces the step that calls levitate directly in the
// is-compatible workflow with the is-compatible GitHub action.
var CompatibleWorkflow = codemods.ScriptFunc(compatibleWorkflow)

func compatibleWorkflow(c *codemods.Context) error {
	content, ok := c.GetFile(isCompatibleWorkflowPath)
	if !ok || strings.TrimSpace(content) == "" {
		return nil
	}

	doc, err := document.ParseDocument(content)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", isCompatibleWorkflowPath, err)
	}

	steps := document.Lookup(doc.Content[0], "jobs", "compatibilitycheck", "steps")
	if steps == nil || steps.Kind != yaml.SequenceNode {
		return nil
	}

	idx := stepIndex(steps, "compatibility check")
	if idx == -1 || stepIndex(steps, "find module.ts") != -1 {
		return nil
	}

	run := document.String(findModuleScript)
	run.Style = yaml.LiteralStyle

	findModule := document.Mapping(
		"name", "Find module.ts or module.tsx",
		"id", "find-module-ts",
		"run", run,
	)
	check := document.Mapping(
		"name", "Compatibility check",
		"uses", "grafana/plugin-actions/is-compatible@main",
		"with", document.Mapping(
			"module", "${{ steps.find-module-ts.outputs.modulets }}",
			"comment-pr", "no",
			"fail-if-incompatible", "yes",
		),
	)
	steps.Content = slices.Replace(steps.Content, idx, idx+1, findModule, check)

	out, err := document.EncodeYAML(doc)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", isCompatibleWorkflowPath, err)
	}
	return c.UpdateFile(isCompatibleWorkflowPath, out)
}

// stepIndex finds the first step whose name contains fragment, ignoring case.
func stepIndex(steps *yaml.Node, fragment string) int {
	return slices.IndexFunc(steps.Content, func(step *yaml.Node) bool {
		name := document.Get(step, "name")
		return name != nil && strings.Contains(strings.ToLower(name.Value), fragment)
	})
}
