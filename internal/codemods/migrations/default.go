package migrations

import "github.com/grafana/create-plugin/internal/codemods/migrations/scripts"

// Default returns the registry of migrations shipped with create-plugin.
func Default() *Registry {
	r := NewRegistry()
	r.MustRegister(
		Migration{
			Name:        "001-update-grafana-compose-extend",
			Version:     LegacyUpdateCutoffVersion,
			Description: "Update ./docker-compose.yaml to extend from ./.config/docker-compose-base.yaml.",
			Script:      scripts.ComposeExtend,
		},
		Migration{
			Name:        "002-update-is-compatible-workflow",
			Version:     LegacyUpdateCutoffVersion,
			Description: "Update ./.github/workflows/is-compatible.yml to use is-compatible github action instead of calling levitate directly",
			Script:      scripts.CompatibleWorkflow,
		},
		Migration{
			Name:        "003-update-eslint-deprecation-rule",
			Version:     LegacyUpdateCutoffVersion,
			Description: "Replace deprecated eslint-plugin-deprecation with @typescript-eslint/no-deprecated rule.",
			Script:      scripts.ESLintDeprecation,
		},
		Migration{
			Name:        "005-react-18-3",
			Version:     "6.1.9",
			Description: "Update React and ReactDOM 18.x versions to ^18.3.0 to surface React 19 compatibility issues.",
			Script:      scripts.React18_3,
		},
		Migration{
			Name:        "006-webpack-nested-fix",
			Version:     "6.1.11",
			Description: "Fix webpack variable replacement in nested plugins files.",
			Script:      scripts.WebpackNestedFix,
		},
		Migration{
			Name:        "007-remove-testing-library-types",
			Version:     "6.1.13",
			Description: "Add setupTests.d.ts for @testing-library/jest-dom types and remove @types/testing-library__jest-dom npm package.",
			Script:      scripts.TestingLibraryTypes,
		},
		// New migrations must not use LegacyUpdateCutoffVersion.
	)
	return r
}

// Example returns a registry holding only the example migration. It backs
// the hidden example command and the migration tests.
func Example() *Registry {
	r := NewRegistry()
	r.MustRegister(Migration{
		Name:        "example-migration",
		Version:     "0.0.0",
		Description: "Append --profile to the webpack build script and tidy up example files.",
		Script:      scripts.Example,
	})
	return r
}
