package scripts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grafana/create-plugin/internal/codemods"
	"github.com/grafana/create-plugin/internal/codemods/codemodtest"
)

func jestDomPackageJSON(version string) string {
	return `{"devDependencies":{"@types/testing-library__jest-dom":"^6.0.0",` +
		`"@testing-library/jest-dom":"` + version + `","@testing-library/react":"14.0.0"}}`
}

func TestTestingLibraryTypes_CreatesSetupTests(t *testing.T) {
	_, c := codemodtest.NewProject(t, map[string]string{
		codemods.PackageJSONPath: jestDomPackageJSON("6.0.0"),
	})

	require.NoError(t, codemodtest.Run(t, c, TestingLibraryTypes, nil))

	assert.Equal(t, "import '@testing-library/jest-dom';\n", codemodtest.File(t, c, setupTestsTypesPath))
	assert.Equal(t, map[string]string{
		"@testing-library/jest-dom": "6.0.0",
		"@testing-library/react":    "14.0.0",
	}, readPackageJSON(t, c).DevDependencies)
}

func TestTestingLibraryTypes_PrependsImport(t *testing.T) {
	existing := "// Some other type declarations\n"
	_, c := codemodtest.NewProject(t, map[string]string{
		codemods.PackageJSONPath: jestDomPackageJSON("6.1.4"),
		setupTestsTypesPath:      existing,
	})

	require.NoError(t, codemodtest.Run(t, c, TestingLibraryTypes, nil))

	assert.Equal(t, "import '@testing-library/jest-dom';\n"+existing, codemodtest.File(t, c, setupTestsTypesPath))
	assert.NotContains(t, readPackageJSON(t, c).DevDependencies, "@types/testing-library__jest-dom")
}

func TestTestingLibraryTypes_KeepsExistingImport(t *testing.T) {
	existing := "// Other content\nimport 'react';\nimport '@testing-library/jest-dom';\n"
	_, c := codemodtest.NewProject(t, map[string]string{
		codemods.PackageJSONPath: jestDomPackageJSON("6.1.4"),
		setupTestsTypesPath:      existing,
	})

	require.NoError(t, codemodtest.Run(t, c, TestingLibraryTypes, nil))

	assert.Equal(t, existing, codemodtest.File(t, c, setupTestsTypesPath))
	assert.Equal(t, []codemods.Change{{Path: codemods.PackageJSONPath, Type: codemods.ChangeUpdate}}, c.ListChanges())
}

func TestTestingLibraryTypes_NoOp(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
	}{
		{"no package.json", nil},
		{"jest-dom 5", map[string]string{codemods.PackageJSONPath: jestDomPackageJSON("^5.16.5")}},
		{"no jest-dom", map[string]string{codemods.PackageJSONPath: `{"devDependencies":{"@testing-library/react":"14.0.0"}}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, c := codemodtest.NewProject(t, tt.files)

			require.NoError(t, codemodtest.Run(t, c, TestingLibraryTypes, nil))
			assert.False(t, c.HasChanges())
		})
	}
}

func TestTestingLibraryTypes_Idempotent(t *testing.T) {
	_, c := codemodtest.NewProject(t, map[string]string{
		codemods.PackageJSONPath: jestDomPackageJSON("^6.4.0"),
	})

	codemodtest.AssertIdempotent(t, c, TestingLibraryTypes, nil)
}
