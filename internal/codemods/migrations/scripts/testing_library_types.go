package scripts

import (
	"errors"
	"strings"

	"github.com/grafana/create-plugin/internal/codemods"
)

const (
	setupTestsTypesPath = ".config/types/setupTests.d.ts"
	jestDomPackage      = "@testing-library/jest-dom"
	jestDomTypesPackage = "@types/testing-library__jest-dom"
	jestDomImport       = "import '@testing-library/jest-dom';\n"
)

// TestingLibraryTypes imports the jest-dom matcher types from
// setupTests.d.ts and drops the separate types package, which jest-dom 6
// no longer needs.
var TestingLibraryTypes = codemods.ScriptFunc(testingLibraryTypes)

func testingLibraryTypes(c *codemods.Context) error {
	pkg, err := codemods.ReadPackageJSON(c, codemods.PackageJSONPath)
	if errors.Is(err, codemods.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	version, ok := pkg.DevDependencies[jestDomPackage]
	if !ok || !codemods.IsVersionGreater(version, "6.0.0", true) {
		return nil
	}

	if existing, ok := c.GetFile(setupTestsTypesPath); ok {
		if !strings.Contains(existing, jestDomPackage) {
			if err := c.UpdateFile(setupTestsTypesPath, jestDomImport+existing); err != nil {
				return err
			}
		}
	} else if err := c.AddFile(setupTestsTypesPath, jestDomImport); err != nil {
		return err
	}

	return codemods.RemoveDependencies(c, codemods.PackageJSONPath, nil, []string{jestDomTypesPackage})
}
