// Package scripts holds the additions shipped with create-plugin.
package scripts

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/grafana/create-plugin/internal/codemods"
)

type ExampleOptions struct {
	FeatureName string   `mapstructure:"featureName" validate:"required,min=3,max=50,excludesall=/\\"`
	Enabled     bool     `mapstructure:"enabled"`
	Port        int      `mapstructure:"port" validate:"omitempty,min=1000,max=65535"`
	Frameworks  []string `mapstructure:"frameworks"`
}

const defaultExamplePort = 3000

// Example shows an addition with validated options. It adds a feature
// module under src/features and an example npm script.
var Example = codemods.WithOptions(ExampleOptions{
	Enabled:    true,
	Frameworks: []string{"react"},
}, example)

func example(c *codemods.Context, opts ExampleOptions) error {
	pkg, err := codemods.ReadPackageJSON(c, codemods.PackageJSONPath)
	switch {
	case errors.Is(err, codemods.ErrNotFound):
	case err != nil:
		return err
	default:
		if _, ok := pkg.Scripts["example-script"]; pkg.Scripts != nil && !ok {
			pkg.Scripts["example-script"] = fmt.Sprintf(`echo "Running %s"`, opts.FeatureName)
			if err := codemods.WritePackageJSON(c, codemods.PackageJSONPath, pkg); err != nil {
				return err
			}
		}
		if err := codemods.AddDependencies(c, codemods.PackageJSONPath, nil, map[string]string{"@types/node": "^20.0.0"}); err != nil {
			return err
		}
	}

	featurePath := fmt.Sprintf("src/features/%s.ts", opts.FeatureName)
	if !c.DoesFileExist(featurePath) {
		code, err := featureModule(opts)
		if err != nil {
			return err
		}
		if err := c.AddFile(featurePath, code); err != nil {
			return err
		}
	}

	if c.DoesFileExist("src/deprecated.ts") {
		if err := c.DeleteFile("src/deprecated.ts"); err != nil {
			return err
		}
	}
	if c.DoesFileExist("src/old-config.json") {
		if err := c.RenameFile("src/old-config.json", "src/new-config.json"); err != nil {
			return err
		}
	}
	return nil
}

func featureModule(opts ExampleOptions) (string, error) {
	port := opts.Port
	if port == 0 {
		port = defaultExamplePort
	}
	frameworks := opts.Frameworks
	if frameworks == nil {
		frameworks = []string{}
	}
	encoded, err := json.Marshal(frameworks)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`export const %[1]s = {
  name: '%[1]s',
  enabled: %[2]t,
  port: %[3]d,
  frameworks: %[4]s,
  init() {
    console.log('%[1]s initialized on port %[3]d');
  },
};
`, opts.FeatureName, opts.Enabled, port, encoded), nil
}
