package scripts

import (
	"errors"

	"github.com/Masterminds/semver/v3"

	"github.com/grafana/create-plugin/internal/codemods"
)

const react18Range = "^18.3.0"

var minReact18 = semver.MustParse("18.3.0")

// React18_3 bumps React 18 projects below 18.3 to ^18.3.0 so that React 19
// deprecation warnings surface. Other majors are left alone.
var React18_3 = codemods.ScriptFunc(react18_3Script)

func react18_3Script(c *codemods.Context) error {
	pkg, err := codemods.ReadPackageJSON(c, codemods.PackageJSONPath)
	if errors.Is(err, codemods.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	current, ok := pkg.Dependencies["react"]
	if !ok {
		current, ok = pkg.DevDependencies["react"]
	}
	if !ok {
		return nil
	}
	v, ok := codemods.CoerceVersion(current)
	if !ok || v.Major() != 18 || !v.LessThan(minReact18) {
		return nil
	}

	c.Logger().Debug("updating react", "from", current, "to", react18Range)
	return codemods.AddDependencies(c, codemods.PackageJSONPath,
		map[string]string{
			"react":     react18Range,
			"react-dom": react18Range,
		},
		map[string]string{
			"@types/react":     react18Range,
			"@types/react-dom": react18Range,
		},
	)
}
