package codemods

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"
)

const PackageJSONPath = "package.json"

const (
	sectionScripts          = "scripts"
	sectionDependencies     = "dependencies"
	sectionDevDependencies  = "devDependencies"
	sectionPeerDependencies = "peerDependencies"
)

var sections = []string{sectionScripts, sectionDependencies, sectionDevDependencies, sectionPeerDependencies}

// PackageJSON holds the parts of package.json the codemods edit. Every other
// key is kept verbatim and in its original position when written back.
type PackageJSON struct {
	Scripts          map[string]string
	Dependencies     map[string]string
	DevDependencies  map[string]string
	PeerDependencies map[string]string

	keys  []string
	raw   map[string]json.RawMessage
	order map[string][]string
}

func (p *PackageJSON) section(name string) *map[string]string {
	switch name {
	case sectionScripts:
		return &p.Scripts
	case sectionDependencies:
		return &p.Dependencies
	case sectionDevDependencies:
		return &p.DevDependencies
	default:
		return &p.PeerDependencies
	}
}

// ReadJSON decodes the JSON file at path into v.
func ReadJSON(c *Context, path string, v any) error {
	content, ok := c.GetFile(path)
	if !ok {
		return fmt.Errorf("cannot find %s: %w", path, ErrNotFound)
	}
	if err := json.Unmarshal([]byte(content), v); err != nil {
		return fmt.Errorf("cannot parse %s: %w", path, err)
	}
	return nil
}

// ReadPackageJSON loads package.json (or the file at path) from the context.
func ReadPackageJSON(c *Context, path string) (*PackageJSON, error) {
	content, ok := c.GetFile(path)
	if !ok {
		return nil, fmt.Errorf("cannot find %s: %w", path, ErrNotFound)
	}
	pkg, err := ParsePackageJSON([]byte(content))
	if err != nil {
		return nil, fmt.Errorf("cannot parse %s: %w", path, err)
	}
	return pkg, nil
}

func ParsePackageJSON(data []byte) (*PackageJSON, error) {
	keys, raw, err := decodeObject(data)
	if err != nil {
		return nil, err
	}

	pkg := &PackageJSON{keys: keys, raw: raw, order: make(map[string][]string)}
	for _, name := range sections {
		value, ok := raw[name]
		if !ok {
			continue
		}
		sectionKeys, sectionRaw, err := decodeObject(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		m := make(map[string]string, len(sectionKeys))
		for _, k := range sectionKeys {
			var s string
			if err := json.Unmarshal(sectionRaw[k], &s); err != nil {
				return nil, fmt.Errorf("%s.%s: %w", name, k, err)
			}
			m[k] = s
		}
		*pkg.section(name) = m
		pkg.order[name] = sectionKeys
	}
	return pkg, nil
}

// decodeObject reads a JSON object keeping its key order.
func decodeObject(data []byte) ([]string, map[string]json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, fmt.Errorf("expected a JSON object")
	}

	var keys []string
	values := make(map[string]json.RawMessage)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key := tok.(string)
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, nil, err
		}
		if _, seen := values[key]; !seen {
			keys = append(keys, key)
		}
		values[key] = value
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	return keys, values, nil
}

func encodeString(s string) []byte {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return bytes.TrimRight(buf.Bytes(), "\n")
}

func (p *PackageJSON) encodeSection(name string) []byte {
	m := *p.section(name)
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	write := func(k string) {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		buf.Write(encodeString(k))
		buf.WriteByte(':')
		buf.Write(encodeString(m[k]))
	}

	seen := make(map[string]bool, len(m))
	for _, k := range p.order[name] {
		if _, ok := m[k]; ok {
			write(k)
			seen[k] = true
		}
	}
	for _, k := range slices.Sorted(maps.Keys(m)) {
		if !seen[k] {
			write(k)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes()
}

// Marshal renders package.json with two space indentation and a trailing
// newline. Sections that did not exist before are appended only when they
// have entries.
func (p *PackageJSON) Marshal() ([]byte, error) {
	keys := slices.Clone(p.keys)
	for _, name := range sections {
		if !slices.Contains(keys, name) && len(*p.section(name)) > 0 {
			keys = append(keys, name)
		}
	}

	var compact bytes.Buffer
	compact.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			compact.WriteByte(',')
		}
		compact.Write(encodeString(k))
		compact.WriteByte(':')
		if slices.Contains(sections, k) {
			compact.Write(p.encodeSection(k))
		} else {
			compact.Write(p.raw[k])
		}
	}
	compact.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", "  "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

// WritePackageJSON stores pkg at path, creating the file if needed.
func WritePackageJSON(c *Context, path string, pkg *PackageJSON) error {
	data, err := pkg.Marshal()
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if !c.DoesFileExist(path) {
		return c.AddFile(path, string(data))
	}
	return c.UpdateFile(path, string(data))
}

// AddDependencies adds missing dependencies and upgrades existing ones when
// the requested version is newer. A dependency already listed in either
// section is updated in place. Sections are sorted by key after a change.
func AddDependencies(c *Context, path string, deps, devDeps map[string]string) error {
	pkg, err := ReadPackageJSON(c, path)
	if err != nil {
		return err
	}
	if pkg.Dependencies == nil {
		pkg.Dependencies = make(map[string]string)
	}
	if pkg.DevDependencies == nil {
		pkg.DevDependencies = make(map[string]string)
	}

	changed := false
	apply := func(wanted map[string]string, fallback map[string]string) {
		for _, dep := range slices.Sorted(maps.Keys(wanted)) {
			version := wanted[dep]
			target := fallback
			if _, ok := pkg.Dependencies[dep]; ok {
				target = pkg.Dependencies
			} else if _, ok := pkg.DevDependencies[dep]; ok {
				target = pkg.DevDependencies
			}
			current, exists := target[dep]
			if exists && !IsVersionGreater(version, current, false) {
				continue
			}
			target[dep] = version
			changed = true
		}
	}
	apply(deps, pkg.Dependencies)
	apply(devDeps, pkg.DevDependencies)

	if !changed {
		return nil
	}

	pkg.order[sectionDependencies] = nil
	pkg.order[sectionDevDependencies] = nil
	return WritePackageJSON(c, path, pkg)
}

// RemoveDependencies drops the named packages from the dependency sections.
func RemoveDependencies(c *Context, path string, deps, devDeps []string) error {
	pkg, err := ReadPackageJSON(c, path)
	if err != nil {
		return err
	}

	changed := false
	for _, dep := range deps {
		if _, ok := pkg.Dependencies[dep]; ok {
			delete(pkg.Dependencies, dep)
			changed = true
		}
	}
	for _, dep := range devDeps {
		if _, ok := pkg.DevDependencies[dep]; ok {
			delete(pkg.DevDependencies, dep)
			changed = true
		}
	}

	if !changed {
		return nil
	}
	return WritePackageJSON(c, path, pkg)
}

var distTags = map[string]int{
	"*":      2,
	"next":   1,
	"latest": 0,
}

var coercePattern = regexp.MustCompile(`(\d+)(?:\.(\d+))?(?:\.(\d+))?`)

// CoerceVersion extracts a semantic version from a version string or range
// such as "^18.2.0" or "v5". It reports false when no number is present.
func CoerceVersion(s string) (*semver.Version, bool) {
	s = strings.TrimSpace(s)
	clean := strings.TrimLeft(s, "=v")
	if v, err := semver.StrictNewVersion(clean); err == nil {
		return v, true
	}

	m := coercePattern.FindStringSubmatch(s)
	if m == nil {
		return nil, false
	}
	parts := []string{m[1], "0", "0"}
	if m[2] != "" {
		parts[1] = m[2]
	}
	if m[3] != "" {
		parts[2] = m[3]
	}
	v, err := semver.NewVersion(strings.Join(parts, "."))
	if err != nil {
		return nil, false
	}
	return v, true
}

// IsVersionGreater reports whether incoming should replace existing. Dist
// tags rank "*" over "next" over "latest"; a dist tag against a concrete
// version, or anything unparseable, always counts as greater.
func IsVersionGreater(incoming, existing string, orEqual bool) bool {
	incomingTag, incomingIsTag := distTags[incoming]
	existingTag, existingIsTag := distTags[existing]

	if incomingIsTag && existingIsTag {
		return incomingTag > existingTag
	}
	if incomingIsTag || existingIsTag {
		return true
	}

	in, ok := CoerceVersion(incoming)
	if !ok {
		return true
	}
	ex, ok := CoerceVersion(existing)
	if !ok {
		return true
	}

	if orEqual {
		return in.Compare(ex) >= 0
	}
	return in.GreaterThan(ex)
}
