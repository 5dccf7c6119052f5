// Package scripts holds the migration scripts shipped with create-plugin.
// Each script is idempotent: running it on an already migrated project
// changes nothing.
package scripts

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/grafana/create-plugin/internal/codemods"
	"github.com/grafana/create-plugin/internal/codemods/document"
)

const (
	composePath     = "docker-compose.yaml"
	baseComposePath = ".config/docker-compose-base.yaml"
	legacyContext   = "./.config"
)

// ComposeExtend rewrites the grafana service of docker-compose.yaml to
// extend the base service in .config/docker-compose-base.yaml, keeping only
// the settings that differ from the base.
var ComposeExtend = codemods.ScriptFunc(composeExtend)

func composeExtend(c *codemods.Context) error {
	content, ok := c.GetFile(composePath)
	if !ok || strings.TrimSpace(content) == "" {
		return nil
	}
	baseContent, ok := c.GetFile(baseComposePath)
	if !ok {
		return nil
	}

	doc, err := document.ParseDocument(content)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", composePath, err)
	}
	root := doc.Content[0]

	buildContext := document.Lookup(root, "services", "grafana", "build", "context")
	if buildContext == nil || buildContext.Value != legacyContext {
		return nil
	}
	grafana := document.Lookup(root, "services", "grafana")

	var base *yaml.Node
	if baseRoot, err := document.Parse(baseContent); err == nil {
		base = document.Lookup(baseRoot, "services", "grafana")
	} else if !errors.Is(err, document.ErrEmpty) {
		return fmt.Errorf("parsing %s: %w", baseComposePath, err)
	}

	var duplicates [][]string
	collectDuplicates(grafana, base, nil, &duplicates)
	// Children go before their parents so a parent left empty can still be
	// matched by its own path.
	sort.SliceStable(duplicates, func(i, j int) bool {
		return len(duplicates[i]) > len(duplicates[j])
	})
	for _, keys := range duplicates {
		document.DeleteIn(grafana, keys...)
	}

	removeDuplicateVolumes(grafana, document.Get(base, "volumes"))
	pruneEmpty(grafana, base)

	document.DeleteIn(grafana, "build", "context")
	if build := document.Get(grafana, "build"); isEmpty(build, yaml.MappingNode) {
		document.Delete(grafana, "build")
	}
	if volumes := document.Get(grafana, "volumes"); isEmpty(volumes, yaml.SequenceNode) {
		document.Delete(grafana, "volumes")
	}

	document.Set(grafana, "extends", document.Mapping(
		"file", baseComposePath,
		"service", "grafana",
	))

	out, err := document.EncodeYAML(doc)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", composePath, err)
	}
	return c.UpdateFile(composePath, out)
}

// collectDuplicates records the key path of every value under node that is
// equal to the value at the same path under base.
func collectDuplicates(node, base *yaml.Node, prefix []string, out *[][]string) {
	if node == nil || node.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i].Value, node.Content[i+1]
		baseValue := document.Get(base, key)
		keys := append(append([]string(nil), prefix...), key)
		if baseValue != nil && document.Equal(value, baseValue) {
			*out = append(*out, keys)
		}
		if value.Kind == yaml.MappingNode {
			collectDuplicates(value, baseValue, keys, out)
		}
	}
}

// removeDuplicateVolumes drops bind mounts the base service already
// declares. Host paths in the base file are relative to .config.
func removeDuplicateVolumes(grafana, baseVolumes *yaml.Node) {
	volumes := document.Get(grafana, "volumes")
	if volumes == nil || volumes.Kind != yaml.SequenceNode || baseVolumes == nil || baseVolumes.Kind != yaml.SequenceNode {
		return
	}

	kept := volumes.Content[:0]
	for _, item := range volumes.Content {
		if !coveredByBase(item, baseVolumes) {
			kept = append(kept, item)
		}
	}
	volumes.Content = kept
}

func coveredByBase(item, baseVolumes *yaml.Node) bool {
	host, container, ok := splitVolume(item)
	if !ok {
		return false
	}
	for _, baseItem := range baseVolumes.Content {
		baseHost, baseContainer, ok := splitVolume(baseItem)
		if !ok || baseContainer != container {
			continue
		}
		if path.Join(".config", baseHost) == path.Clean(host) {
			return true
		}
	}
	return false
}

func splitVolume(node *yaml.Node) (host, container string, ok bool) {
	if node.Kind != yaml.ScalarNode {
		return "", "", false
	}
	parts := strings.Split(node.Value, ":")
	if len(parts) < 2 {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// pruneEmpty removes maps that were emptied by the duplicate removal.
func pruneEmpty(node, base *yaml.Node) {
	if node == nil || node.Kind != yaml.MappingNode {
		return
	}
	var empty []string
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i].Value, node.Content[i+1]
		if value.Kind != yaml.MappingNode {
			continue
		}
		baseValue := document.Get(base, key)
		pruneEmpty(value, baseValue)
		if baseValue != nil && len(value.Content) == 0 {
			empty = append(empty, key)
		}
	}
	for _, key := range empty {
		document.Delete(node, key)
	}
}

func isEmpty(node *yaml.Node, kind yaml.Kind) bool {
	return node != nil && node.Kind == kind && len(node.Content) == 0
}
