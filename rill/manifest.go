package rill

import (
	"os"
	"sort"

	"github.com/pkg/errors"
	"github.com/rill-lang/rill/frontend/types"
	"gopkg.in/yaml.v3"
)

// Manifest declares which capabilities the host grants to a program's
// entry point. A checked program whose entry function demands a
// capability outside the grant set must not be run.
type Manifest struct {
	// Entry is the entry function name; defaults to "main".
	Entry string `yaml:"entry"`
	// Grants lists the granted capability names.
	Grants []string `yaml:"grants"`
}

// DefaultManifest grants nothing to "main".
func DefaultManifest() Manifest {
	return Manifest{Entry: "main"}
}

// LoadManifest reads a manifest from a YAML file.
func LoadManifest(path string) (Manifest, error) {
	m := DefaultManifest()
	data, err := os.ReadFile(path)
	if err != nil {
		return m, errors.Wrap(err, "read capability manifest")
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return m, errors.Wrap(err, "parse capability manifest")
	}
	if m.Entry == "" {
		m.Entry = "main"
	}
	for _, g := range m.Grants {
		if _, ok := types.CapKindNamed(g); !ok {
			return m, errors.Errorf("unknown capability %q in manifest", g)
		}
	}
	return m, nil
}

// Missing returns the capabilities required by the entry point that
// the manifest does not grant, sorted by name.
func (m Manifest) Missing(required []types.CapKind) []types.CapKind {
	granted := map[types.CapKind]bool{}
	for _, g := range m.Grants {
		if k, ok := types.CapKindNamed(g); ok {
			granted[k] = true
		}
	}
	var missing []types.CapKind
	seen := map[types.CapKind]bool{}
	for _, k := range required {
		if !granted[k] && !seen[k] {
			missing = append(missing, k)
			seen[k] = true
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i].String() < missing[j].String() })
	return missing
}
