// Package stdlib embeds the five higher-order builtins' backing models:
// smth1, smth3, delay1, delay3, trend. The builtin-visitor rewrites a
// call to one of these into a Module variable referencing
// "stdlib·<name>"; internal/compiler resolves that name through this
// package instead of a user project's model list.
//
// Source models are serialized as YAML (gopkg.in/yaml.v3), embedded
// with go:embed, and parsed once into a package-level table behind a
// pure accessor.
package stdlib

import (
	"embed"
	"fmt"
	"sort"
	"sync"

	"github.com/sunholo/simlin/internal/datamodel"
	"gopkg.in/yaml.v3"
)

//go:embed models/*.yaml
var modelFS embed.FS

// Prefix namespaces stdlib model names away from project model names,
// matching internal/builtinrw.StdlibPrefix.
const Prefix = "stdlib·"

var (
	once   sync.Once
	models map[string]datamodel.Model
	loadErr error
)

func load() {
	models = make(map[string]datamodel.Model)
	entries, err := modelFS.ReadDir("models")
	if err != nil {
		loadErr = err
		return
	}
	for _, e := range entries {
		data, err := modelFS.ReadFile("models/" + e.Name())
		if err != nil {
			loadErr = fmt.Errorf("stdlib: reading %s: %w", e.Name(), err)
			return
		}
		var m datamodel.Model
		if err := yaml.Unmarshal(data, &m); err != nil {
			loadErr = fmt.Errorf("stdlib: parsing %s: %w", e.Name(), err)
			return
		}
		models[Prefix+m.Name] = m
	}
}

// Model returns the embedded model registered under name (already
// "stdlib·"-prefixed), or false if name is not a stdlib model.
func Model(name string) (datamodel.Model, bool) {
	once.Do(load)
	m, ok := models[name]
	return m, ok
}

// Inputs returns the ordered input identifiers a stdlib model declares —
// every Aux variable with no equation, since that is how an input is
// represented in a model awaiting module bindings.
func Inputs(name string) ([]string, bool) {
	m, ok := Model(name)
	if !ok {
		return nil, false
	}
	var inputs []string
	for _, v := range m.Variables {
		if v.IsAux() && v.Equation == nil {
			inputs = append(inputs, v.Ident)
		}
	}
	sort.Strings(inputs)
	return inputs, true
}

// Names returns every embedded stdlib model name, sorted, mostly useful
// for tests and diagnostics.
func Names() []string {
	once.Do(load)
	names := make([]string, 0, len(models))
	for k := range models {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// LoadError reports whether the embedded models failed to parse; this can
// only happen if the embedded YAML itself is malformed, which would be a
// build-time defect, not a runtime condition callers need to recover
// from. Exposed for tests.
func LoadError() error {
	once.Do(load)
	return loadErr
}
