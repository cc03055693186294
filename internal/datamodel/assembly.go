package datamodel

import (
	"fmt"
	"strings"
)

// AssemblyErrorCode enumerates project-assembly failures: models wired by
// name, with unreferenced and duplicated models detected.
type AssemblyErrorCode string

const (
	ErrDuplicateModel   AssemblyErrorCode = "ASM001"
	ErrUnreferencedModel AssemblyErrorCode = "ASM002"
	ErrUnknownModelRef  AssemblyErrorCode = "ASM003"
)

// AssemblyError reports a single project-assembly problem.
type AssemblyError struct {
	Code    AssemblyErrorCode
	Message string
}

func (e *AssemblyError) Error() string { return string(e.Code) + ": " + e.Message }

// Assemble validates cross-model wiring: no two models share a name, every
// Module variable's ModelName resolves to a model in the project (a name
// with the "stdlib·" prefix refers to an embedded stdlib model and is not
// checked here), and
// (advisory only — reported, not fatal) every non-root model is referenced
// by at least one Module variable somewhere in the project.
func Assemble(p *Project) []*AssemblyError {
	var errs []*AssemblyError

	seen := map[string]bool{}
	for _, m := range p.Models {
		if seen[m.Name] {
			errs = append(errs, &AssemblyError{ErrDuplicateModel, fmt.Sprintf("model %q is declared more than once", m.Name)})
			continue
		}
		seen[m.Name] = true
	}

	referenced := map[string]bool{}
	for _, m := range p.Models {
		for _, v := range m.Variables {
			if !v.IsModule() {
				continue
			}
			if strings.HasPrefix(v.ModelName, "stdlib·") {
				continue
			}
			if _, ok := p.ModelByName(v.ModelName); !ok {
				errs = append(errs, &AssemblyError{ErrUnknownModelRef,
					fmt.Sprintf("module %q in model %q references unknown model %q", v.Ident, m.Name, v.ModelName)})
				continue
			}
			referenced[v.ModelName] = true
		}
	}

	root, hasRoot := p.RootModel()
	for _, m := range p.Models {
		if hasRoot && m.Name == root.Name {
			continue
		}
		if !referenced[m.Name] {
			errs = append(errs, &AssemblyError{ErrUnreferencedModel, fmt.Sprintf("model %q is never referenced by a module", m.Name)})
		}
	}

	return errs
}
