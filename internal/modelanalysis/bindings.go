package modelanalysis

import (
	"fmt"
	"sort"

	"github.com/sunholo/simlin/internal/datamodel"
	"github.com/sunholo/simlin/internal/errors"
)

// ModuleInputsOf resolves the ordered set of input identifiers a model (by
// name) exposes, so a Module variable's bindings can be checked against it.
// Implemented by internal/compiler, which has both the project's models and
// the embedded stdlib models in scope.
type ModuleInputsOf func(modelName string) (inputs []string, ok bool)

// ValidateModuleBindings checks every Module variable's Bindings against the
// target model's declared inputs: every binding's destination input must
// exist (MDL003), and every declared input must have a binding (MDL004).
// A second binding to the same input is not reported.
func ValidateModuleBindings(vars []datamodel.Variable, resolve ModuleInputsOf) []*errors.Report {
	var reports []*errors.Report
	for _, v := range vars {
		if !v.IsModule() {
			continue
		}
		inputs, ok := resolve(v.ModelName)
		if !ok {
			reports = append(reports, &errors.Report{
				Kind: errors.KindModel, Code: errors.MDL002, Phase: "modelanalysis",
				Message: "module references unknown model: " + v.ModelName, Ident: v.Ident,
			})
			continue
		}

		wantInput := make(map[string]bool, len(inputs))
		for _, in := range inputs {
			wantInput[in] = true
		}

		bound := make(map[string]bool, len(v.Bindings))
		for _, b := range v.Bindings {
			dst := localInputName(v.Ident, b.Dst)
			if !wantInput[dst] {
				reports = append(reports, &errors.Report{
					Kind: errors.KindModel, Code: errors.MDL003, Phase: "modelanalysis",
					Message: fmt.Sprintf("%q is not an input of model %q", dst, v.ModelName), Ident: v.Ident,
				})
				continue
			}
			bound[dst] = true
		}

		var missing []string
		for _, in := range inputs {
			if !bound[in] {
				missing = append(missing, in)
			}
		}
		sort.Strings(missing)
		for _, in := range missing {
			reports = append(reports, &errors.Report{
				Kind: errors.KindModel, Code: errors.MDL004, Phase: "modelanalysis",
				Message: fmt.Sprintf("module input %q has no binding", in), Ident: v.Ident,
			})
		}
	}
	return reports
}

// localInputName strips the "<module>." prefix from a binding destination
// of the form "<module>.<input-ident>", returning the bare input
// identifier.
func localInputName(modIdent, dst string) string {
	prefix := modIdent + "."
	if len(dst) > len(prefix) && dst[:len(prefix)] == prefix {
		return dst[len(prefix):]
	}
	return dst
}
