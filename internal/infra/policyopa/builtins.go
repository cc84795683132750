package policyopa

import "github.com/open-policy-agent/opa/ast"

// allowedBuiltins keeps policies pure: no clock, network or randomness.
var allowedBuiltins = map[string]struct{}{
	"assign":            {},
	"concat":            {},
	"count":             {},
	"endswith":          {},
	"eq":                {},
	"equal":             {},
	"gt":                {},
	"gte":               {},
	"internal.member_2": {},
	"internal.member_3": {},
	"lower":             {},
	"lt":                {},
	"lte":               {},
	"max":               {},
	"min":               {},
	"neq":               {},
	"object.get":        {},
	"sprintf":           {},
	"startswith":        {},
	"sum":               {},
	"upper":             {},
}

func filterBuiltins(builtins []*ast.Builtin) []*ast.Builtin {
	allowed := make([]*ast.Builtin, 0, len(builtins))
	for _, builtin := range builtins {
		if _, ok := allowedBuiltins[builtin.Name]; !ok {
			continue
		}
		allowed = append(allowed, builtin)
	}
	return allowed
}
