package policyopa

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"schnorrd/internal/domain"

	"github.com/open-policy-agent/opa/ast"
	"github.com/open-policy-agent/opa/rego"
	"github.com/open-policy-agent/opa/storage"
	"github.com/open-policy-agent/opa/storage/inmem"
)

const defaultQuery = "data.schnorrd.policy.result"

//go:embed policy/*.rego
var builtinPolicy embed.FS

const builtinBundleID = "builtin"

// Settings are exposed to policies as data.schnorrd.config.
type Settings struct {
	MaxMessageBytes int64    `json:"max_message_bytes"`
	AllowedLevels   []string `json:"allowed_levels"`
}

type Engine struct {
	query      rego.PreparedEvalQuery
	bundleHash string
	bundleID   string
}

// NewEngine compiles the built-in signing policy.
func NewEngine(ctx context.Context, settings Settings) (*Engine, error) {
	bundleHash, err := ComputeBundleHashFromFS(builtinPolicy, "policy")
	if err != nil {
		return nil, err
	}
	modules, err := loadModules(builtinPolicy, "policy")
	if err != nil {
		return nil, err
	}
	return newEngine(ctx, settings, builtinBundleID, bundleHash, modules...)
}

// NewEngineFromBundlePath compiles every rego file under bundlePath instead of the
// built-in policy. Data comes only from settings, as data.schnorrd.config.
func NewEngineFromBundlePath(ctx context.Context, bundlePath string, bundleID string, settings Settings) (*Engine, error) {
	bundleHash, err := ComputeBundleHashFromPath(bundlePath)
	if err != nil {
		return nil, err
	}
	modules, err := loadModules(os.DirFS(bundlePath), ".")
	if err != nil {
		return nil, err
	}
	if len(modules) == 0 {
		return nil, fmt.Errorf("no rego files under %s", bundlePath)
	}
	return newEngine(ctx, settings, bundleID, bundleHash, modules...)
}

// loadModules reads the files the bundle hash covers, so the hash always describes
// exactly the compiled policy.
func loadModules(fsys fs.FS, root string) ([]func(*rego.Rego), error) {
	files, err := collectBundleFiles(fsys, root)
	if err != nil {
		return nil, err
	}
	modules := make([]func(*rego.Rego), 0, len(files))
	for _, file := range files {
		name := path.Join(root, file.Path)
		src, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, err
		}
		modules = append(modules, rego.Module(name, string(src)))
	}
	return modules, nil
}

func newEngine(ctx context.Context, settings Settings, bundleID, bundleHash string, sources ...func(*rego.Rego)) (*Engine, error) {
	store, err := settingsStore(settings)
	if err != nil {
		return nil, err
	}

	capabilities := ast.CapabilitiesForThisVersion()
	capabilities.Builtins = filterBuiltins(capabilities.Builtins)
	compiler := ast.NewCompiler().WithCapabilities(capabilities)

	opts := []func(*rego.Rego){
		rego.Query(defaultQuery),
		rego.Compiler(compiler),
		rego.Store(store),
		rego.StrictBuiltinErrors(true),
	}
	opts = append(opts, sources...)
	prepared, err := rego.New(opts...).PrepareForEval(ctx)
	if err != nil {
		return nil, err
	}
	if err := assertNoForbiddenBuiltins(compiler); err != nil {
		return nil, err
	}

	return &Engine{
		query:      prepared,
		bundleHash: bundleHash,
		bundleID:   bundleID,
	}, nil
}

func settingsStore(settings Settings) (storage.Store, error) {
	payload, err := json.Marshal(map[string]any{
		"schnorrd": map[string]any{"config": settings},
	})
	if err != nil {
		return nil, err
	}
	return inmem.NewFromReader(bytes.NewReader(payload)), nil
}

func (e *Engine) BundleHash() string {
	return e.bundleHash
}

func (e *Engine) BundleID() string {
	return e.bundleID
}

func (e *Engine) Evaluate(ctx context.Context, input domain.PolicyInput) (domain.PolicyEvaluation, error) {
	if e == nil {
		return domain.PolicyEvaluation{}, errors.New("policy engine is nil")
	}
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return domain.PolicyEvaluation{}, err
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return domain.PolicyEvaluation{}, errors.New("empty policy result")
	}
	result, err := decodePolicyResult(results[0].Expressions[0].Value)
	if err != nil {
		return domain.PolicyEvaluation{}, err
	}
	normalizePolicyResult(&result)
	return domain.PolicyEvaluation{
		BundleID:   e.bundleID,
		BundleHash: e.bundleHash,
		Result:     result,
	}, nil
}

func decodePolicyResult(value any) (domain.PolicyResult, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return domain.PolicyResult{}, err
	}
	var result domain.PolicyResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return domain.PolicyResult{}, err
	}
	return result, nil
}

func normalizePolicyResult(result *domain.PolicyResult) {
	if result == nil {
		return
	}
	sort.Slice(result.Deny, func(i, j int) bool {
		if result.Deny[i].Code == result.Deny[j].Code {
			return result.Deny[i].Message < result.Deny[j].Message
		}
		return result.Deny[i].Code < result.Deny[j].Code
	})
}

func assertNoForbiddenBuiltins(compiler *ast.Compiler) error {
	if compiler == nil {
		return errors.New("policy compiler is nil")
	}
	forbidden := make(map[string]struct{})
	for _, module := range compiler.Modules {
		ast.WalkTerms(module, func(term *ast.Term) bool {
			call, ok := term.Value.(ast.Call)
			if !ok || len(call) == 0 || call[0] == nil {
				return false
			}
			name := call[0].Value.String()
			if _, ok := ast.BuiltinMap[name]; !ok {
				return false
			}
			if _, ok := allowedBuiltins[name]; ok {
				return false
			}
			forbidden[name] = struct{}{}
			return false
		})
	}
	if len(forbidden) == 0 {
		return nil
	}
	names := make([]string, 0, len(forbidden))
	for name := range forbidden {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Errorf("forbidden builtins: %s", strings.Join(names, ", "))
}
