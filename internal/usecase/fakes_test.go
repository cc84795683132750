package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	"schnorrd/internal/domain"
	"schnorrd/pkg/schnorr"
)

// toyParameters is the order-11 subgroup of Z_23*; small enough for fast tests.
func toyParameters(t *testing.T) *schnorr.Parameters {
	t.Helper()
	params, err := schnorr.NewParameters(schnorr.Level1024, big.NewInt(23), big.NewInt(11), big.NewInt(2))
	if err != nil {
		t.Fatalf("toy parameters: %v", err)
	}
	return params
}

type keyStoreStub struct {
	mu      sync.Mutex
	records map[string]schnorr.KeyRecord
	saveErr error
	getErr  error
	next    int
}

func newKeyStoreStub() *keyStoreStub {
	return &keyStoreStub{records: make(map[string]schnorr.KeyRecord)}
}

func (s *keyStoreStub) Save(ctx context.Context, rec schnorr.KeyRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return "", s.saveErr
	}
	s.next++
	id := fmt.Sprintf("rec-%d", s.next)
	rec.ID = id
	s.records[id] = rec
	return id, nil
}

func (s *keyStoreStub) Get(ctx context.Context, id string) (schnorr.KeyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return schnorr.KeyRecord{}, s.getErr
	}
	rec, ok := s.records[id]
	if !ok {
		return schnorr.KeyRecord{}, schnorr.ErrRecordNotFound
	}
	return rec, nil
}

type paramStoreStub struct {
	params  *schnorr.Parameters
	loadErr error
	saveErr error
	saves   int
}

func (s *paramStoreStub) Load() (*schnorr.Parameters, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	if s.params == nil {
		return nil, domain.ErrParamsUnavailable
	}
	return s.params, nil
}

func (s *paramStoreStub) Save(params *schnorr.Parameters) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.params = params
	return nil
}

// generatorStub returns errs in order, then params.
type generatorStub struct {
	params *schnorr.Parameters
	errs   []error
	calls  int
}

func (g *generatorStub) Generate(ctx context.Context, level schnorr.SecurityLevel) (*schnorr.Parameters, error) {
	g.calls++
	if len(g.errs) > 0 {
		err := g.errs[0]
		g.errs = g.errs[1:]
		return nil, err
	}
	return g.params, nil
}

type policyStub struct {
	deny   []domain.PolicyDeny
	err    error
	inputs []domain.PolicyInput
}

func (p *policyStub) Evaluate(ctx context.Context, input domain.PolicyInput) (domain.PolicyEvaluation, error) {
	p.inputs = append(p.inputs, input)
	if p.err != nil {
		return domain.PolicyEvaluation{}, p.err
	}
	return domain.PolicyEvaluation{
		BundleID: "test",
		Result:   domain.PolicyResult{Allow: len(p.deny) == 0, Deny: p.deny},
	}, nil
}

type metricsStub struct {
	generations []error
	signs       []error
	verifies    []bool
	verifyErrs  []error
}

func (m *metricsStub) ObserveGeneration(level string, err error, took time.Duration) {
	m.generations = append(m.generations, err)
}

func (m *metricsStub) ObserveSign(err error) {
	m.signs = append(m.signs, err)
}

func (m *metricsStub) ObserveVerify(valid bool, err error) {
	m.verifies = append(m.verifies, valid)
	m.verifyErrs = append(m.verifyErrs, err)
}

var errBackend = errors.New("backend down")
