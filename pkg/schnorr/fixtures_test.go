package schnorr

import (
	"context"
	"errors"
	"sync"
	"testing"
)

var (
	fixturesMu sync.Mutex
	fixtures   = map[SecurityLevel]*Parameters{}
)

// testParameters generates parameters once per level and shares them between tests.
// Larger levels exhaust the p search every few hundred attempts, so a few retries are
// allowed.
func testParameters(t *testing.T, level SecurityLevel) *Parameters {
	t.Helper()
	if level == Level3072 && testing.Short() {
		t.Skip("3072-bit generation skipped in -short mode")
	}

	fixturesMu.Lock()
	defer fixturesMu.Unlock()
	if p, ok := fixtures[level]; ok {
		return p
	}

	g := NewGenerator()
	var lastErr error
	for attempt := 0; attempt < 5; attempt++ {
		params, err := g.Generate(context.Background(), level)
		if err == nil {
			fixtures[level] = params
			return params
		}
		if !errors.Is(err, ErrParameterGeneration) {
			t.Fatalf("generate %s: %v", level, err)
		}
		lastErr = err
	}
	t.Fatalf("generate %s: %v", level, lastErr)
	return nil
}
