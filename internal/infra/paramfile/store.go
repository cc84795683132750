package paramfile

import (
	"fmt"
	"math/big"
	"os"

	"schnorrd/internal/domain"
	"schnorrd/pkg/schnorr"

	"github.com/go-ini/ini"
)

const (
	KeyP = "pNumber"
	KeyQ = "qNumber"
	KeyA = "aNumber"
)

// Store keeps domain parameters in a key = value file next to whatever else lives in it.
type Store struct {
	Path      string
	Certainty int
}

func NewStore(path string, certainty int) *Store {
	return &Store{Path: path, Certainty: certainty}
}

// Save overwrites the three parameter keys and leaves every other key alone. A missing
// file is created.
func (s *Store) Save(params *schnorr.Parameters) error {
	if params == nil {
		return fmt.Errorf("%w: nil parameters", schnorr.ErrInvalidParameters)
	}
	cfg, err := ini.LoadSources(ini.LoadOptions{Loose: true}, s.Path)
	if err != nil {
		return fmt.Errorf("read %s: %w", s.Path, err)
	}
	sec := cfg.Section(ini.DefaultSection)
	sec.Key(KeyP).SetValue(params.P().Text(16))
	sec.Key(KeyQ).SetValue(params.Q().Text(16))
	sec.Key(KeyA).SetValue(params.A().Text(16))
	if err := cfg.SaveTo(s.Path); err != nil {
		return fmt.Errorf("write %s: %w", s.Path, err)
	}
	return nil
}

// Load reads p, q and a back, infers the level from the bit length of p and validates
// the result.
func (s *Store) Load() (*schnorr.Parameters, error) {
	if _, err := os.Stat(s.Path); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrParamsUnavailable, err)
	}
	cfg, err := ini.Load(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.Path, err)
	}
	sec := cfg.Section(ini.DefaultSection)

	values := make([]*big.Int, 0, 3)
	for _, name := range []string{KeyP, KeyQ, KeyA} {
		if !sec.HasKey(name) {
			return nil, fmt.Errorf("%w: %s missing from %s", schnorr.ErrInvalidParameters, name, s.Path)
		}
		v, err := schnorr.ParseHexInt(sec.Key(name).String())
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", schnorr.ErrInvalidParameters, name, err)
		}
		values = append(values, v)
	}

	level, err := levelFor(values[0])
	if err != nil {
		return nil, err
	}
	params, err := schnorr.NewParameters(level, values[0], values[1], values[2])
	if err != nil {
		return nil, err
	}
	if err := params.Validate(s.Certainty); err != nil {
		return nil, err
	}
	return params, nil
}

func levelFor(p *big.Int) (schnorr.SecurityLevel, error) {
	for _, level := range schnorr.Levels() {
		if level.PBits() == p.BitLen() {
			return level, nil
		}
	}
	return 0, fmt.Errorf("%w: no level with a %d-bit modulus", schnorr.ErrInvalidParameters, p.BitLen())
}
