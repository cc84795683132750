package schnorr

import (
	"fmt"
	"strings"
)

// SecurityLevel selects the bit lengths of p and q.
type SecurityLevel int

const (
	Level1024 SecurityLevel = iota + 1
	Level2048
	Level3072
)

type levelSpec struct {
	name  string
	alias string
	pBits int
	qBits int
}

var levels = map[SecurityLevel]levelSpec{
	Level1024: {name: "1024", alias: "S_320", pBits: 1024, qBits: 160},
	Level2048: {name: "2048", alias: "S_448", pBits: 2048, qBits: 224},
	Level3072: {name: "3072", alias: "S_512", pBits: 3072, qBits: 256},
}

// Levels lists every supported level from weakest to strongest.
func Levels() []SecurityLevel {
	return []SecurityLevel{Level1024, Level2048, Level3072}
}

func ParseSecurityLevel(value string) (SecurityLevel, error) {
	v := strings.TrimSpace(value)
	for _, level := range Levels() {
		def := levels[level]
		if strings.EqualFold(v, def.name) || strings.EqualFold(v, def.alias) {
			return level, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownLevel, value)
}

func (l SecurityLevel) Valid() bool {
	_, ok := levels[l]
	return ok
}

func (l SecurityLevel) PBits() int { return levels[l].pBits }

func (l SecurityLevel) QBits() int { return levels[l].qBits }

// KeyBits is the nominal private key length; secrets are drawn with one bit less.
func (l SecurityLevel) KeyBits() int { return levels[l].qBits }

func (l SecurityLevel) String() string {
	def, ok := levels[l]
	if !ok {
		return fmt.Sprintf("SecurityLevel(%d)", int(l))
	}
	return def.name
}

func (l SecurityLevel) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownLevel, int(l))
	}
	return []byte(l.String()), nil
}

func (l *SecurityLevel) UnmarshalText(text []byte) error {
	parsed, err := ParseSecurityLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
