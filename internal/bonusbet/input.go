package bonusbet

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Vodeneev/bonusbet/internal/pkg/config"
)

var (
	ErrInvalidStake     = errors.New("stake must be a positive number")
	ErrInvalidMode      = errors.New("mode must be quick or best")
	ErrUnknownBookmaker = errors.New("unsupported bookmaker")
)

// ParseStake reads amounts typed by users such as "50", "$1,250" or "12.5".
func ParseStake(s string) (float64, error) {
	clean := strings.NewReplacer("$", "", ",", "").Replace(strings.TrimSpace(s))
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidStake, s)
	}
	if err := ValidateStake(v); err != nil {
		return 0, err
	}
	return v, nil
}

func ValidateStake(v float64) error {
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidStake, v)
	}
	return nil
}

// Bookmakers is the supported bonus bookmaker list, in display order.
type Bookmakers struct {
	list  []config.BookmakerConfig
	byKey map[string]config.BookmakerConfig
}

func NewBookmakers(list []config.BookmakerConfig) *Bookmakers {
	b := &Bookmakers{byKey: make(map[string]config.BookmakerConfig, len(list))}
	for _, bm := range list {
		if _, dup := b.byKey[bm.Key]; dup || bm.Key == "" {
			continue
		}
		b.list = append(b.list, bm)
		b.byKey[bm.Key] = bm
	}
	return b
}

// List returns a copy of the supported bookmakers.
func (b *Bookmakers) List() []config.BookmakerConfig {
	out := make([]config.BookmakerConfig, len(b.list))
	copy(out, b.list)
	return out
}

// Validate normalizes key and checks it is supported.
func (b *Bookmakers) Validate(key string) (string, error) {
	k := strings.ToLower(strings.TrimSpace(key))
	if _, ok := b.byKey[k]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownBookmaker, key)
	}
	return k, nil
}

// Label is the display name of key, or key itself when unknown.
func (b *Bookmakers) Label(key string) string {
	if bm, ok := b.byKey[key]; ok && bm.Label != "" {
		return bm.Label
	}
	return key
}
