// Package sampling draws weighted random selections. The random source
// is injected so business logic never touches a global generator and
// tests can assert exact outcomes.
package sampling

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/pulsedeck/pulsedeck/server/internal/model"
)

// Source yields uniform floats in [0, 1).
type Source interface {
	Float64() (float64, error)
}

// CryptoSource reads from crypto/rand. Selections feed user-facing
// fairness guarantees (curator rotation), so a non-crypto PRNG is not
// acceptable in production paths.
type CryptoSource struct{}

func (CryptoSource) Float64() (float64, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, fmt.Errorf("read random bytes: %w", err)
	}
	// 53 bits of mantissa yields a uniform float in [0, 1).
	return float64(binary.BigEndian.Uint64(buf[:])>>11) / (1 << 53), nil
}

// Pick draws one candidate with probability proportional to its weight.
// Candidates with weight <= 0 never win. Iteration is over sorted keys
// so a deterministic Source yields a deterministic pick.
func Pick(weights map[string]float64, src Source) (string, error) {
	keys := make([]string, 0, len(weights))
	total := 0.0
	for k, w := range weights {
		if w > 0 {
			keys = append(keys, k)
			total += w
		}
	}
	if len(keys) == 0 || total <= 0 {
		return "", model.ErrEmptyCandidateSet
	}
	sort.Strings(keys)

	u, err := src.Float64()
	if err != nil {
		return "", err
	}
	target := u * total

	cum := 0.0
	for _, k := range keys {
		cum += weights[k]
		if target < cum {
			return k, nil
		}
	}
	// Floating-point slack at the top of the range.
	return keys[len(keys)-1], nil
}

// Uniform builds a weight map assigning 1 to each candidate.
func Uniform(candidates []string) map[string]float64 {
	w := make(map[string]float64, len(candidates))
	for _, c := range candidates {
		w[c] = 1
	}
	return w
}
