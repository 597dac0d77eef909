// Package lottery picks winners for free items.
//
// A draw is a pure function of the participant set and a 64-bit seed:
// participants are de-duplicated and sorted, shuffled with Fisher–Yates
// driven by xorshift64*, and the first k are the winners. Recording the seed
// next to the result makes every draw reproducible.
package lottery

import (
	"crypto/rand"
	"encoding/binary"
	"hash/fnv"
	"slices"
	"strconv"
)

// zeroStateReplacement keeps xorshift out of its all-zero fixed point.
const zeroStateReplacement = 0x9E3779B97F4A7C15

// Xorshift is an xorshift64* generator. Not safe for concurrent use.
type Xorshift struct {
	state uint64
}

// NewXorshift seeds a generator.
func NewXorshift(seed uint64) *Xorshift {
	if seed == 0 {
		seed = zeroStateReplacement
	}
	return &Xorshift{state: seed}
}

// Uint64 returns the next value.
func (x *Xorshift) Uint64() uint64 {
	x.state ^= x.state >> 12
	x.state ^= x.state << 25
	x.state ^= x.state >> 27
	return x.state * 0x2545F4914F6CDD1D
}

// Shuffle permutes ids in place.
func Shuffle(ids []string, rng *Xorshift) {
	for i := len(ids) - 1; i > 0; i-- {
		j := int(rng.Uint64() % uint64(i+1))
		ids[i], ids[j] = ids[j], ids[i]
	}
}

// Draw returns up to k unique winners from participants. The input slice is
// not modified.
func Draw(participants []string, k int, seed uint64) []string {
	if k <= 0 || len(participants) == 0 {
		return []string{}
	}
	pool := slices.Clone(participants)
	slices.Sort(pool)
	pool = slices.Compact(pool)
	if i := slices.Index(pool, ""); i >= 0 {
		pool = slices.Delete(pool, i, i+1)
	}
	Shuffle(pool, NewXorshift(seed))
	return pool[:min(k, len(pool))]
}

// SeedFromString derives a seed from a caller-supplied string. A decimal
// uint64 is used verbatim so recorded seeds replay exactly; anything else is
// hashed with FNV-1a.
func SeedFromString(s string) uint64 {
	if n, err := strconv.ParseUint(s, 10, 64); err == nil {
		return n
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

// RandomSeed returns a seed from crypto/rand.
func RandomSeed() (uint64, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

// FormatSeed renders a seed the way SeedFromString reads it back.
func FormatSeed(seed uint64) string {
	return strconv.FormatUint(seed, 10)
}
