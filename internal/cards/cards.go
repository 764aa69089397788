// Package cards holds the pure card math: the id<->feature encoding, the
// matching predicate and deck construction. It owns no shared state.
package cards

import (
	"math/rand"

	"trio_table/internal/domain"
)

// Codec maps dense card ids onto feature vectors. A card id is read as a
// base-FeatureSize number with FeatureCount digits; digit i is the value
// of feature i.
type Codec struct {
	FeatureSize  int
	FeatureCount int
}

// DeckSize is the number of distinct cards the codec can express.
func (c Codec) DeckSize() int {
	size := 1
	for i := 0; i < c.FeatureCount; i++ {
		size *= c.FeatureSize
	}
	return size
}

// Features decodes a card id into its feature values.
func (c Codec) Features(card domain.CardID) []int {
	values := make([]int, c.FeatureCount)
	v := int(card)
	for i := 0; i < c.FeatureCount; i++ {
		values[i] = v % c.FeatureSize
		v /= c.FeatureSize
	}
	return values
}

// IsTrio reports whether the given cards form a valid combination: for
// every feature, the values are either all equal or all distinct. The
// combination must contain exactly FeatureSize cards.
func (c Codec) IsTrio(cards []domain.CardID) bool {
	if len(cards) != c.FeatureSize {
		return false
	}
	for feature := 0; feature < c.FeatureCount; feature++ {
		div := 1
		for i := 0; i < feature; i++ {
			div *= c.FeatureSize
		}
		seen := make(map[int]int, c.FeatureSize)
		for _, card := range cards {
			value := (int(card) / div) % c.FeatureSize
			seen[value]++
		}
		if len(seen) != 1 && len(seen) != len(cards) {
			return false
		}
	}
	return true
}

// FindTrios returns up to max disjoint valid combinations drawn from the
// pool. max <= 0 means no limit. The engine uses max=1 as its
// "any valid combination left" check.
func (c Codec) FindTrios(pool []domain.CardID, max int) [][]domain.CardID {
	var found [][]domain.CardID
	used := make(map[domain.CardID]bool)

	combo := make([]domain.CardID, 0, c.FeatureSize)
	var search func(start int) bool
	search = func(start int) bool {
		if len(combo) == c.FeatureSize {
			if c.IsTrio(combo) {
				return true
			}
			return false
		}
		for i := start; i < len(pool); i++ {
			if used[pool[i]] {
				continue
			}
			combo = append(combo, pool[i])
			if search(i + 1) {
				return true
			}
			combo = combo[:len(combo)-1]
		}
		return false
	}

	for {
		combo = combo[:0]
		if !search(0) {
			break
		}
		trio := make([]domain.CardID, len(combo))
		copy(trio, combo)
		for _, card := range trio {
			used[card] = true
		}
		found = append(found, trio)
		if max > 0 && len(found) >= max {
			break
		}
	}
	return found
}

// NewDeck returns the ordered deck 0..size-1.
func NewDeck(size int) []domain.CardID {
	deck := make([]domain.CardID, size)
	for i := range deck {
		deck[i] = domain.CardID(i)
	}
	return deck
}

// Shuffle permutes the deck in place.
func Shuffle(rng *rand.Rand, deck []domain.CardID) {
	rng.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
}
