package core

import (
	"context"
	"errors"
	"fmt"
	"log"
)

// ErrTiersExhausted is returned by Resolve when every tier failed. Features
// that define a hardcoded terminal tier never observe it.
var ErrTiersExhausted = errors.New("all fallback tiers exhausted")

// Tier is one ranked attempt in a fallback chain. Run must return an error for
// any semantically invalid result (empty text, missing required fields) so the
// resolver moves on to the next tier.
type Tier[T any] struct {
	Source string
	Run    func(ctx context.Context) (T, error)
}

// Resolve tries each tier in order and returns the first success together with
// the source tag of the tier that produced it. Tier failures are logged and
// never escape; only exhausting the whole chain is an error.
func Resolve[T any](ctx context.Context, tiers []Tier[T]) (T, string, error) {
	var zero T
	for _, tier := range tiers {
		result, err := tier.Run(ctx)
		if err != nil {
			log.Printf("fallback tier %q failed: %v", tier.Source, err)
			continue
		}
		return result, tier.Source, nil
	}
	return zero, "", fmt.Errorf("%w (%d tiers tried)", ErrTiersExhausted, len(tiers))
}
