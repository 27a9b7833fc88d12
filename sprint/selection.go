package sprint

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/ivkor/sprintbot/models"
)

// DefaultBatchSize is the number of questions in a standard sprint.
const DefaultBatchSize = 5

// categoryPoolSize bounds how many least-attempted questions a category
// draw picks from, so selection stays random among fresh questions rather
// than deterministic.
const categoryPoolSize = 10

// globalPoolSize bounds the fill-step pool across all categories.
const globalPoolSize = 50

// SelectionInput carries the signals that bias a batch.
type SelectionInput struct {
	BatchSize int
	// MandatoryCategory, when set, is guaranteed up to two slots. Derived
	// from yesterday's missed flaw quiz.
	MandatoryCategory string
	// WeakCategories are granted one slot each, in rank order, while the
	// batch still has room below BatchSize-2.
	WeakCategories []string
}

// SelectBatch builds the ordered batch of questions a new session starts
// with: mandatory-category guarantees first, one draw per weak category
// next, then a global least-attempted fill, deduplicated by question ID
// throughout and shuffled at the end so priority questions are not always
// first. Categories with nothing left to offer degrade silently; only the
// store erroring is an error.
func SelectBatch(ctx context.Context, store QuestionStore, in SelectionInput) ([]models.Question, error) {
	size := in.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}

	var batch []models.Question
	picked := make(map[string]bool)

	add := func(q models.Question) {
		batch = append(batch, q)
		picked[q.ID] = true
	}

	// 1. Mandatory category: up to 2 distinct questions, drawn randomly
	// among its least-attempted pool.
	if in.MandatoryCategory != "" {
		pool, err := store.Sample(ctx, in.MandatoryCategory, categoryPoolSize)
		if err != nil {
			return nil, fmt.Errorf("sample category %q: %w", in.MandatoryCategory, err)
		}
		rand.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
		for _, q := range pool {
			if len(batch) >= 2 || len(batch) >= size {
				break
			}
			if !picked[q.ID] {
				add(q)
			}
		}
	}

	// 2. One draw per weak category while room remains below size-2.
	for _, cat := range in.WeakCategories {
		if len(batch) >= size-2 {
			break
		}
		pool, err := store.Sample(ctx, cat, categoryPoolSize)
		if err != nil {
			return nil, fmt.Errorf("sample category %q: %w", cat, err)
		}
		rand.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
		for _, q := range pool {
			if !picked[q.ID] {
				add(q)
				break
			}
		}
	}

	// 3. Fill to size from the global least-attempted pool.
	if len(batch) < size {
		pool, err := store.Sample(ctx, "", globalPoolSize)
		if err != nil {
			return nil, fmt.Errorf("sample question bank: %w", err)
		}
		var fresh []models.Question
		for _, q := range pool {
			if !picked[q.ID] {
				fresh = append(fresh, q)
			}
		}
		rand.Shuffle(len(fresh), func(i, j int) { fresh[i], fresh[j] = fresh[j], fresh[i] })
		for _, q := range fresh {
			if len(batch) >= size {
				break
			}
			add(q)
		}
	}

	// 4. Shuffle so guaranteed questions are not always first.
	rand.Shuffle(len(batch), func(i, j int) { batch[i], batch[j] = batch[j], batch[i] })
	return batch, nil
}

// IDs extracts the question IDs of a batch in order.
func IDs(batch []models.Question) []string {
	ids := make([]string, len(batch))
	for i, q := range batch {
		ids[i] = q.ID
	}
	return ids
}
