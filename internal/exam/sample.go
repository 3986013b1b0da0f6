package exam

import (
	"log/slog"
	"math/rand/v2"
	"sort"

	"github.com/lchuang/mockexam/internal/model"
)

// Options controls paper generation.
type Options struct {
	// Count is clamped to the bank size; zero or negative yields an empty
	// paper.
	Count int
	// ShuffleOptions permutes each question's options independently and
	// re-letters them from A, remapping the answer set to the new positions.
	ShuffleOptions bool
	// ShuffleOrder permutes the order of the chosen questions.
	ShuffleOrder bool
	// Rand supplies randomness for deterministic tests. Nil uses the
	// process-global source.
	Rand *rand.Rand
}

// Sample draws up to opts.Count questions from the bank without replacement
// and instantiates each as a fresh SampledQuestion. The bank itself is never
// modified; calling Sample twice yields independent papers.
func Sample(bank []model.Question, opts Options) []model.SampledQuestion {
	n := opts.Count
	if n > len(bank) {
		n = len(bank)
	}
	if n <= 0 {
		return []model.SampledQuestion{}
	}

	picked := permutation(opts.Rand, len(bank))[:n]
	if !opts.ShuffleOrder {
		// The draw is random either way; without ShuffleOrder the chosen
		// questions keep their bank order.
		sort.Ints(picked)
	}

	paper := make([]model.SampledQuestion, 0, n)
	for _, i := range picked {
		paper = append(paper, sampleOne(bank[i], opts))
	}
	return paper
}

// sampleOne builds one paper instance of a bank question: non-empty options
// only, optionally shuffled, re-lettered positionally from A, with the
// answer set remapped through the original-letter -> new-letter mapping.
func sampleOne(q model.Question, opts Options) model.SampledQuestion {
	choices := make([]model.Choice, 0, len(q.Options))
	for _, c := range q.Options {
		if c.Text == "" {
			continue
		}
		choices = append(choices, c)
	}

	if opts.ShuffleOptions {
		shuffle(opts.Rand, len(choices), func(i, j int) {
			choices[i], choices[j] = choices[j], choices[i]
		})
	}

	remap := make(map[string]string, len(choices))
	relettered := make([]model.Choice, len(choices))
	for i, c := range choices {
		letter := string(rune('A' + i))
		remap[c.Letter] = letter
		relettered[i] = model.Choice{Letter: letter, Text: c.Text}
	}

	var answer []string
	for _, orig := range q.Answer {
		mapped, ok := remap[orig]
		if !ok {
			// Pre-existing data inconsistency, not a sampler bug: the
			// answer pointed at an option that was empty.
			slog.Warn("dropping answer letter without option", "question", q.ID, "letter", orig)
			continue
		}
		answer = append(answer, mapped)
	}
	sort.Strings(answer)

	return model.SampledQuestion{
		ID:          q.ID,
		Text:        q.Text,
		Type:        q.Type,
		Choices:     relettered,
		Answer:      answer,
		Explanation: q.Explanation,
		Tag:         q.Tag,
		Image:       q.Image,
	}
}

func permutation(r *rand.Rand, n int) []int {
	if r != nil {
		return r.Perm(n)
	}
	return rand.Perm(n)
}

func shuffle(r *rand.Rand, n int, swap func(i, j int)) {
	if r != nil {
		r.Shuffle(n, swap)
		return
	}
	rand.Shuffle(n, swap)
}
