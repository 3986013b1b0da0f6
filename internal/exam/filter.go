package exam

import (
	"sort"
	"strings"

	"github.com/lchuang/mockexam/internal/model"
)

// FilterByTag keeps questions whose Tag cell carries any of the picked tags.
// A Tag cell may hold several ;-separated tags. No picks means no filtering.
func FilterByTag(bank []model.Question, picked []string) []model.Question {
	if len(picked) == 0 {
		return bank
	}
	want := make(map[string]bool, len(picked))
	for _, t := range picked {
		if t = strings.TrimSpace(t); t != "" {
			want[t] = true
		}
	}
	if len(want) == 0 {
		return bank
	}

	var out []model.Question
	for _, q := range bank {
		for _, t := range splitTags(q.Tag) {
			if want[t] {
				out = append(out, q)
				break
			}
		}
	}
	return out
}

// Tags lists the distinct tags present in a bank, sorted.
func Tags(bank []model.Question) []string {
	set := make(map[string]bool)
	for _, q := range bank {
		for _, t := range splitTags(q.Tag) {
			set[t] = true
		}
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func splitTags(cell string) []string {
	var out []string
	for _, t := range strings.Split(cell, ";") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
