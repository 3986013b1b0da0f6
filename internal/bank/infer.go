package bank

import "strings"

// inferAnswers finalizes the Answer and Type columns of a normalized table.
//
// Marker inference runs only when the Answer column is absent or blank on
// every row: each option cell starting with "*" contributes its position
// letter, and the marker (plus trailing whitespace) is stripped from the
// stored text. A partially filled Answer column suppresses inference for the
// whole table, including rows that carry markers; that all-or-nothing rule
// matches the source data convention and is kept on purpose.
//
// Explicit answers are uppercased and stripped of embedded whitespace. Rows
// without a usable Type end up as SC.
func inferAnswers(t *table) {
	if !answeredAnywhere(t) {
		for _, row := range t.rows {
			var stars []string
			for i, oc := range t.optionCols {
				text := strings.TrimSpace(row[oc])
				if strings.HasPrefix(text, "*") {
					stars = append(stars, positionLetter(i))
					row[oc] = strings.TrimSpace(strings.TrimLeft(text, "* "))
				}
			}
			row["Answer"] = strings.Join(stars, "")
			if !t.hasType {
				if len(stars) > 1 {
					row["Type"] = "MC"
				} else {
					row["Type"] = "SC"
				}
			}
		}
		t.hasAnswer = true
		t.hasType = true
	}

	for _, row := range t.rows {
		row["Answer"] = strings.ToUpper(strings.ReplaceAll(row["Answer"], " ", ""))
		typ := strings.ToUpper(strings.TrimSpace(row["Type"]))
		if typ == "" {
			typ = "SC"
		}
		row["Type"] = typ
	}
	t.hasType = true
}

// answeredAnywhere reports whether the Answer column exists and carries a
// value on at least one row.
func answeredAnywhere(t *table) bool {
	if !t.hasAnswer {
		return false
	}
	for _, row := range t.rows {
		if strings.TrimSpace(row["Answer"]) != "" {
			return true
		}
	}
	return false
}
