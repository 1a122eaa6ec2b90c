package redact

import "sort"

// Fuse concatenates detector output for one line in heuristic, entity, rule
// order. Overlapping and duplicate findings are all kept.
func Fuse(heuristic, entities, rules []Finding) []Finding {
	n := len(heuristic) + len(entities) + len(rules)
	if n == 0 {
		return nil
	}
	out := make([]Finding, 0, n)
	out = append(out, heuristic...)
	out = append(out, entities...)
	out = append(out, rules...)
	return out
}

// Coalesce unions overlapping findings into one finding per connected
// interval. The label of the earliest finding in fusion order wins, so the
// heuristic outranks the model, which outranks the pattern table. Touching
// intervals ([0,5) and [5,9)) are not merged. The result is ordered by start.
func Coalesce(findings []Finding) []Finding {
	if len(findings) < 2 {
		return findings
	}
	type ranked struct {
		Finding
		rank int
	}
	rs := make([]ranked, len(findings))
	for i, f := range findings {
		rs[i] = ranked{Finding: f, rank: i}
	}
	sort.SliceStable(rs, func(i, j int) bool { return rs[i].Start < rs[j].Start })

	out := make([]Finding, 0, len(rs))
	cur := rs[0]
	for _, r := range rs[1:] {
		if r.Start < cur.End {
			if r.End > cur.End {
				cur.End = r.End
			}
			if r.rank < cur.rank {
				cur.rank = r.rank
				cur.Category = r.Category
			}
			continue
		}
		out = append(out, cur.Finding)
		cur = r
	}
	return append(out, cur.Finding)
}
