package darn

// FilterGates returns copies of the records restricted to scatter points
// whose range gate lies within [gateMin, gateMax]. Per-gate vectors (those
// with the same length as slist) are trimmed accordingly and nrang is set to
// the width of the gate window. Records without a range gate list, or with no
// gate inside the window, are dropped. The input records are not modified.
func FilterGates(records []Record, gateMin, gateMax int) []Record {
	filtered := make([]Record, 0, len(records))
	for i := range records {
		rec := &records[i]
		if len(rec.Slist) == 0 {
			continue
		}

		keep := make([]bool, len(rec.Slist))
		var kept int
		for j, gate := range rec.Slist {
			if gate >= gateMin && gate <= gateMax {
				keep[j] = true
				kept++
			}
		}
		if kept == 0 {
			continue
		}

		c := rec.Clone()
		c.Slist = compact(c.Slist, keep, kept)
		if len(c.Gflg) == len(keep) {
			c.Gflg = compact(c.Gflg, keep, kept)
		}
		for k, vec := range c.Vectors {
			if len(vec) == len(keep) {
				c.Vectors[k] = compact(vec, keep, kept)
			}
		}
		if c.Nrang != nil {
			n := gateMax - gateMin + 1
			c.Nrang = &n
		}

		filtered = append(filtered, c)
	}
	return filtered
}

func compact[T any](vec []T, keep []bool, kept int) []T {
	out := make([]T, 0, kept)
	for i, v := range vec {
		if keep[i] {
			out = append(out, v)
		}
	}
	return out
}
