package roommodes

// FilterByType returns the modes of type t, preserving order. AllTypes
// (or the empty type) returns modes unchanged.
func FilterByType(modes []Mode, t ModeType) []Mode {
	if t == AllTypes || t == "" {
		return modes
	}
	out := make([]Mode, 0, len(modes))
	for _, m := range modes {
		if m.Type == t {
			out = append(out, m)
		}
	}
	return out
}

// ResolveModes returns the modes whose IDs appear in ids, in the order of
// modes. IDs not present in modes are ignored, so a selection survives a
// change of dimensions or frequency ceiling.
func ResolveModes(modes []Mode, ids []string) []Mode {
	if len(ids) == 0 {
		return nil
	}
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	var out []Mode
	for _, m := range modes {
		if _, ok := want[m.ID]; ok {
			out = append(out, m)
		}
	}
	return out
}

// DefaultSelection returns the IDs of the first n modes.
func DefaultSelection(modes []Mode, n int) []string {
	if n > len(modes) {
		n = len(modes)
	}
	if n <= 0 {
		return []string{}
	}
	ids := make([]string, n)
	for i := 0; i < n; i++ {
		ids[i] = modes[i].ID
	}
	return ids
}

// IndicesOf extracts the index triples of modes.
func IndicesOf(modes []Mode) []Indices {
	out := make([]Indices, len(modes))
	for i, m := range modes {
		out[i] = m.Indices
	}
	return out
}
