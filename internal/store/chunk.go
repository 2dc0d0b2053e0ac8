package store

// chunks splits ids into consecutive slices of at most size elements.
// The concatenation of the returned slices equals ids.
func chunks(ids []string, size int) [][]string {
	if size <= 0 {
		size = len(ids)
	}
	if len(ids) == 0 {
		return nil
	}
	out := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		out = append(out, ids[start:end])
	}
	return out
}

func toArgs(ids []string) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
