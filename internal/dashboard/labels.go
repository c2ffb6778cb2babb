package dashboard

// ThinLabels blanks axis labels so at most about max remain visible.
// Every ceil(n/max)-th label is kept, and the first and last always are.
// The result has the same length as dates; max <= 0 keeps everything.
func ThinLabels(dates []string, max int) []string {
	out := make([]string, len(dates))
	n := len(dates)
	if max <= 0 || n <= max {
		copy(out, dates)
		return out
	}

	step := (n + max - 1) / max
	for i, d := range dates {
		if i%step == 0 || i == n-1 {
			out[i] = d
		}
	}
	return out
}
