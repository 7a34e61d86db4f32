package pipeline

// interleave places silence between consecutive clips: never before the first
// clip or after the last. An empty silence path returns clips unchanged.
func interleave(clips []string, silence string) []string {
	if silence == "" || len(clips) < 2 {
		return clips
	}
	out := make([]string, 0, 2*len(clips)-1)
	for i, c := range clips {
		if i > 0 {
			out = append(out, silence)
		}
		out = append(out, c)
	}
	return out
}
