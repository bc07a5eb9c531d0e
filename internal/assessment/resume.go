package assessment

// SelectLatest picks the authoritative prior response: the one with the
// greatest SubmittedAt, ties broken by the highest ID. Input order does not
// matter and the slice is not modified.
func SelectLatest(records []Response) (Response, bool) {
	if len(records) == 0 {
		return Response{}, false
	}
	best := records[0]
	for _, r := range records[1:] {
		switch {
		case r.SubmittedAt.After(best.SubmittedAt):
			best = r
		case r.SubmittedAt.Equal(best.SubmittedAt) && r.ID > best.ID:
			best = r
		}
	}
	return best, true
}
