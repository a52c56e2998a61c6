package domain

// Uptime returns the percentage of reachable records. ok is false when there
// is nothing to compute from.
func Uptime(records []HistoryRecord) (percent float64, ok bool) {
	if len(records) == 0 {
		return 0, false
	}
	up := 0
	for _, r := range records {
		if r.Reachable {
			up++
		}
	}
	return float64(up) * 100 / float64(len(records)), true
}

// LastFailure returns the most recent unreachable record, if any.
func LastFailure(records []HistoryRecord) (HistoryRecord, bool) {
	var (
		last  HistoryRecord
		found bool
	)
	for _, r := range records {
		if r.Reachable {
			continue
		}
		if !found || r.RecordedAt.After(last.RecordedAt) {
			last = r
			found = true
		}
	}
	return last, found
}
