package bfs

// EarliestDeadlineTask implements spec.md §4.4: the O(queued) scan that
// picks the next task for cpu. The caller must hold the GRQ lock. Returns
// the idle task id (and ok=false) if nothing runnable is suitable for
// this CPU.
//
// Per spec.md §9's open question: when a band yields no affinity-matching
// candidate, the scan advances to the next *set* bit strictly greater than
// the current band index (not a blind ++idx retry of find_next_bit),
// matching the original's observed-but-undocumented behavior.
func (g *GRQ) EarliestDeadlineTask(cpu int, locality *LocalityMatrix, idleTask TaskID, rrIntervalMS int) (TaskID, bool) {
	idx := g.bitmap.firstSet(0)
	for idx < PrioLimit {
		band := &g.bands[idx]
		if rtPrio(idx) {
			for _, id := range band.ids {
				t := g.tasks[id]
				if t.CPUsAllowed.Allows(cpu) {
					return id, true
				}
			}
		} else {
			var best TaskID
			var bestDeadline int64
			found := false
			for _, id := range band.ids {
				t := g.tasks[id]
				if !t.CPUsAllowed.Allows(cpu) {
					continue
				}
				adjusted := t.Deadline + locality.CacheDistance(t.CPU, cpu, taskTimeslice(t.UserPrio(), rrIntervalMS))
				if !found || deadlineBefore(adjusted, bestDeadline) {
					best = id
					bestDeadline = adjusted
					found = true
				}
			}
			if found {
				return best, true
			}
		}
		idx = g.bitmap.firstSet(idx + 1)
	}
	return idleTask, false
}
