package bfs

import "golang.org/x/exp/slices"

// runList is one priority band's FIFO-ordered member list. The original
// kernel uses an intrusive doubly-linked list threaded through each task;
// here tasks are addressed by stable [TaskID] so a band is just an ordered
// slice of ids, which also gives O(1) index-based removal bookkeeping via
// [Task.posInBand] instead of pointer surgery.
type runList struct {
	ids []TaskID
}

// pushBack appends id to the end of the band (used by enqueue).
func (r *runList) pushBack(id TaskID) {
	r.ids = append(r.ids, id)
}

// pushFront inserts id at the front of the band (used by enqueueHead, for
// (re)arming a CPU's idle task).
func (r *runList) pushFront(id TaskID) {
	r.ids = slices.Insert(r.ids, 0, id)
}

// remove deletes the id at position pos. Callers must keep
// [Task.posInBand] consistent; see [GRQ.dequeue].
func (r *runList) remove(pos int) {
	r.ids = slices.Delete(r.ids, pos, pos+1)
}

// indexOf returns the position of id in the band, or -1.
func (r *runList) indexOf(id TaskID) int {
	return slices.Index(r.ids, id)
}

func (r *runList) empty() bool {
	return len(r.ids) == 0
}

func (r *runList) len() int {
	return len(r.ids)
}
