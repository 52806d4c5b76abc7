// Package calq implements the simulator's event scheduler: a hashed-bucket
// calendar queue giving amortized O(1) schedule, cancel, renumber, and
// extract-earliest under very large event counts.
//
// The queue holds at most one entry per actor index. An actor is identified
// by a positive int; index 0 is reserved and never scheduled. Entries due
// in the same bucket dispatch earliest-instant-first, ties broken FIFO by
// schedule order.
package calq

import "fmt"

const none = 0 // marks an empty bucket head/tail or an unused P-link

// Queue is a hashed-bucket calendar queue over a fixed ring of buckets.
// The zero value is not usable; construct one with New.
type Queue struct {
	head   []int  // bucket head: first actor index in the bucket's FIFO list
	tail   []int  // bucket tail: last actor index, for O(1) append
	sorted []bool // per-bucket: true if the bucket's list is instant-sorted

	next []int     // P[i]: next-in-bucket link for actor i, or none
	at   []float64 // T[i]: scheduled instant for actor i
	live []bool    // whether actor i currently has a queue entry

	qt0, qt1 float64 // cycle window [Qt0, Qt1)
	qw       float64 // Qt1 - Qt0
	qi       int     // index of the currently-dispatching bucket
	count    int     // Qe: total live scheduled events

	clock   float64
	horizon float64
	hasHrzn bool
}

// New allocates a Queue with b buckets, able to hold entries for actor
// indices in [1, maxActor].
func New(b, maxActor int) *Queue {
	if b < 1 {
		panic("calq: bucket count must be positive")
	}
	q := &Queue{
		head:   make([]int, b),
		tail:   make([]int, b),
		sorted: make([]bool, b),
		next:   make([]int, maxActor+1),
		at:     make([]float64, maxActor+1),
		live:   make([]bool, maxActor+1),
	}
	return q
}

// Clock returns the simulated instant last reached by Next, or the instant
// passed to StartTime if Next has not yet been called.
func (q *Queue) Clock() float64 { return q.clock }

// Len returns the number of entries currently scheduled.
func (q *Queue) Len() int { return q.count }

// SetHorizon bounds Next: once the earliest pending instant reaches t, Next
// reports "none" without consuming that entry.
func (q *Queue) SetHorizon(t float64) {
	q.horizon = t
	q.hasHrzn = true
}

// StartTime positions the cycle window of width qw so that t0 falls safely
// inside bucket 0 rather than at the edge of the last bucket, and resets
// the dispatch cursor. The queue must be empty.
func (q *Queue) StartTime(t0, qw float64) {
	if q.count != 0 {
		panic("calq: StartTime requires an empty queue")
	}
	if qw <= 0 {
		panic("calq: cycle width must be positive")
	}
	q.qw = qw
	bucketWidth := qw / float64(len(q.head))
	q.qt0 = t0 - bucketWidth/2
	q.qt1 = q.qt0 + qw
	q.qi = 0
	q.clock = t0
}

func (q *Queue) bucketOf(te float64) int {
	frac := (te - q.qt0) / q.qw
	frac -= wholePart(frac)
	b := int(frac * float64(len(q.head)))
	if b >= len(q.head) {
		b = len(q.head) - 1
	}
	if b < 0 {
		b = 0
	}
	return b
}

// wholePart returns the largest integer <= x, i.e. floor, without pulling in
// the math package for a single operation used only on the hot path.
func wholePart(x float64) float64 {
	i := float64(int64(x))
	if x < 0 && i != x {
		i--
	}
	return i
}

// Schedule inserts actor i at instant te. i must not already be scheduled
// and te must not precede the current clock.
func (q *Queue) Schedule(i int, te float64) {
	if q.live[i] {
		panic(fmt.Sprintf("calq: schedule called on already-scheduled actor %d", i))
	}
	if te < q.clock {
		panic(fmt.Sprintf("calq: schedule(%d, %g) precedes current clock %g", i, te, q.clock))
	}
	b := q.bucketOf(te)
	q.next[i] = none
	if q.head[b] == none {
		q.head[b] = i
	} else {
		q.next[q.tail[b]] = i
	}
	q.tail[b] = i
	q.at[i] = te
	q.live[i] = true
	q.sorted[b] = false
	q.count++
}

// Cancel removes actor i's queue entry. i must currently be scheduled.
//
// The expected bucket is recomputed from T[i]; because repeated cycle
// rollovers can accumulate enough floating-point drift to shift the
// recomputed residue by one bucket from where the entry actually lives,
// cancel also scans the immediate ±1 neighbors (mod bucket count) before
// declaring a fatal inconsistency.
func (q *Queue) Cancel(i int) {
	if !q.live[i] {
		panic(fmt.Sprintf("calq: cancel called on unscheduled actor %d", i))
	}
	b := q.bucketOf(q.at[i])
	n := len(q.head)
	for _, cand := range [3]int{b, (b - 1 + n) % n, (b + 1) % n} {
		if q.unlinkFrom(cand, i) {
			q.live[i] = false
			q.next[i] = none
			q.count--
			return
		}
	}
	panic(fmt.Sprintf("calq: fatal inconsistency: scheduled actor %d not found in bucket %d or its neighbors", i, b))
}

// unlinkFrom removes actor i from bucket b's list if present, returning
// whether it was found.
func (q *Queue) unlinkFrom(b, i int) bool {
	prev := none
	cur := q.head[b]
	for cur != none {
		if cur == i {
			if prev == none {
				q.head[b] = q.next[cur]
			} else {
				q.next[prev] = q.next[cur]
			}
			if q.tail[b] == cur {
				q.tail[b] = prev
			}
			return true
		}
		prev = cur
		cur = q.next[cur]
	}
	return false
}

// Renumber transfers the live entry for actor m to actor n at the same
// instant. m must currently be scheduled and n must not be.
func (q *Queue) Renumber(n, m int) {
	if !q.live[m] {
		panic(fmt.Sprintf("calq: renumber source %d is not scheduled", m))
	}
	if q.live[n] {
		panic(fmt.Sprintf("calq: renumber target %d is already scheduled", n))
	}
	if n == m {
		return
	}
	b := q.bucketOf(q.at[m])
	found := -1
	bucketCount := len(q.head)
	for _, cand := range [3]int{b, (b - 1 + bucketCount) % bucketCount, (b + 1) % bucketCount} {
		if q.renameIn(cand, n, m) {
			found = cand
			break
		}
	}
	if found == -1 {
		panic(fmt.Sprintf("calq: fatal inconsistency: renumber source %d not found in bucket %d or its neighbors", m, b))
	}
	q.at[n] = q.at[m]
	q.live[n] = true
	q.live[m] = false
	q.next[m] = none
	q.at[m] = 0
}

// renameIn rewrites the list-node identity in bucket b from m to n in
// place, preserving list order (and therefore FIFO tie order) exactly.
func (q *Queue) renameIn(b, n, m int) bool {
	prev := none
	cur := q.head[b]
	for cur != none {
		if cur == m {
			q.next[n] = q.next[m]
			if prev == none {
				q.head[b] = n
			} else {
				q.next[prev] = n
			}
			if q.tail[b] == m {
				q.tail[b] = n
			}
			return true
		}
		prev = cur
		cur = q.next[cur]
	}
	return false
}

// Next removes and returns the entry with the smallest scheduled instant,
// ties broken FIFO by schedule order, and advances the clock to that
// instant. It reports ok == false if the queue is empty or the earliest
// pending instant is at or beyond a horizon set with SetHorizon.
func (q *Queue) Next() (actor int, at float64, ok bool) {
	if q.count == 0 {
		return 0, 0, false
	}
	n := len(q.head)
	for {
		b := q.qi
		if q.head[b] != none {
			if !q.sorted[b] {
				q.head[b] = MergeSort(q.head[b], q.next, q.at)
				q.resync(b)
				q.sorted[b] = true
			}
			candidate := q.head[b]
			te := q.at[candidate]
			if te < q.qt1 {
				// The first entry due in the current cycle is the global
				// earliest, so only it is checked against the horizon.
				if q.hasHrzn && te >= q.horizon {
					return 0, 0, false
				}
				q.head[b] = q.next[candidate]
				if q.head[b] == none {
					q.tail[b] = none
				}
				q.next[candidate] = none
				q.live[candidate] = false
				q.count--
				q.clock = te
				return candidate, te, true
			}
			// Remaining entries in this bucket belong to a later cycle.
		}
		q.qi++
		if q.qi == n {
			q.qi = 0
			q.qt0 += q.qw
			q.qt1 += q.qw
		}
	}
}

// resync recomputes bucket b's tail pointer after a merge sort has
// relinked its list.
func (q *Queue) resync(b int) {
	cur := q.head[b]
	if cur == none {
		q.tail[b] = none
		return
	}
	for q.next[cur] != none {
		cur = q.next[cur]
	}
	q.tail[b] = cur
}
