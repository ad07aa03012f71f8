// Package bfs implements the core of a BFS-style (Brain Fuck Scheduler)
// CPU scheduler: a single shared runqueue, ordered by priority band and
// virtual deadline, serving an arbitrary number of simulated CPUs.
//
// # Architecture
//
// All runnable-but-not-running tasks live in one [GRQ] (global runqueue),
// indexed by effective priority band. Each CPU is represented by a
// lightweight [Runqueue] projection describing only its currently running
// task. A task becomes runnable (fork, wake, yield) and is placed in the
// appropriate GRQ band; the [Preemptor] may then kick an idle or
// lower-priority CPU; that CPU eventually calls [Scheduler.Schedule], which
// drives the selector ([GRQ.EarliestDeadlineTask]) to pick the next task and
// performs the (simulated) context switch.
//
// # Concurrency
//
// One [sync.Mutex] (GRQ.Lock) protects the GRQ, the idle bitmap, and
// niffies. Per-CPU projection fields are single-writer: only the owning
// CPU writes them, except during the handoff at take/return, which happens
// under the GRQ lock.
//
// # Non-goals
//
// This package does not implement background load-balancing migration,
// cgroup/group scheduling, gang scheduling, or hard-realtime guarantees
// beyond best-effort RT ordering — see spec.md and SPEC_FULL.md.
package bfs
