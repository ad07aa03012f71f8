// Command bfssim drives a toy multi-CPU simulation of the bfs scheduler:
// one goroutine per simulated CPU, a pool of synthetic tasks spread across
// a mix of policies, and a periodic tick loop, so the dispatcher's
// behavior can be observed and tuned outside of a unit test.
//
// Run with: go run ./cmd/bfssim/ -cpus 4 -tasks 40
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/KimMachineGun/automemlimit/memlimit"
	"go.uber.org/automaxprocs/maxprocs"
	"golang.org/x/sync/errgroup"

	bfs "github.com/go-bfs/scheduler"
)

func main() {
	cpusFlag := flag.Int("cpus", 4, "number of simulated CPUs")
	tasksFlag := flag.Int("tasks", 40, "number of synthetic tasks to create")
	durationFlag := flag.Duration("duration", 5*time.Second, "how long to run the simulation")
	affinityFlag := flag.Bool("bind-os-threads", false, "pin each simulated CPU's goroutine to a real OS thread via sched_setaffinity")
	flag.Parse()

	undoMaxProcs, err := maxprocs.Set(maxprocs.Logger(func(string, ...any) {}))
	if err != nil {
		fmt.Printf("bfssim: automaxprocs: %v\n", err)
	}
	defer undoMaxProcs()

	if _, err := memlimit.SetGoMemLimitWithOpts(
		memlimit.WithRatio(0.9),
		memlimit.WithProvider(memlimit.FromCgroup),
	); err != nil {
		fmt.Printf("bfssim: automemlimit: %v (continuing without a derived GOMEMLIMIT)\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *cpusFlag, *tasksFlag, *durationFlag, *affinityFlag); err != nil {
		fmt.Printf("bfssim: %v\n", err)
	}
}

func run(ctx context.Context, numCPUs, numTasks int, duration time.Duration, bindOSThreads bool) error {
	sched, err := bfs.New(
		bfs.WithNumCPUs(numCPUs),
		bfs.WithMetrics(true),
		bfs.WithOSThreadAffinity(bindOSThreads),
	)
	if err != nil {
		return fmt.Errorf("constructing scheduler: %w", err)
	}

	rng := rand.New(rand.NewSource(1))
	policies := []bfs.Policy{bfs.PolicyNormal, bfs.PolicyNormal, bfs.PolicyBatch, bfs.PolicyISO, bfs.PolicyRR}
	for i := 0; i < numTasks; i++ {
		t := sched.GRQ.NewTask()
		t.Policy = policies[rng.Intn(len(policies))]
		t.Nice = rng.Intn(40) - 20
		t.CPUsAllowed = bfs.NewAffinity(allCPUs(numCPUs)...)
		cpu := rng.Intn(numCPUs)
		sched.WakeNewTask(t, cpu)
	}

	runCtx, cancel := context.WithTimeout(ctx, duration)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)
	for cpu := 0; cpu < numCPUs; cpu++ {
		cpu := cpu
		g.Go(func() error {
			return runCPU(gctx, sched, cpu, bindOSThreads)
		})
	}

	if err := g.Wait(); err != nil && gctx.Err() == nil {
		return err
	}

	if m := sched.Metrics(); m != nil {
		m.Dispatch.Sample()
		fmt.Printf("dispatch latency p50=%s p99=%s max=%s switches/s=%.1f\n",
			m.Dispatch.P50, m.Dispatch.P99, m.Dispatch.Max, m.SwitchesPerSecond)
	}
	return nil
}

func runCPU(ctx context.Context, sched *bfs.Scheduler, cpu int, bindOSThreads bool) error {
	if bindOSThreads {
		// BindOSThread's documented precondition: the calling goroutine must
		// already own its OS thread exclusively, or the Go scheduler can
		// hand the pinned thread to a different goroutine right after we
		// set its affinity.
		runtime.LockOSThread()
		mask := bfs.NewAffinity(cpu)
		if err := bfs.BindOSThread(mask, sched.NumCPUs()); err != nil {
			return fmt.Errorf("cpu %d: %w", cpu, err)
		}
	}

	rq := sched.RQs[cpu]
	prev, ok := sched.GRQ.Task(rq.Idle)
	if !ok {
		return fmt.Errorf("cpu %d: idle task missing", cpu)
	}

	ticker := time.NewTicker(time.Duration(bfs.JiffyNS))
	defer ticker.Stop()

	lastTick := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			elapsedUS := now.Sub(lastTick).Microseconds()
			lastTick = now
			sched.Tick(cpu, elapsedUS)
		default:
		}

		start := time.Now()
		next, switched := sched.Schedule(cpu, prev)
		if m := sched.Metrics(); m != nil {
			m.Dispatch.Record(time.Since(start))
		}
		if switched {
			prev = next
		}
	}
}

func allCPUs(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
