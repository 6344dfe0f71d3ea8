package main

import (
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/joshuapare/offheap/buffer"
	"github.com/joshuapare/offheap/native"
)

var (
	stressWorkers int
	stressRounds  int
	stressLength  int
)

func init() {
	cmd := newStressCmd()
	cmd.Flags().IntVar(&stressWorkers, "workers", runtime.GOMAXPROCS(0), "Concurrent workers per round")
	cmd.Flags().IntVar(&stressRounds, "rounds", 100, "Number of buffers to race over")
	cmd.Flags().IntVar(&stressLength, "length", 4096, "Elements per buffer")
	rootCmd.AddCommand(cmd)
}

func newStressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Race Acquire/Release against Free",
		Long: `The stress command allocates one buffer per round and lets every worker
acquire a span, write to it, release it and then try to free the buffer.
Exactly one Free must succeed per round.

Example:
  bufctl stress --workers 16 --rounds 1000
  bufctl stress --allocator arena --arena-size 64MiB --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStress()
		},
	}
	return cmd
}

type stressResult struct {
	Allocator      string        `json:"allocator"`
	Workers        int           `json:"workers"`
	Rounds         int           `json:"rounds"`
	Acquires       int64         `json:"acquires"`
	RejectedAcqs   int64         `json:"rejected_acquires"`
	RefusedFrees   int64         `json:"refused_frees"`
	RacedFreeWins  int           `json:"raced_free_wins"`
	Outstanding    int64         `json:"outstanding"`
	Elapsed        time.Duration `json:"elapsed_ns"`
	FreedOnceEvery bool          `json:"freed_once_every_round"`
}

func runStress() error {
	if stressWorkers < 1 || stressRounds < 1 {
		return fmt.Errorf("--workers and --rounds must be positive")
	}
	a, err := newAllocator()
	if err != nil {
		return err
	}
	defer closeAllocator(a)

	res := &stressResult{
		Allocator:      a.Name(),
		Workers:        stressWorkers,
		Rounds:         stressRounds,
		FreedOnceEvery: true,
	}
	start := time.Now()
	for round := range stressRounds {
		wins, err := stressRound(a, res)
		if err != nil {
			return fmt.Errorf("round %d: %w", round, err)
		}
		if wins > 1 {
			res.FreedOnceEvery = false
		}
		if wins == 1 {
			res.RacedFreeWins++
		}
	}
	res.Elapsed = time.Since(start)
	res.Outstanding = a.Stats().Outstanding

	if jsonOut {
		if err := printJSON(res); err != nil {
			return err
		}
	} else {
		printInfo("%d rounds x %d workers in %s\n", res.Rounds, res.Workers, res.Elapsed.Round(time.Millisecond))
		printInfo("  acquires:          %d\n", res.Acquires)
		printInfo("  rejected acquires: %d\n", res.RejectedAcqs)
		printInfo("  refused frees:     %d\n", res.RefusedFrees)
		printVerbose("  raced free wins:   %d\n", res.RacedFreeWins)
		printInfo("  outstanding:       %d\n", res.Outstanding)
	}
	if !res.FreedOnceEvery {
		return errors.New("a buffer was freed more than once")
	}
	if res.Outstanding != 0 {
		return fmt.Errorf("%d allocations leaked", res.Outstanding)
	}
	return nil
}

// stressRound races the workers over one buffer and returns how many of
// their Free calls succeeded. A buffer no worker managed to free is freed
// afterwards.
func stressRound(a native.Allocator, res *stressResult) (int, error) {
	b, err := buffer.NewFixed[int64](a, stressLength)
	if err != nil {
		return 0, err
	}

	var wins, acquires, rejected, refused atomic.Int64
	var g errgroup.Group
	for w := range stressWorkers {
		g.Go(func() error {
			span, err := b.AcquireSpan()
			switch {
			case errors.Is(err, buffer.ErrInvalidHandle):
				rejected.Add(1)
			case err != nil:
				return err
			default:
				acquires.Add(1)
				data := span.Data()
				data[w%len(data)] = int64(w)
				span.Release()
			}
			if b.Free() {
				wins.Add(1)
			} else {
				refused.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	res.Acquires += acquires.Load()
	res.RejectedAcqs += rejected.Load()
	res.RefusedFrees += refused.Load()
	if wins.Load() == 0 && !b.Free() {
		return 0, fmt.Errorf("buffer %s could not be freed", b)
	}
	return int(wins.Load()), nil
}
