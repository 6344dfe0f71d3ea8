package main

import (
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/joshuapare/offheap/buffer"
	"github.com/joshuapare/offheap/native"
)

var statsKeep int

func init() {
	cmd := newStatsCmd()
	cmd.Flags().IntVar(&statsKeep, "keep", 1, "Buffers left allocated while the metrics are gathered")
	rootCmd.AddCommand(cmd)
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Run a short workload and print allocator metrics",
		Long: `The stats command allocates a few fixed, safe and huge buffers, frees
most of them, and prints the allocator's counters in the Prometheus text
exposition format.

Example:
  bufctl stats
  bufctl stats --allocator arena --keep 3
  bufctl stats --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats()
		},
	}
	return cmd
}

func runStats() error {
	a, err := newAllocator()
	if err != nil {
		return err
	}
	defer closeAllocator(a)

	var kept []interface{ Free() bool }
	defer func() {
		for _, b := range kept {
			b.Free()
		}
	}()

	for i := range 4 + statsKeep {
		var b interface{ Free() bool }
		switch i % 3 {
		case 0:
			b, err = buffer.NewFixed[float64](a, 1024)
		case 1:
			b, err = buffer.NewSafe[int32](a, 4096)
		default:
			b, err = buffer.NewHuge[uint8](a, 1<<16, nil)
		}
		if err != nil {
			return err
		}
		if i < statsKeep {
			kept = append(kept, b)
			continue
		}
		b.Free()
	}
	// a free the allocator refuses while the block is retained
	held, err := buffer.NewFixed[int64](a, 64)
	if err != nil {
		return err
	}
	held.Acquire()
	a.Free(held.Identity().Pointer())
	held.Release()
	held.Free()

	if jsonOut {
		return printJSON(a.Stats())
	}

	reg := prometheus.NewRegistry()
	if err := reg.Register(native.NewCollector(a)); err != nil {
		return err
	}
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(os.Stdout, mf); err != nil {
			return err
		}
	}
	return nil
}
