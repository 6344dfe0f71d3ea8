package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/joshuapare/offheap/buffer"
	"github.com/joshuapare/offheap/internal/simd"
	"github.com/joshuapare/offheap/native"
)

var (
	fillType       string
	fillLength     int
	fillValue      float64
	fillMultiplier float64
)

func init() {
	cmd := newFillCmd()
	cmd.Flags().StringVar(&fillType, "type", "int32", "Element type: int32, int64, float32 or float64")
	cmd.Flags().IntVar(&fillLength, "length", 1_000_003, "Number of elements")
	cmd.Flags().Float64Var(&fillValue, "value", 7, "Fill value")
	cmd.Flags().Float64Var(&fillMultiplier, "multiplier", 3, "Vector multiplier")
	rootCmd.AddCommand(cmd)
}

func newFillCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fill",
		Short: "Fill and multiply a fixed buffer, then verify it",
		Long: `The fill command allocates a fixed buffer, fills it with --value,
multiplies it by --multiplier with the vector path, checks every element
and frees the buffer.

Example:
  bufctl fill --type int32 --length 1000003 --value 7 --multiplier 3
  bufctl fill --type float64 --allocator arena --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFill()
		},
	}
	return cmd
}

type fillResult struct {
	Allocator   string        `json:"allocator"`
	Type        string        `json:"type"`
	Length      int           `json:"length"`
	Bytes       uint64        `json:"bytes"`
	SIMDWidth   int           `json:"simd_width"`
	Expected    string        `json:"expected"`
	Mismatches  int           `json:"mismatches"`
	Outstanding int64         `json:"outstanding"`
	Elapsed     time.Duration `json:"elapsed_ns"`
}

func runFill() error {
	a, err := newAllocator()
	if err != nil {
		return err
	}
	defer closeAllocator(a)

	var res *fillResult
	switch fillType {
	case "int32":
		res, err = fillTyped[int32](a, fillLength, fillValue, fillMultiplier)
	case "int64":
		res, err = fillTyped[int64](a, fillLength, fillValue, fillMultiplier)
	case "float32":
		res, err = fillTyped[float32](a, fillLength, fillValue, fillMultiplier)
	case "float64":
		res, err = fillTyped[float64](a, fillLength, fillValue, fillMultiplier)
	default:
		return fmt.Errorf("unsupported --type %q", fillType)
	}
	if err != nil {
		return err
	}
	res.Allocator = a.Name()
	res.Type = fillType

	if jsonOut {
		return printJSON(res)
	}
	printInfo("filled %d %s elements (%s) in %s\n",
		res.Length, res.Type, humanize.IBytes(res.Bytes), res.Elapsed.Round(time.Microsecond))
	printVerbose("  simd width: %d lanes of a %d-byte register\n", res.SIMDWidth, simd.VectorBytes())
	printInfo("  expected:   %s\n", res.Expected)
	printInfo("  mismatches: %d\n", res.Mismatches)
	printInfo("  outstanding allocations after free: %d\n", res.Outstanding)
	if res.Mismatches > 0 {
		return fmt.Errorf("%d elements differ from %s", res.Mismatches, res.Expected)
	}
	return nil
}

func fillTyped[T buffer.Number](a native.Allocator, length int, value, multiplier float64) (*fillResult, error) {
	start := time.Now()
	b, err := buffer.NewFixed[T](a, length)
	if err != nil {
		return nil, err
	}
	printVerbose("allocated %s\n", b)

	v, m := T(value), T(multiplier)
	want := v * m
	if err := b.Fill(v); err != nil {
		return nil, err
	}
	if err := buffer.VectorMultiply(b, m); err != nil {
		return nil, err
	}

	span, err := b.AcquireSpan()
	if err != nil {
		return nil, err
	}
	mismatches := 0
	for _, got := range span.Data() {
		if got != want {
			mismatches++
		}
	}
	span.Release()

	if err := b.Close(); err != nil {
		return nil, err
	}
	return &fillResult{
		Length:      length,
		Bytes:       b.Identity().Size(),
		SIMDWidth:   buffer.SIMDWidth[T](),
		Expected:    fmt.Sprint(want),
		Mismatches:  mismatches,
		Outstanding: native.Outstanding(),
		Elapsed:     time.Since(start),
	}, nil
}
