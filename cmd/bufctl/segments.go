package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/joshuapare/offheap/buffer"
	"github.com/joshuapare/offheap/internal/buf"
)

var (
	segmentsLength   uint64
	segmentsElemSize uint64
)

func init() {
	cmd := newSegmentsCmd()
	cmd.Flags().Uint64Var(&segmentsLength, "length", 2*buffer.MaxSegmentLen+5, "Element count of the huge buffer")
	cmd.Flags().Uint64Var(&segmentsElemSize, "elem-size", 1, "Element size in bytes, for the byte offsets")
	rootCmd.AddCommand(cmd)
}

func newSegmentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "segments",
		Short: "Show how a huge buffer is cut into segments",
		Long: `The segments command prints the segment layout of a huge buffer of
--length elements without allocating it.

Example:
  bufctl segments --length 4294967299
  bufctl segments --length 10000000000 --elem-size 8 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSegments()
		},
	}
	return cmd
}

type segmentInfo struct {
	Index  int    `json:"index"`
	Start  uint64 `json:"start"`
	End    uint64 `json:"end"`
	Len    int    `json:"len"`
	Offset uint64 `json:"byte_offset"`
}

func runSegments() error {
	if segmentsLength == 0 {
		return fmt.Errorf("--length must be positive")
	}
	total, ok := buf.MulOverflowSafe(segmentsLength, segmentsElemSize)
	if !ok {
		return fmt.Errorf("%d elements of %d bytes overflow", segmentsLength, segmentsElemSize)
	}
	segs := buffer.SegmentLayout(segmentsLength)
	out := make([]segmentInfo, len(segs))
	for i, s := range segs {
		out[i] = segmentInfo{
			Index:  s.Index,
			Start:  s.Start,
			End:    s.End(),
			Len:    s.Len,
			Offset: s.Start * segmentsElemSize,
		}
	}

	if jsonOut {
		return printJSON(out)
	}
	printInfo("%d elements in %d segments (%s)\n",
		segmentsLength, len(out), humanize.IBytes(total))
	for _, s := range out {
		printInfo("  [%d] %d..%d  len %d  offset %d\n", s.Index, s.Start, s.End, s.Len, s.Offset)
	}
	return nil
}
