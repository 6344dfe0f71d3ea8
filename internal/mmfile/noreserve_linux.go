//go:build linux

package mmfile

import "golang.org/x/sys/unix"

// noReserve skips swap reservation so multi-gigabyte mappings only cost the pages touched.
const noReserve = unix.MAP_NORESERVE
