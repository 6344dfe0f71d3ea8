//go:build unix && !linux

package mmfile

const noReserve = 0
