// Package mmfile provides platform-specific helpers for anonymous memory mappings.
package mmfile
