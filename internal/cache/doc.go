// Package cache provides opt-in SQLite storage for index probe results and
// artifact digests. A cached probe saves one HTTP round trip per package;
// cached digests save artifact downloads entirely. Entries expire by TTL so
// a republished artifact is eventually re-verified.
package cache
