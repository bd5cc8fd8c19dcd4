// Package paged implements a growable, byte-addressable file region backed by
// fixed-size memory-mapped pages.
//
// # Layout
//
// A paged file starts with an 8-byte little-endian preamble holding the
// committed size. Logical offset 0 is physical offset [HeaderSize]. Pages are
// physical windows [p<<bits, (p+1)<<bits) so every mapping offset stays aligned
// to the OS page size; page 0 carries the preamble.
//
// # Size markers
//
// Two markers are tracked in logical bytes:
//
//   - appended: the highest offset written, possibly uncommitted
//   - committed: the highest offset published to readers and persisted in the
//     preamble
//
// committed <= appended always holds. On open both markers are taken from the
// preamble, so a tail written after the last commit is treated as garbage and
// overwritten by later appends.
//
// # Access
//
// Every primitive and bulk accessor funnels through one split routine that
// copies page by page, so values straddling a page boundary are assembled in
// little-endian order regardless of where the split falls.
//
// A File is not safe for concurrent use. Readers in other goroutines open
// their own File over the same path.
package paged
