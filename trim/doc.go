// Package trim implements the per-read trimming steps applied to reverse
// reads before they are kept: quality trimming of the 3' end and removal of
// trailing homopolymer adaptor runs.
package trim
