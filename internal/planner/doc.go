// Package planner computes registration plans for an ordered image sequence.
//
// A plan splits the sequence around a fixed reference image into two linear
// chains of pairwise registration jobs. The left chain walks from the fixed
// image towards index 0, the right chain walks towards the last index. Each
// chain is ordered innermost first, which is also its execution order.
//
// Planning is pure: it never touches the filesystem or the registration tool.
package planner
