// Package dag holds the dependency-graph bookkeeping the execution core is
// built on: adjacency lists with per-node in-degree, Kahn's-algorithm
// ordering (whole graph or an arbitrary subset), a cycle-tolerant ordering
// for replay planning, iterative reachability, and dependency layering for
// the parallel execution mode.
//
// The package is deliberately tolerant of malformed input: duplicate nodes
// and edges are deduplicated, edges touching unknown nodes are ignored, and
// cycles do not make construction fail. Sort reports cycle participants
// explicitly instead of silently dropping them.
package dag
