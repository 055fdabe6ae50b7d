// Package dag holds the dependency graph a container schedules.
//
// A Graph is an insertion-ordered set of operator nodes joined by
// directed edges. Levels assigns every node the length of the longest path
// from a root, so that all of a node's parents sit on strictly lower
// levels and one level can run concurrently once the previous one is done.
package dag
