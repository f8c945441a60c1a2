// Package propagate is a query engine that derives ternary facts by forward
// propagation through a function's nodes.
//
// Relational questions (implication, equality, one-hot) are answered by
// re-running propagation under a hypothetical bit assignment: a contradiction
// proves the assignment impossible. Every answer is sound; most are far from
// complete.
package propagate
