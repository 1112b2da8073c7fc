// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

/*
Package crhs implements a Compressed-Right-Hand-Side (CRHS) equation
solving engine for Boolean systems over GF(2).

Basics

A System (a "System of Compressed BDDs") is an ordered collection of
BDDs that share a common universe of variables; its solution set is the
intersection of the solution sets of its BDDs. A BDD here is not the
classical one-variable-per-node ROBDD: every level is annotated with a
linear combination ("lhs") over GF(2), and a root-to-sink path fixes one
right-hand-side value for every level's equation it crosses.

The package exposes a small set of invariant-preserving mutators on a
System (Swap, Absorb, Join, Drop, Fix) and two ready-made strategies
(LinearAbsorption, DropStrategy) that drive a System toward a solved
form by composing them. Callers build BDDs through AppendBDD or by
parsing the textual exchange format; raw node identifiers never escape
the package except through the debug dump routines and the exchange
format written by WriteSystem.

Automatic memory management

Nodes are allocated from a per-BDD arena of small integer handles, with
freed slots reused by the canonicalization performed during swap and
absorb. There is no cross-BDD sharing of nodes: two BDDs never reference
each other's node ids, only the same variable universe.
*/
package crhs
