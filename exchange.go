// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package crhs

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ParseSystem reads the textual exchange format (§6.2) from r and
// builds a System from it. The format is:
//
//	<num_unique_vars>
//	<num_bdds>
//	<bdd_id> <num_levels>
//	<lhs>:<rhs>|<lhs>:<rhs>|...|<lhs>:<rhs>|
//	---
//	... (repeated per bdd)
//
// where <lhs> is "v1+v2+...+vk" (empty for the terminal level) and
// <rhs> is a comma-separated list of "(id;zero_target,one_target)"
// node descriptors, 0 denoting "no edge". "---" both separates BDDs
// and terminates the file.
//
// ParseSystem reports MalformedInputError when the declared variable
// count is smaller than the largest variable id used requires (a
// larger declared count is accepted), a level references a node id
// not declared at that level, a BDD violates ordering or
// reducedness, or a terminator is missing; every such case is
// distinguishable by inspecting the returned error's Reason.
func ParseSystem(r io.Reader, opts ...Option) (*System, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<24)

	numVars, err := readIntLine(sc, "num_unique_vars")
	if err != nil {
		return nil, err
	}
	numBDDs, err := readIntLine(sc, "num_bdds")
	if err != nil {
		return nil, err
	}

	sys := NewSystem(opts...)
	maxVarSeen := -1

	for i := 0; i < numBDDs; i++ {
		spec, seen, err := parseOneBDD(sc)
		if err != nil {
			return nil, err
		}
		if seen > maxVarSeen {
			maxVarSeen = seen
		}
		if _, err := sys.AppendBDD(spec); err != nil {
			if _, ok := err.(*BudgetExceededError); !ok {
				return nil, err
			}
		}
	}
	if maxVarSeen+1 > numVars {
		return nil, malformed("exchange format: declared %d unique variables but variable %d appears", numVars, maxVarSeen)
	}
	if err := sc.Err(); err != nil {
		return nil, wrap(err, "exchange format: read error")
	}
	return sys, nil
}

func readIntLine(sc *bufio.Scanner, what string) (int, error) {
	if !sc.Scan() {
		return 0, malformed("exchange format: missing %s", what)
	}
	line := strings.TrimSpace(sc.Text())
	n, err := strconv.Atoi(line)
	if err != nil {
		return 0, malformed("exchange format: %s is not an integer: %q", what, line)
	}
	return n, nil
}

// parseOneBDD reads a "<bdd_id> <num_levels>" header, the single
// pipe-delimited levels line, and the "---" terminator, returning the
// resulting spec and the largest variable id referenced anywhere in
// it.
func parseOneBDD(sc *bufio.Scanner) (BDDSpec, int, error) {
	if !sc.Scan() {
		return BDDSpec{}, -1, malformed("exchange format: missing bdd header")
	}
	header := strings.Fields(strings.TrimSpace(sc.Text()))
	if len(header) != 2 {
		return BDDSpec{}, -1, malformed("exchange format: malformed bdd header %q", sc.Text())
	}
	id, err := strconv.Atoi(header[0])
	if err != nil {
		return BDDSpec{}, -1, malformed("exchange format: bdd id is not an integer: %q", header[0])
	}
	numLevels, err := strconv.Atoi(header[1])
	if err != nil {
		return BDDSpec{}, -1, malformed("exchange format: level count is not an integer: %q", header[1])
	}

	if !sc.Scan() {
		return BDDSpec{}, -1, malformed("bdd %d: missing levels line", id)
	}
	levels, maxVar, err := parseLevelsLine(id, sc.Text())
	if err != nil {
		return BDDSpec{}, -1, err
	}
	if len(levels) != numLevels {
		return BDDSpec{}, -1, malformed("bdd %d: header declares %d levels but %d were found", id, numLevels, len(levels))
	}

	if !sc.Scan() {
		return BDDSpec{}, -1, malformed("bdd %d: missing --- terminator", id)
	}
	if strings.TrimSpace(sc.Text()) != "---" {
		return BDDSpec{}, -1, malformed("bdd %d: expected --- terminator, found %q", id, sc.Text())
	}

	return BDDSpec{ID: id, Levels: levels}, maxVar, nil
}

// parseLevelsLine splits "<lhs>:<rhs>|<lhs>:<rhs>|...|" into its
// per-level LevelSpecs.
func parseLevelsLine(bddID int, line string) ([]LevelSpec, int, error) {
	line = strings.TrimRight(strings.TrimSpace(line), "|")
	if line == "" {
		return nil, -1, malformed("bdd %d: empty levels line", bddID)
	}
	fields := strings.Split(line, "|")
	levels := make([]LevelSpec, len(fields))
	maxVar := -1
	for i, f := range fields {
		lv, mv, err := parseOneLevel(bddID, i, f)
		if err != nil {
			return nil, -1, err
		}
		levels[i] = lv
		if mv > maxVar {
			maxVar = mv
		}
	}
	return levels, maxVar, nil
}

func parseOneLevel(bddID, idx int, field string) (LevelSpec, int, error) {
	parts := strings.SplitN(field, ":", 2)
	if len(parts) != 2 {
		return LevelSpec{}, -1, malformed("bdd %d level %d: expected <lhs>:<rhs>, found %q", bddID, idx, field)
	}
	lhs, maxVar, err := parseLHS(bddID, idx, parts[0])
	if err != nil {
		return LevelSpec{}, -1, err
	}
	nodes, err := parseRHS(bddID, idx, parts[1])
	if err != nil {
		return LevelSpec{}, -1, err
	}
	return LevelSpec{LHS: lhs, Nodes: nodes}, maxVar, nil
}

func parseLHS(bddID, idx int, s string) ([]int, int, error) {
	if s == "" {
		return nil, -1, nil
	}
	terms := strings.Split(s, "+")
	lhs := make([]int, len(terms))
	maxVar := -1
	for i, t := range terms {
		v, err := strconv.Atoi(t)
		if err != nil {
			return nil, -1, malformed("bdd %d level %d: lhs term %q is not an integer", bddID, idx, t)
		}
		lhs[i] = v
		if v > maxVar {
			maxVar = v
		}
	}
	return lhs, maxVar, nil
}

func parseRHS(bddID, idx int, s string) ([]NodeSpec, error) {
	if s == "" {
		return nil, malformed("bdd %d level %d: empty rhs", bddID, idx)
	}
	// Each descriptor carries a comma of its own between its two
	// targets, so descriptors are split only after a closing ")".
	descs := strings.SplitAfter(s, "),")
	nodes := make([]NodeSpec, len(descs))
	for i, d := range descs {
		n, err := parseNodeDescriptor(bddID, idx, strings.TrimSuffix(d, ","))
		if err != nil {
			return nil, err
		}
		nodes[i] = n
	}
	return nodes, nil
}

// parseNodeDescriptor parses "(id;zero_target,one_target)".
func parseNodeDescriptor(bddID, idx int, s string) (NodeSpec, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "(") || !strings.HasSuffix(s, ")") {
		return NodeSpec{}, malformed("bdd %d level %d: malformed node descriptor %q", bddID, idx, s)
	}
	body := s[1 : len(s)-1]
	idTargets := strings.SplitN(body, ";", 2)
	if len(idTargets) != 2 {
		return NodeSpec{}, malformed("bdd %d level %d: malformed node descriptor %q", bddID, idx, s)
	}
	id, err := strconv.Atoi(idTargets[0])
	if err != nil {
		return NodeSpec{}, malformed("bdd %d level %d: node id %q is not an integer", bddID, idx, idTargets[0])
	}
	targets := strings.SplitN(idTargets[1], ",", 2)
	if len(targets) != 2 {
		return NodeSpec{}, malformed("bdd %d level %d: node %d: expected two targets, found %q", bddID, idx, id, idTargets[1])
	}
	zero, err := strconv.Atoi(targets[0])
	if err != nil {
		return NodeSpec{}, malformed("bdd %d level %d: node %d: zero target %q is not an integer", bddID, idx, id, targets[0])
	}
	one, err := strconv.Atoi(targets[1])
	if err != nil {
		return NodeSpec{}, malformed("bdd %d level %d: node %d: one target %q is not an integer", bddID, idx, id, targets[1])
	}
	return NodeSpec{ID: id, Zero: zero, One: one}, nil
}

// WriteSystem serializes sys's BDDs, in insertion order, as the
// textual exchange format ParseSystem reads. numUniqueVars is the
// declared variable-universe size written on the first line; callers
// that round-trip a file parsed with ParseSystem should pass the same
// value back to preserve it bit-exactly even if some variables have
// since been dropped.
func WriteSystem(w io.Writer, sys *System, numUniqueVars int) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, numUniqueVars)
	fmt.Fprintln(bw, sys.BDDCount())
	for _, id := range sys.BDDIDs() {
		b := sys.bdds[id]
		if err := writeOneBDD(bw, b.toSpec()); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeOneBDD(bw *bufio.Writer, spec BDDSpec) error {
	fmt.Fprintf(bw, "%d %d\n", spec.ID, len(spec.Levels))
	var sb strings.Builder
	for _, lv := range spec.Levels {
		sb.WriteString(formatLHS(lv.LHS))
		sb.WriteByte(':')
		sb.WriteString(formatRHS(lv.Nodes))
		sb.WriteByte('|')
	}
	fmt.Fprintln(bw, sb.String())
	fmt.Fprintln(bw, "---")
	return nil
}

func formatLHS(vars []int) string {
	parts := make([]string, len(vars))
	for i, v := range vars {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, "+")
}

func formatRHS(nodes []NodeSpec) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = fmt.Sprintf("(%d;%d,%d)", n.ID, n.Zero, n.One)
	}
	return strings.Join(parts, ",")
}
