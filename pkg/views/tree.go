package views

import "strings"

// entry is a compiled route stored at a terminal tree node.
type entry struct {
	route   Route
	pattern *pattern
}

// node is a node in the matching tree. Candidates are tried in precedence
// order: static text, constrained parameters, plain parameters, catch-alls.
type node struct {
	seg       segment
	static    []*node
	params    []*node
	catchAlls []*node
	entry     *entry
}

func (n *node) insert(p *pattern, e *entry, sensitive bool) error {
	current := n
	for _, seg := range p.segments {
		switch seg.kind {
		case segmentStatic:
			current = current.staticChild(seg, sensitive)
		case segmentParam:
			current = dynamicChild(&current.params, seg)
		case segmentCatchAll:
			current = dynamicChild(&current.catchAlls, seg)
		}
	}

	if current.entry != nil {
		return ErrDuplicatePattern
	}
	current.entry = e
	return nil
}

func (n *node) staticChild(seg segment, sensitive bool) *node {
	for _, child := range n.static {
		if sameText(child.seg.text, seg.text, sensitive) {
			return child
		}
	}
	child := &node{seg: seg}
	n.static = append(n.static, child)
	return child
}

// dynamicChild finds or adds a parameter node keyed by constraint source.
// Constrained nodes are kept ahead of unconstrained ones.
func dynamicChild(list *[]*node, seg segment) *node {
	for _, child := range *list {
		if child.seg.source == seg.source && child.seg.allowEmpty == seg.allowEmpty {
			return child
		}
	}

	child := &node{seg: seg}
	if seg.constraint == nil {
		*list = append(*list, child)
		return child
	}

	i := 0
	for i < len(*list) && (*list)[i].seg.constraint != nil {
		i++
	}
	*list = append(*list, nil)
	copy((*list)[i+1:], (*list)[i:])
	(*list)[i] = child
	return child
}

// match walks the tree with decoded path segments and returns the matched
// entry along with positional parameter values.
func (n *node) match(segments []string, values []string, sensitive bool) (*entry, []string, bool) {
	if len(segments) == 0 {
		if n.entry != nil {
			return n.entry, values, true
		}
		for _, child := range n.catchAlls {
			if child.seg.allowEmpty && child.entry != nil {
				return child.entry, appendValue(values, ""), true
			}
		}
		return nil, nil, false
	}

	head, rest := segments[0], segments[1:]

	for _, child := range n.static {
		if !sameText(child.seg.text, head, sensitive) {
			continue
		}
		if e, vals, ok := child.match(rest, values, sensitive); ok {
			return e, vals, true
		}
	}

	for _, child := range n.params {
		if !child.seg.matches(head) {
			continue
		}
		if e, vals, ok := child.match(rest, appendValue(values, head), sensitive); ok {
			return e, vals, true
		}
	}

	for _, child := range n.catchAlls {
		if child.entry == nil || !matchesAll(child.seg, segments) {
			continue
		}
		return child.entry, appendValue(values, strings.Join(segments, "/")), true
	}

	return nil, nil, false
}

func sameText(a, b string, sensitive bool) bool {
	if sensitive {
		return a == b
	}
	return strings.EqualFold(a, b)
}

func matchesAll(seg segment, segments []string) bool {
	for _, s := range segments {
		if !seg.matches(s) {
			return false
		}
	}
	return true
}

// appendValue never writes into the caller's backing array so sibling
// branches can backtrack safely.
func appendValue(values []string, v string) []string {
	return append(values[:len(values):len(values)], v)
}
