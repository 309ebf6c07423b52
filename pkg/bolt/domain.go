package bolt

import (
	"fmt"

	"github.com/orneryd/nornic-bolt/pkg/bolt/packstream"
)

// Structure signatures for the domain types PackStream structures hydrate
// into, per spec.md §3.
const (
	sigNode                 = 0x4E
	sigRelationship         = 0x52
	sigUnboundRelationship  = 0x72
	sigPath                 = 0x50
)

// Node is a graph node hydrated from a PackStream structure (signature 0x4E).
type Node struct {
	ID         int64
	Labels     []string
	Properties map[string]any
}

// Relationship is a fully bound graph relationship (signature 0x52).
type Relationship struct {
	ID         int64
	StartID    int64
	EndID      int64
	Type       string
	Properties map[string]any
}

// UnboundRelationship carries no endpoints; Path hydration binds it to a
// Relationship in place (signature 0x72).
type UnboundRelationship struct {
	ID         int64
	Type       string
	Properties map[string]any
}

// PathSegment is one hop of a hydrated Path: a start node, the relationship
// traversed (in the direction traveled), and the node arrived at.
type PathSegment struct {
	Start        *Node
	Relationship *Relationship
	End          *Node
}

// Path is a graph path hydrated from its wire form (nodes, rels, sequence)
// per spec.md §3 (signature 0x50).
type Path struct {
	Start    *Node
	End      *Node
	Segments []PathSegment
}

func stringList(v any) ([]string, error) {
	raw, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("bolt: expected list, got %T", v)
	}
	out := make([]string, len(raw))
	for i, item := range raw {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("bolt: expected string element, got %T", item)
		}
		out[i] = s
	}
	return out, nil
}

func asMap(v any) (map[string]any, error) {
	if v == nil {
		return map[string]any{}, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("bolt: expected map, got %T", v)
	}
	return m, nil
}

func asInt64(v any) (int64, error) {
	i, ok := v.(int64)
	if !ok {
		return 0, fmt.Errorf("bolt: expected integer, got %T", v)
	}
	return i, nil
}

func asString(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("bolt: expected string, got %T", v)
	}
	return s, nil
}

func nodeMapper(fields []any) (any, error) {
	if len(fields) != 3 {
		return nil, fmt.Errorf("bolt: Node structure expects 3 fields, got %d", len(fields))
	}
	id, err := asInt64(fields[0])
	if err != nil {
		return nil, err
	}
	labels, err := stringList(fields[1])
	if err != nil {
		return nil, err
	}
	props, err := asMap(fields[2])
	if err != nil {
		return nil, err
	}
	return &Node{ID: id, Labels: labels, Properties: props}, nil
}

func relationshipMapper(fields []any) (any, error) {
	if len(fields) != 5 {
		return nil, fmt.Errorf("bolt: Relationship structure expects 5 fields, got %d", len(fields))
	}
	id, err := asInt64(fields[0])
	if err != nil {
		return nil, err
	}
	startID, err := asInt64(fields[1])
	if err != nil {
		return nil, err
	}
	endID, err := asInt64(fields[2])
	if err != nil {
		return nil, err
	}
	relType, err := asString(fields[3])
	if err != nil {
		return nil, err
	}
	props, err := asMap(fields[4])
	if err != nil {
		return nil, err
	}
	return &Relationship{ID: id, StartID: startID, EndID: endID, Type: relType, Properties: props}, nil
}

func unboundRelationshipMapper(fields []any) (any, error) {
	if len(fields) != 3 {
		return nil, fmt.Errorf("bolt: UnboundRelationship structure expects 3 fields, got %d", len(fields))
	}
	id, err := asInt64(fields[0])
	if err != nil {
		return nil, err
	}
	relType, err := asString(fields[1])
	if err != nil {
		return nil, err
	}
	props, err := asMap(fields[2])
	if err != nil {
		return nil, err
	}
	return &UnboundRelationship{ID: id, Type: relType, Properties: props}, nil
}

// pathMapper hydrates the wire form (nodes, rels, sequence) into a Path,
// binding each UnboundRelationship encountered during traversal into a
// fully bound Relationship in place, per spec.md §3's invariant: for a
// positive relIndex the relationship runs prev->next, for a negative one
// it runs next->prev. relIndex is 1-based and never zero.
func pathMapper(fields []any) (any, error) {
	if len(fields) != 3 {
		return nil, fmt.Errorf("bolt: Path structure expects 3 fields, got %d", len(fields))
	}
	rawNodes, ok := fields[0].([]any)
	if !ok {
		return nil, fmt.Errorf("bolt: Path nodes field is %T, want list", fields[0])
	}
	rawRels, ok := fields[1].([]any)
	if !ok {
		return nil, fmt.Errorf("bolt: Path rels field is %T, want list", fields[1])
	}
	rawSeq, ok := fields[2].([]any)
	if !ok {
		return nil, fmt.Errorf("bolt: Path sequence field is %T, want list", fields[2])
	}
	if len(rawSeq)%2 != 0 {
		return nil, fmt.Errorf("bolt: Path sequence has odd length %d", len(rawSeq))
	}

	nodes := make([]*Node, len(rawNodes))
	for i, n := range rawNodes {
		node, ok := n.(*Node)
		if !ok {
			return nil, fmt.Errorf("bolt: Path nodes[%d] is %T, want *Node", i, n)
		}
		nodes[i] = node
	}

	// rels is a private copy of the wire list: bound Relationships replace
	// their unbound entries here, so a relationship traversed twice is bound
	// once, and the caller's list is left unmodified. Entries that already
	// arrive as bound Relationships are used as they are.
	rels := make([]any, len(rawRels))
	copy(rels, rawRels)

	seq := make([]int64, len(rawSeq))
	for i, s := range rawSeq {
		v, err := asInt64(s)
		if err != nil {
			return nil, fmt.Errorf("bolt: Path sequence[%d]: %w", i, err)
		}
		seq[i] = v
	}

	if len(nodes) == 0 {
		return nil, fmt.Errorf("bolt: Path has no nodes")
	}

	path := &Path{Start: nodes[0], End: nodes[0]}
	prevNodeIdx := 0

	for i := 0; i+1 < len(seq); i += 2 {
		relIdx := seq[i]
		nextNodeIdx := int(seq[i+1])
		if relIdx == 0 {
			return nil, fmt.Errorf("bolt: Path sequence relIndex is 0, which is not valid")
		}
		if nextNodeIdx < 0 || nextNodeIdx >= len(nodes) {
			return nil, fmt.Errorf("bolt: Path sequence nextNodeIndex %d out of range", nextNodeIdx)
		}

		absIdx := relIdx
		if absIdx < 0 {
			absIdx = -absIdx
		}
		relSlot := absIdx - 1
		if relSlot < 0 || relSlot >= len(rels) {
			return nil, fmt.Errorf("bolt: Path sequence relIndex %d out of range", relIdx)
		}

		prevNode := nodes[prevNodeIdx]
		nextNode := nodes[nextNodeIdx]

		rel, err := bindRelationship(rels[relSlot], relIdx, prevNode, nextNode)
		if err != nil {
			return nil, err
		}
		rels[relSlot] = rel

		seg := PathSegment{Start: prevNode, Relationship: rel, End: nextNode}
		path.Segments = append(path.Segments, seg)

		prevNodeIdx = nextNodeIdx
		path.End = nextNode
	}

	return path, nil
}

// bindRelationship memoizes the binding of rel (an *UnboundRelationship or
// an already-bound *Relationship from a prior traversal) given the
// direction implied by a signed relIndex: positive means prev->next,
// negative means next->prev.
func bindRelationship(rel any, relIndex int64, prev, next *Node) (*Relationship, error) {
	switch r := rel.(type) {
	case *Relationship:
		return r, nil
	case *UnboundRelationship:
		bound := &Relationship{
			ID:         r.ID,
			Type:       r.Type,
			Properties: r.Properties,
		}
		if relIndex > 0 {
			bound.StartID = prev.ID
			bound.EndID = next.ID
		} else {
			bound.StartID = next.ID
			bound.EndID = prev.ID
		}
		return bound, nil
	default:
		return nil, fmt.Errorf("bolt: Path rels element is %T, want *UnboundRelationship", rel)
	}
}

// registerDomainMappers wires the Node/Relationship/UnboundRelationship/Path
// mappers into u, as spec.md §4.2 requires the Connection to do.
func registerDomainMappers(u *packstream.Unpacker) {
	u.RegisterMapper(sigNode, nodeMapper)
	u.RegisterMapper(sigRelationship, relationshipMapper)
	u.RegisterMapper(sigUnboundRelationship, unboundRelationshipMapper)
	u.RegisterMapper(sigPath, pathMapper)
}
