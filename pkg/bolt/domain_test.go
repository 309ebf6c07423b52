package bolt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNodeMapperHydratesFields(t *testing.T) {
	v, err := nodeMapper([]any{int64(7), []any{"Person"}, map[string]any{"name": "ada"}})
	require.NoError(t, err)
	node := v.(*Node)
	require.Equal(t, int64(7), node.ID)
	require.Equal(t, []string{"Person"}, node.Labels)
	require.Equal(t, "ada", node.Properties["name"])
}

func TestRelationshipMapperHydratesFields(t *testing.T) {
	v, err := relationshipMapper([]any{int64(1), int64(2), int64(3), "KNOWS", map[string]any{}})
	require.NoError(t, err)
	rel := v.(*Relationship)
	require.Equal(t, int64(1), rel.ID)
	require.Equal(t, int64(2), rel.StartID)
	require.Equal(t, int64(3), rel.EndID)
	require.Equal(t, "KNOWS", rel.Type)
}

// TestPathMapperBindsRelationshipDirections exercises the scenario spec.md
// §8 walks through: nodes [N0, N1, N2], unbound rels [R1, R2], sequence
// [1, 1, -2, 2] should produce segments
//
//	(N0, R1 N0->N1, N1)
//	(N1, R2 N2->N1, N2)
//
// with Path.Start == N0 and Path.End == N2.
func TestPathMapperBindsRelationshipDirections(t *testing.T) {
	n0 := &Node{ID: 100}
	n1 := &Node{ID: 101}
	n2 := &Node{ID: 102}
	r1 := &UnboundRelationship{ID: 200, Type: "R1"}
	r2 := &UnboundRelationship{ID: 201, Type: "R2"}

	v, err := pathMapper([]any{
		[]any{n0, n1, n2},
		[]any{r1, r2},
		[]any{int64(1), int64(1), int64(-2), int64(2)},
	})
	require.NoError(t, err)
	path := v.(*Path)

	require.Same(t, n0, path.Start)
	require.Same(t, n2, path.End)
	require.Len(t, path.Segments, 2)

	seg0 := path.Segments[0]
	require.Same(t, n0, seg0.Start)
	require.Same(t, n1, seg0.End)
	require.Equal(t, int64(100), seg0.Relationship.StartID)
	require.Equal(t, int64(101), seg0.Relationship.EndID)

	seg1 := path.Segments[1]
	require.Same(t, n1, seg1.Start)
	require.Same(t, n2, seg1.End)
	require.Equal(t, int64(102), seg1.Relationship.StartID)
	require.Equal(t, int64(101), seg1.Relationship.EndID)
}

func TestPathMapperRejectsZeroRelIndex(t *testing.T) {
	n0 := &Node{ID: 1}
	n1 := &Node{ID: 2}
	_, err := pathMapper([]any{
		[]any{n0, n1},
		[]any{&UnboundRelationship{ID: 9}},
		[]any{int64(0), int64(1)},
	})
	require.Error(t, err)
}

func TestPathMapperRejectsOddSequence(t *testing.T) {
	n0 := &Node{ID: 1}
	_, err := pathMapper([]any{
		[]any{n0},
		[]any{},
		[]any{int64(1)},
	})
	require.Error(t, err)
}
