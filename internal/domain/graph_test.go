package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterEdges_DropsDanglingAndDuplicates(t *testing.T) {
	ids := map[string]bool{"a": true, "b": true, "c": true}
	edges := []GraphEdge{
		{FromNodeID: "a", ToNodeID: "b"},
		{FromNodeID: "a", ToNodeID: "b"},
		{FromNodeID: "b", ToNodeID: "zz"},
		{FromNodeID: "c", ToNodeID: "a"},
	}

	kept, dropped := FilterEdges(edges, ids)
	assert.Equal(t, []GraphEdge{{FromNodeID: "a", ToNodeID: "b"}, {FromNodeID: "c", ToNodeID: "a"}}, kept)
	assert.Equal(t, 1, dropped)
}

func TestNodeAttrsClone_DoesNotAlias(t *testing.T) {
	moduleID := "m1"
	a := NodeAttrs{Title: "x", ModuleID: &moduleID, RoleHours: []RoleHours{{Role: "pm", Hours: 1}}}
	b := a.Clone()

	*b.ModuleID = "m2"
	b.RoleHours[0].Hours = 9

	assert.Equal(t, "m1", *a.ModuleID)
	assert.Equal(t, 1.0, a.RoleHours[0].Hours)
}

func TestSnapshotValidate(t *testing.T) {
	s := Snapshot{Nodes: []SnapshotNode{{Key: "1", NodeAttrs: NodeAttrs{Title: "ok"}}}}
	require.NoError(t, s.Validate())

	s.Nodes = append(s.Nodes, SnapshotNode{Key: "", NodeAttrs: NodeAttrs{Title: "no key"}})
	err := s.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestVersionRecordHeader_StripsSnapshot(t *testing.T) {
	v := VersionRecord{ID: "v1", Title: "t", Snapshot: &Snapshot{}}
	assert.Nil(t, v.Header().Snapshot)
	assert.NotNil(t, v.Snapshot)
}
