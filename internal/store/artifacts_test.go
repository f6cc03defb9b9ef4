package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/postforge/postforge/internal/types"
)

func TestWriteArtifactAndReadBack(t *testing.T) {
	st := newOpenTestStore(t)

	a, err := st.WriteArtifact("p1", types.StageListing, "json", []byte(`{"title":"x"}`))
	require.NoError(t, err)
	require.NotEmpty(t, a.ID)
	require.Equal(t, int64(len(`{"title":"x"}`)), a.SizeBytes)

	data, err := st.ReadArtifact(a.ID)
	require.NoError(t, err)
	require.Equal(t, `{"title":"x"}`, string(data))
}

func TestWriteArtifact_DistinctStagesDoNotCollide(t *testing.T) {
	st := newOpenTestStore(t)
	a1, err := st.WriteArtifact("p1", types.StageSpec, "json", []byte("a"))
	require.NoError(t, err)
	a2, err := st.WriteArtifact("p1", types.StageContent, "json", []byte("b"))
	require.NoError(t, err)
	require.NotEqual(t, a1.Path, a2.Path)
}

func TestListArtifacts(t *testing.T) {
	st := newOpenTestStore(t)
	_, err := st.WriteArtifact("p1", types.StageSpec, "json", []byte("spec"))
	require.NoError(t, err)
	_, err = st.WriteArtifact("p1", types.StageListing, "json", []byte("listing"))
	require.NoError(t, err)

	artifacts, err := st.ListArtifacts("p1")
	require.NoError(t, err)
	require.Len(t, artifacts, 2)
}
