package store

import (
	"context"
	"testing"

	"github.com/jmgilman/go/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRegistry_PutGetRemove(t *testing.T) {
	reg := NewMemoryRegistry()
	ctx := context.Background()

	h := NewHosted("maven", "local")
	require.NoError(t, reg.Put(h))

	got, err := reg.Get(ctx, h.Key)
	require.NoError(t, err)
	assert.Equal(t, h.Key, got.Key)

	got.Description = "mutated"
	again, err := reg.Get(ctx, h.Key)
	require.NoError(t, err)
	assert.Empty(t, again.Description, "Get must return a copy")

	assert.True(t, reg.Remove(h.Key))
	assert.False(t, reg.Remove(h.Key))

	_, err = reg.Get(ctx, h.Key)
	assert.True(t, errors.IsNotFound(err))
}

func TestMemoryRegistry_PutRejectsInvalid(t *testing.T) {
	reg := NewMemoryRegistry()

	assert.Error(t, reg.Put(nil))
	assert.Error(t, reg.Put(&ArtifactStore{}))
	assert.Error(t, reg.Put(&ArtifactStore{Key: NewKey("maven", "bogus", "x")}))
}

func TestMemoryRegistry_AllAndGroupsSorted(t *testing.T) {
	reg := NewMemoryRegistry(
		NewHosted("maven", "b"),
		NewGroup("maven", "z"),
		NewHosted("maven", "a"),
		NewGroup("maven", "y"),
	)

	var all []string
	for _, s := range reg.All() {
		all = append(all, s.Key.String())
	}
	assert.Equal(t, []string{"maven:group:y", "maven:group:z", "maven:hosted:a", "maven:hosted:b"}, all)
	assert.Equal(t, []string{"y", "z"}, names(reg.Groups()))
}

func TestMemoryRegistry_GroupsAffectedBy(t *testing.T) {
	reg := NewMemoryRegistry(
		NewHosted("maven", "x"),
		NewHosted("maven", "other"),
		NewGroup("maven", "a", key("maven:hosted:x")),
		NewGroup("maven", "b", key("maven:group:a")),
		NewGroup("maven", "c", key("maven:group:b"), key("maven:hosted:other")),
		NewGroup("maven", "unrelated", key("maven:hosted:other")),
	)

	affected, err := reg.GroupsAffectedBy(context.Background(), key("maven:hosted:x"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, names(affected))

	affected, err = reg.GroupsAffectedBy(context.Background(), key("maven:group:b"))
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, names(affected))
}

func TestMemoryRegistry_GroupsAffectedByTerminatesOnCycle(t *testing.T) {
	reg := NewMemoryRegistry(
		NewHosted("maven", "x"),
		NewGroup("maven", "g1", key("maven:hosted:x"), key("maven:group:g2")),
		NewGroup("maven", "g2", key("maven:group:g1")),
	)

	affected, err := reg.GroupsAffectedBy(context.Background(), key("maven:hosted:x"))
	require.NoError(t, err)
	assert.Equal(t, []string{"g1", "g2"}, names(affected))
}

func TestMemoryRegistry_IsReadonly(t *testing.T) {
	ro := NewHosted("maven", "ro")
	ro.Readonly = true
	reg := NewMemoryRegistry(ro, NewHosted("maven", "rw"))
	ctx := context.Background()

	got, err := reg.IsReadonly(ctx, ro.Key)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = reg.IsReadonly(ctx, key("maven:hosted:rw"))
	require.NoError(t, err)
	assert.False(t, got)

	_, err = reg.IsReadonly(ctx, key("maven:hosted:missing"))
	assert.True(t, errors.IsNotFound(err))
}
