package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/qret/pkg/adapters/file"
	"github.com/aretw0/qret/pkg/domain"
	"github.com/aretw0/qret/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.SnapshotStore = (*file.Store)(nil)

func TestFileStore_Contract(t *testing.T) {
	ports.RunSnapshotStoreContract(t, file.New(t.TempDir()))
}

func TestFileStore_Atomicity(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()

	snap := domain.NewSnapshot("s1")
	snap.Transaction.ReturnItems = domain.NewReturnItems(domain.ReturnItem{ItemID: "1122", Qty: 2})
	require.NoError(t, store.Save(ctx, "s1", snap))
	require.NoError(t, store.Save(ctx, "s1", snap), "overwrite")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temp files left behind")
	assert.Equal(t, "s1.json", entries[0].Name())

	// A stray temp file is not a session.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tmp-s2-123.json"), []byte("{"), 0644))
	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, ids)
}

func TestFileStore_RejectsBadIDs(t *testing.T) {
	store := file.New(t.TempDir())
	ctx := context.Background()

	for _, id := range []string{"", "..", "a/b", `a\b`} {
		assert.Error(t, store.Save(ctx, id, domain.NewSnapshot(id)), id)
		_, err := store.Load(ctx, id)
		assert.Error(t, err, id)
	}
}

func TestFileStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte(`{"transient":{"k":false}}`), 0644))

	_, err := file.New(dir).Load(context.Background(), "bad")
	assert.ErrorIs(t, err, domain.ErrInvalidSetting)
}

func TestFileStore_ListMissingDir(t *testing.T) {
	ids, err := file.New(filepath.Join(t.TempDir(), "nope")).List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}
