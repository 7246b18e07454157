package catalog

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"precificador/internal/domain"
)

func TestBuildAndLookup(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "catmat.db")

	n, err := Build(ctx, path, []domain.RegistryRecord{
		{Code: "477283", Name: "Anel de ostomia", Category: "Material hospitalar", Unit: "UN"},
		{Code: "269942", Name: "Luva descartável", Category: "Luvas"},
		{Code: ""},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	snap := NewSnapshot(path, nil)
	rec, ok, err := snap.Lookup(ctx, "477283")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Anel de ostomia", rec.Name)
	assert.Equal(t, "snapshot", rec.Source)
	assert.True(t, rec.Authoritative())

	_, ok, err = snap.Lookup(ctx, "000001")
	require.NoError(t, err)
	assert.False(t, ok)

	size, err := snap.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, size)
}

func TestSnapshot_ConcurrentReaders(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "catmat.db")
	_, err := Build(ctx, path, []domain.RegistryRecord{{Code: "150234", Name: "Caneta"}})
	require.NoError(t, err)

	snap := NewSnapshot(path, nil)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec, ok, err := snap.Lookup(ctx, "150234")
			assert.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "Caneta", rec.Name)
		}()
	}
	wg.Wait()
}

func TestSnapshot_EmptyPathAndMissingFile(t *testing.T) {
	ctx := context.Background()
	_, ok, err := NewSnapshot("", nil).Lookup(ctx, "1")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = NewSnapshot(filepath.Join(t.TempDir(), "absent.db"), nil).Lookup(ctx, "1")
	assert.Error(t, err)
}

func TestSnapshot_FirstLookupWithCancelledContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catmat.db")
	_, err := Build(context.Background(), path, []domain.RegistryRecord{{Code: "477283", Name: "Anel de ostomia"}})
	require.NoError(t, err)

	snap := NewSnapshot(path, nil)
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	rec, ok, err := snap.Lookup(cancelled, "477283")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Anel de ostomia", rec.Name)

	rec, ok, err = snap.Lookup(context.Background(), "477283")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Anel de ostomia", rec.Name)
}
