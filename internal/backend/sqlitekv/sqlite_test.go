package sqlitekv_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabnotes/internal/backend/sqlitekv"
	"tabnotes/internal/service"
	"tabnotes/internal/testutil"
)

func TestSQLite_Storage(t *testing.T) {
	testutil.RunStorageTests(t, sqlitekv.FileName, func(path string) (service.Storage, error) {
		return sqlitekv.Open(path)
	})
}

func TestSQLite_SharedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), sqlitekv.FileName)
	ctx := context.Background()

	a, err := sqlitekv.Open(path)
	require.NoError(t, err)
	defer a.Close()
	b, err := sqlitekv.Open(path)
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, a.Put(ctx, service.Entry{Key: service.TabsKey, Value: `[]`}))

	v, ok, err := b.Get(ctx, service.TabsKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[]`, v)
}
