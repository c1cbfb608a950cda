package sqlite

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/pkgtrack/pkg/types"
)

func TestNewBackendAttachDetach(t *testing.T) {
	store := NewBackend()
	require.NoError(t, store.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))

	for _, name := range types.StandardTableNames {
		_, err := store.GetTable(name)
		require.NoError(t, err, name)
	}
	require.NoError(t, store.Detach())
}
