package sqlite

import (
	"testing"

	"github.com/dwikikusuma/supershop-pos/internal/order/infra/repotest"
	"github.com/dwikikusuma/supershop-pos/migrations"
	"github.com/dwikikusuma/supershop-pos/pkg/sqlite"
	"github.com/stretchr/testify/require"
)

func TestOrderRepo(t *testing.T) {
	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, sqlite.Migrate(db, migrations.SQLite, "sqlite"))

	repotest.Run(t, NewOrderRepo(db))
}
