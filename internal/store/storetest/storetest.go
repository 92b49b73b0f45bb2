// Package storetest opens throwaway sqlite databases for tests.
package storetest

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"elevator-access-backend/internal/db"
	"elevator-access-backend/internal/store"
)

var seq atomic.Int64

// New returns a migrated in-memory database private to the test and a
// store on top of it.
func New(t testing.TB) (*gorm.DB, store.Store) {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, seq.Add(1))
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	// sqlite serializes writers; one connection keeps shared-cache
	// transactions from tripping over table locks.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Migrate(gormDB))
	return gormDB, store.NewGormStore(gormDB)
}
