package migration

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	businessdomain "github.com/listora/listora/internal/business/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestAutoMigrateCreatesSchema(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:migration_automigrate?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, AutoMigrate(db))

	for _, table := range []string{"businesses", "boost_queues", "boost_queue_entries", "boost_subscriptions"} {
		assert.True(t, db.Migrator().HasTable(table), "missing table %s", table)
	}

	// The created schema must accept writes, not just exist.
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	now := time.Now().UTC()
	require.NoError(t, db.Create(&businessdomain.Business{
		ID:        node.Generate(),
		OwnerID:   node.Generate(),
		Name:      "corner-cafe",
		Category:  "restaurants",
		CreatedAt: now,
		UpdatedAt: now,
	}).Error)
}

func TestAutoMigrateRequiresHandle(t *testing.T) {
	assert.Error(t, AutoMigrate(nil))
}
