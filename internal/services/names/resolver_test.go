package names

import (
	"testing"

	"github.com/LimitAL/cafemaker-web/internal/database"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

func TestResolveCreatesOnFirstSighting(t *testing.T) {
	resolver := NewResolver(openTestDB(t))

	id, err := resolver.Resolve(KindRetainer, "Mogmerchant")
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}

func TestResolveIsStablePerKey(t *testing.T) {
	resolver := NewResolver(openTestDB(t))

	first, err := resolver.Resolve(KindCharacter, "Y'shtola Rhul")
	require.NoError(t, err)

	second, err := resolver.Resolve(KindCharacter, "Y'shtola Rhul")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestResolveKindsAreIndependent(t *testing.T) {
	resolver := NewResolver(openTestDB(t))

	asRetainer, err := resolver.Resolve(KindRetainer, "Tataru")
	require.NoError(t, err)

	asCharacter, err := resolver.Resolve(KindCharacter, "Tataru")
	require.NoError(t, err)
	assert.NotEqual(t, asRetainer, asCharacter)
}

func TestResolveIsCaseSensitive(t *testing.T) {
	resolver := NewResolver(openTestDB(t))

	lower, err := resolver.Resolve(KindRetainer, "mogmerchant")
	require.NoError(t, err)

	upper, err := resolver.Resolve(KindRetainer, "Mogmerchant")
	require.NoError(t, err)
	assert.NotEqual(t, lower, upper)
}

func TestResolveEmptyName(t *testing.T) {
	resolver := NewResolver(openTestDB(t))

	id, err := resolver.Resolve(KindSignature, "")
	require.NoError(t, err)
	assert.Empty(t, id)
}
