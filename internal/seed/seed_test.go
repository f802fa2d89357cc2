package seed

import (
	"fmt"
	"strings"
	"testing"

	"agrisocial/internal/database"
	"agrisocial/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)),
		&gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	return db
}

func TestLoadBuiltInCommunities(t *testing.T) {
	builtIns, err := LoadBuiltInCommunities()
	require.NoError(t, err)
	require.NotEmpty(t, builtIns)

	seen := map[string]bool{}
	for _, c := range builtIns {
		assert.False(t, seen[c.Name], "duplicate community %q", c.Name)
		seen[c.Name] = true
		assert.NotEmpty(t, c.Description)
	}
}

func TestBuiltIns_Idempotent(t *testing.T) {
	db := newTestDB(t)

	first, err := BuiltIns(db)
	require.NoError(t, err)
	second, err := BuiltIns(db)
	require.NoError(t, err)
	require.Len(t, second, len(first))

	var communities, members, owners int64
	require.NoError(t, db.Model(&models.Community{}).Count(&communities).Error)
	require.NoError(t, db.Model(&models.CommunityMembership{}).Count(&members).Error)
	require.NoError(t, db.Model(&models.User{}).Where("username = ?", SystemUsername).Count(&owners).Error)

	assert.Equal(t, int64(len(first)), communities)
	assert.Equal(t, communities, members)
	assert.Equal(t, int64(1), owners)
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}
}

func TestSeeder_Run(t *testing.T) {
	db := newTestDB(t)
	s, err := NewSeeder(db, Options{NumUsers: 6, NumPosts: 20, SkipBcrypt: true, BatchSize: 7, RandomSeed: 42})
	require.NoError(t, err)

	sum, err := s.Run()
	require.NoError(t, err)
	assert.Equal(t, 6, sum.Users)
	assert.Equal(t, 20, sum.Posts)
	assert.Equal(t, 6, sum.Messages)

	var posts, follows, comments int64
	require.NoError(t, db.Model(&models.Post{}).Count(&posts).Error)
	require.NoError(t, db.Model(&models.Follow{}).Count(&follows).Error)
	require.NoError(t, db.Model(&models.Comment{}).Count(&comments).Error)
	assert.Equal(t, int64(20), posts)
	assert.Equal(t, int64(6), follows)
	assert.Equal(t, int64(sum.Comments), comments)

	var nested int64
	require.NoError(t, db.Raw(`
		SELECT COUNT(*) FROM comments c
		JOIN comments p ON c.parent_comment_id = p.id
		WHERE p.parent_comment_id IS NOT NULL`).Scan(&nested).Error)
	assert.Zero(t, nested, "replies must not be nested")

	require.NoError(t, s.ClearAll())
	require.NoError(t, db.Model(&models.Post{}).Count(&posts).Error)
	assert.Zero(t, posts)
}

func TestFactory_PriceRounded(t *testing.T) {
	db := newTestDB(t)
	f, err := NewFactory(db, Options{SkipBcrypt: true, RandomSeed: 7})
	require.NoError(t, err)

	seller, err := f.CreateUser()
	require.NoError(t, err)
	item, err := f.CreateItem(seller)
	require.NoError(t, err)

	assert.True(t, item.Price.Equal(item.Price.Round(2)))
	assert.False(t, item.Price.IsNegative())
}
