package database

import (
	"testing"

	"agrisocial/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestPersistentModels_IncludesLikeTables(t *testing.T) {
	var hasPostLike, hasCommentLike bool
	for _, model := range PersistentModels() {
		switch model.(type) {
		case *models.PostLike:
			hasPostLike = true
		case *models.CommentLike:
			hasCommentLike = true
		}
	}
	assert.True(t, hasPostLike, "PersistentModels should include PostLike")
	assert.True(t, hasCommentLike, "PersistentModels should include CommentLike")
}

func TestPersistentModels_AutoMigrateUniqueIndexes(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(PersistentModels()...))

	m := db.Migrator()
	assert.True(t, m.HasIndex(&models.PostLike{}, "idx_post_likes_post_user"))
	assert.True(t, m.HasIndex(&models.CommentLike{}, "idx_comment_likes_comment_user"))
	assert.True(t, m.HasIndex(&models.Follow{}, "idx_follows_unique"))
	assert.False(t, m.HasColumn(&models.Post{}, "comments_count"))
	assert.False(t, m.HasColumn(&models.Community{}, "member_count"))
}
