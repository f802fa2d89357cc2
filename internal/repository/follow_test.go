package repository

import (
	"context"
	"testing"

	"agrisocial/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	carol := seedUser(t, db, "carol")
	c := &models.Community{Name: "Orchards", OwnerID: carol.ID}
	require.NoError(t, db.Create(c).Error)

	require.NoError(t, repo.Follow(ctx, alice.ID, bob.ID, models.FollowedTypeUser))
	assertAppErrorCode(t, repo.Follow(ctx, alice.ID, bob.ID, models.FollowedTypeUser), models.CodeConflict)
	require.NoError(t, repo.Follow(ctx, carol.ID, bob.ID, models.FollowedTypeUser))
	require.NoError(t, repo.Follow(ctx, alice.ID, c.ID, models.FollowedTypeCommunity))

	following, err := repo.IsFollowing(ctx, alice.ID, bob.ID, models.FollowedTypeUser)
	require.NoError(t, err)
	assert.True(t, following)

	following, err = repo.IsFollowing(ctx, bob.ID, alice.ID, models.FollowedTypeUser)
	require.NoError(t, err)
	assert.False(t, following)

	followers, err := repo.Followers(ctx, bob.ID)
	require.NoError(t, err)
	assert.Len(t, followers, 2)

	users, err := repo.FollowingUsers(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, bob.ID, users[0].ID)

	communities, err := repo.FollowingCommunities(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, communities, 1)
	assert.Equal(t, "Orchards", communities[0].Name)

	stats, err := repo.Stats(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, FollowStats{Followers: 0, FollowingUsers: 1, FollowingCommunities: 1}, stats)

	stats, err = repo.Stats(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Followers)

	require.NoError(t, repo.Unfollow(ctx, alice.ID, bob.ID, models.FollowedTypeUser))
	assertAppErrorCode(t, repo.Unfollow(ctx, alice.ID, bob.ID, models.FollowedTypeUser), models.CodeConflict)
}
