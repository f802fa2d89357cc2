package service

import (
	"context"

	"agrisocial/internal/cache"
	"agrisocial/internal/repository"
)

// forgetAffected drops the cached views of every row a cascade touched.
func forgetAffected(ctx context.Context, affected *repository.Affected) {
	if affected == nil {
		return
	}
	for _, id := range affected.UserIDs {
		cache.InvalidateUser(ctx, id)
	}
	for _, id := range affected.PostIDs {
		cache.InvalidatePost(ctx, id)
	}
	for _, id := range affected.CommunityIDs {
		cache.InvalidateCommunity(ctx, id)
	}
}
