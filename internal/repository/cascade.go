package repository

import (
	"slices"

	"agrisocial/internal/models"

	"gorm.io/gorm"
)

// Cascade helpers run inside a caller-owned transaction and must only touch tx.

// Affected lists what a cascading delete removed or changed: orphaned upload
// URLs plus the users, posts and communities whose cached views went stale.
type Affected struct {
	Uploads      []string
	UserIDs      []uint
	PostIDs      []uint
	CommunityIDs []uint
}

func (a *Affected) addPosts(ids ...uint) {
	a.PostIDs = appendUnique(a.PostIDs, ids...)
}

func (a *Affected) addUsers(ids ...uint) {
	a.UserIDs = appendUnique(a.UserIDs, ids...)
}

func (a *Affected) addCommunities(ids ...uint) {
	a.CommunityIDs = appendUnique(a.CommunityIDs, ids...)
}

func appendUnique(dst []uint, ids ...uint) []uint {
	for _, id := range ids {
		if !slices.Contains(dst, id) {
			dst = append(dst, id)
		}
	}
	return dst
}

// deleteCommentsTx removes the given comments, their replies and every like on them.
func deleteCommentsTx(tx *gorm.DB, commentIDs []uint) error {
	if len(commentIDs) == 0 {
		return nil
	}
	var replyIDs []uint
	if err := tx.Model(&models.Comment{}).
		Where("parent_comment_id IN ?", commentIDs).
		Pluck("id", &replyIDs).Error; err != nil {
		return err
	}
	all := append(append([]uint{}, commentIDs...), replyIDs...)

	if err := tx.Where("comment_id IN ?", all).Delete(&models.CommentLike{}).Error; err != nil {
		return err
	}
	return tx.Where("id IN ?", all).Delete(&models.Comment{}).Error
}

// deletePostsTx removes posts with their comments and likes. It returns the
// image URLs that are orphaned once the transaction commits.
func deletePostsTx(tx *gorm.DB, postIDs []uint) ([]string, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}

	var images []string
	if err := tx.Model(&models.Post{}).
		Where("id IN ? AND image_url <> ''", postIDs).
		Pluck("image_url", &images).Error; err != nil {
		return nil, err
	}

	var commentIDs []uint
	if err := tx.Model(&models.Comment{}).
		Where("post_id IN ?", postIDs).
		Pluck("id", &commentIDs).Error; err != nil {
		return nil, err
	}
	if len(commentIDs) > 0 {
		if err := tx.Where("comment_id IN ?", commentIDs).Delete(&models.CommentLike{}).Error; err != nil {
			return nil, err
		}
		if err := tx.Where("post_id IN ?", postIDs).Delete(&models.Comment{}).Error; err != nil {
			return nil, err
		}
	}
	if err := tx.Where("post_id IN ?", postIDs).Delete(&models.PostLike{}).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("id IN ?", postIDs).Delete(&models.Post{}).Error; err != nil {
		return nil, err
	}
	return images, nil
}

// deleteCommunityTx removes a community with its memberships, follows and
// messages. Posts in the community are kept and detached; their ids are returned.
func deleteCommunityTx(tx *gorm.DB, communityID uint) ([]uint, error) {
	var detached []uint
	if err := tx.Model(&models.Post{}).Where("community_id = ?", communityID).Pluck("id", &detached).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("community_id = ?", communityID).Delete(&models.CommunityMembership{}).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("followed_id = ? AND followed_type = ?", communityID, models.FollowedTypeCommunity).
		Delete(&models.Follow{}).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("community_id = ?", communityID).Delete(&models.Message{}).Error; err != nil {
		return nil, err
	}
	if len(detached) > 0 {
		if err := tx.Model(&models.Post{}).
			Where("id IN ?", detached).
			Update("community_id", nil).Error; err != nil {
			return nil, err
		}
	}
	if err := tx.Delete(&models.Community{}, communityID).Error; err != nil {
		return nil, err
	}
	return detached, nil
}

// deleteUserTx removes a user and everything they own.
func deleteUserTx(tx *gorm.DB, userID uint) (*Affected, error) {
	var user models.User
	if err := tx.First(&user, userID).Error; err != nil {
		return nil, err
	}
	affected := &Affected{}

	var owned []uint
	if err := tx.Model(&models.Community{}).Where("owner_id = ?", userID).Pluck("id", &owned).Error; err != nil {
		return nil, err
	}
	affected.addCommunities(owned...)
	for _, id := range owned {
		detached, err := deleteCommunityTx(tx, id)
		if err != nil {
			return nil, err
		}
		affected.addPosts(detached...)
	}

	var postIDs []uint
	if err := tx.Model(&models.Post{}).Where("user_id = ?", userID).Pluck("id", &postIDs).Error; err != nil {
		return nil, err
	}
	affected.addPosts(postIDs...)
	images, err := deletePostsTx(tx, postIDs)
	if err != nil {
		return nil, err
	}
	affected.Uploads = append(affected.Uploads, images...)

	var commentIDs, commentedPosts []uint
	if err := tx.Model(&models.Comment{}).Where("user_id = ?", userID).Pluck("id", &commentIDs).Error; err != nil {
		return nil, err
	}
	if err := tx.Model(&models.Comment{}).Where("user_id = ?", userID).Distinct().Pluck("post_id", &commentedPosts).Error; err != nil {
		return nil, err
	}
	affected.addPosts(commentedPosts...)
	if err := deleteCommentsTx(tx, commentIDs); err != nil {
		return nil, err
	}

	var likedPosts []uint
	if err := tx.Model(&models.PostLike{}).Where("user_id = ?", userID).Pluck("post_id", &likedPosts).Error; err != nil {
		return nil, err
	}
	affected.addPosts(likedPosts...)
	if err := tx.Where("user_id = ?", userID).Delete(&models.CommentLike{}).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("user_id = ?", userID).Delete(&models.PostLike{}).Error; err != nil {
		return nil, err
	}

	var itemImages []string
	if err := tx.Model(&models.MarketplaceItem{}).
		Where("user_id = ? AND image_url <> ''", userID).
		Pluck("image_url", &itemImages).Error; err != nil {
		return nil, err
	}
	affected.Uploads = append(affected.Uploads, itemImages...)
	if err := tx.Where("user_id = ?", userID).Delete(&models.MarketplaceItem{}).Error; err != nil {
		return nil, err
	}

	var joined []uint
	if err := tx.Model(&models.CommunityMembership{}).Where("user_id = ?", userID).Pluck("community_id", &joined).Error; err != nil {
		return nil, err
	}
	affected.addCommunities(joined...)
	if err := tx.Where("user_id = ?", userID).Delete(&models.CommunityMembership{}).Error; err != nil {
		return nil, err
	}

	var followed, followers []uint
	if err := tx.Model(&models.Follow{}).
		Where("follower_id = ? AND followed_type = ?", userID, models.FollowedTypeUser).
		Pluck("followed_id", &followed).Error; err != nil {
		return nil, err
	}
	if err := tx.Model(&models.Follow{}).
		Where("followed_id = ? AND followed_type = ?", userID, models.FollowedTypeUser).
		Pluck("follower_id", &followers).Error; err != nil {
		return nil, err
	}
	affected.addUsers(userID)
	affected.addUsers(followed...)
	affected.addUsers(followers...)
	if err := tx.Where("follower_id = ? OR (followed_id = ? AND followed_type = ?)", userID, userID, models.FollowedTypeUser).
		Delete(&models.Follow{}).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("sender_id = ? OR receiver_id = ?", userID, userID).Delete(&models.Message{}).Error; err != nil {
		return nil, err
	}
	if err := tx.Delete(&models.User{}, userID).Error; err != nil {
		return nil, err
	}

	if user.ProfilePictureURL != "" {
		affected.Uploads = append(affected.Uploads, user.ProfilePictureURL)
	}
	return affected, nil
}
