package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"agrisocial/internal/models"
	"agrisocial/internal/repository"
	"agrisocial/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn       func(context.Context, uint) (*models.User, error)
	getByEmailFn    func(context.Context, string) (*models.User, error)
	getByUsernameFn func(context.Context, string) (*models.User, error)
	createFn        func(context.Context, *models.User) error
	updateFn        func(context.Context, *models.User) error
	deleteFn        func(context.Context, uint) (*repository.Affected, error)
	authoredFn      func(context.Context, uint) (*repository.Affected, error)
	listFn          func(context.Context, int, int) ([]*models.User, error)
	searchFn        func(context.Context, string, int, int) ([]*models.User, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	return s.updateFn(ctx, user)
}
func (s *userRepoStub) Delete(ctx context.Context, id uint) (*repository.Affected, error) {
	return s.deleteFn(ctx, id)
}
func (s *userRepoStub) Authored(ctx context.Context, id uint) (*repository.Affected, error) {
	return s.authoredFn(ctx, id)
}
func (s *userRepoStub) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	return s.listFn(ctx, limit, offset)
}
func (s *userRepoStub) Search(ctx context.Context, query string, limit, offset int) ([]*models.User, error) {
	return s.searchFn(ctx, query, limit, offset)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn:       func(_ context.Context, id uint) (*models.User, error) { return &models.User{ID: id}, nil },
		getByEmailFn:    func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		getByUsernameFn: func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		createFn:        func(_ context.Context, _ *models.User) error { return nil },
		updateFn:        func(_ context.Context, _ *models.User) error { return nil },
		deleteFn:        func(_ context.Context, _ uint) (*repository.Affected, error) { return &repository.Affected{}, nil },
		authoredFn: func(_ context.Context, id uint) (*repository.Affected, error) {
			return &repository.Affected{UserIDs: []uint{id}}, nil
		},
		listFn:   func(_ context.Context, _, _ int) ([]*models.User, error) { return nil, nil },
		searchFn: func(_ context.Context, _ string, _, _ int) ([]*models.User, error) { return nil, nil },
	}
}

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn          func(context.Context, *models.Post) error
	getByIDFn         func(context.Context, uint) (*models.Post, error)
	listFn            func(context.Context, int, int) ([]*models.Post, error)
	listByUserFn      func(context.Context, uint, int, int) ([]*models.Post, error)
	listByCommunityFn func(context.Context, uint, int, int) ([]*models.Post, error)
	searchFn          func(context.Context, string, int, int) ([]*models.Post, error)
	updateFn          func(context.Context, *models.Post) error
	deleteFn          func(context.Context, uint) error
	isLikedFn         func(context.Context, uint, uint) (bool, error)
	likeFn            func(context.Context, uint, uint) error
	unlikeFn          func(context.Context, uint, uint) error
	countLikesFn      func(context.Context, uint) (int64, error)
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) List(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	return s.listFn(ctx, limit, offset)
}
func (s *postRepoStub) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	return s.listByUserFn(ctx, userID, limit, offset)
}
func (s *postRepoStub) ListByCommunity(ctx context.Context, communityID uint, limit, offset int) ([]*models.Post, error) {
	return s.listByCommunityFn(ctx, communityID, limit, offset)
}
func (s *postRepoStub) Search(ctx context.Context, query string, limit, offset int) ([]*models.Post, error) {
	return s.searchFn(ctx, query, limit, offset)
}
func (s *postRepoStub) Update(ctx context.Context, post *models.Post) error {
	return s.updateFn(ctx, post)
}
func (s *postRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *postRepoStub) IsLiked(ctx context.Context, postID, userID uint) (bool, error) {
	return s.isLikedFn(ctx, postID, userID)
}
func (s *postRepoStub) Like(ctx context.Context, postID, userID uint) error {
	return s.likeFn(ctx, postID, userID)
}
func (s *postRepoStub) Unlike(ctx context.Context, postID, userID uint) error {
	return s.unlikeFn(ctx, postID, userID)
}
func (s *postRepoStub) CountLikes(ctx context.Context, postID uint) (int64, error) {
	return s.countLikesFn(ctx, postID)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn:          func(_ context.Context, _ *models.Post) error { return nil },
		getByIDFn:         func(_ context.Context, id uint) (*models.Post, error) { return &models.Post{ID: id}, nil },
		listFn:            func(_ context.Context, _, _ int) ([]*models.Post, error) { return nil, nil },
		listByUserFn:      func(_ context.Context, _ uint, _, _ int) ([]*models.Post, error) { return nil, nil },
		listByCommunityFn: func(_ context.Context, _ uint, _, _ int) ([]*models.Post, error) { return nil, nil },
		searchFn:          func(_ context.Context, _ string, _, _ int) ([]*models.Post, error) { return nil, nil },
		updateFn:          func(_ context.Context, _ *models.Post) error { return nil },
		deleteFn:          func(_ context.Context, _ uint) error { return nil },
		isLikedFn:         func(_ context.Context, _, _ uint) (bool, error) { return false, nil },
		likeFn:            func(_ context.Context, _, _ uint) error { return nil },
		unlikeFn:          func(_ context.Context, _, _ uint) error { return nil },
		countLikesFn:      func(_ context.Context, _ uint) (int64, error) { return 0, nil },
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn       func(context.Context, *models.Comment) error
	getByIDFn      func(context.Context, uint) (*models.Comment, error)
	listTopLevelFn func(context.Context, uint) ([]*models.Comment, error)
	listRepliesFn  func(context.Context, uint) ([]*models.Comment, error)
	updateTextFn   func(context.Context, uint, string) error
	deleteFn       func(context.Context, uint) error
	isLikedFn      func(context.Context, uint, uint) (bool, error)
	likeFn         func(context.Context, uint, uint) error
	unlikeFn       func(context.Context, uint, uint) error
	countLikesFn   func(context.Context, uint) (int64, error)
}

func (s *commentRepoStub) Create(ctx context.Context, comment *models.Comment) error {
	return s.createFn(ctx, comment)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) ListTopLevel(ctx context.Context, postID uint) ([]*models.Comment, error) {
	return s.listTopLevelFn(ctx, postID)
}
func (s *commentRepoStub) ListReplies(ctx context.Context, parentID uint) ([]*models.Comment, error) {
	return s.listRepliesFn(ctx, parentID)
}
func (s *commentRepoStub) UpdateText(ctx context.Context, id uint, text string) error {
	return s.updateTextFn(ctx, id, text)
}
func (s *commentRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *commentRepoStub) IsLiked(ctx context.Context, commentID, userID uint) (bool, error) {
	return s.isLikedFn(ctx, commentID, userID)
}
func (s *commentRepoStub) Like(ctx context.Context, commentID, userID uint) error {
	return s.likeFn(ctx, commentID, userID)
}
func (s *commentRepoStub) Unlike(ctx context.Context, commentID, userID uint) error {
	return s.unlikeFn(ctx, commentID, userID)
}
func (s *commentRepoStub) CountLikes(ctx context.Context, commentID uint) (int64, error) {
	return s.countLikesFn(ctx, commentID)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn:       func(_ context.Context, _ *models.Comment) error { return nil },
		getByIDFn:      func(_ context.Context, id uint) (*models.Comment, error) { return &models.Comment{ID: id}, nil },
		listTopLevelFn: func(_ context.Context, _ uint) ([]*models.Comment, error) { return nil, nil },
		listRepliesFn:  func(_ context.Context, _ uint) ([]*models.Comment, error) { return nil, nil },
		updateTextFn:   func(_ context.Context, _ uint, _ string) error { return nil },
		deleteFn:       func(_ context.Context, _ uint) error { return nil },
		isLikedFn:      func(_ context.Context, _, _ uint) (bool, error) { return false, nil },
		likeFn:         func(_ context.Context, _, _ uint) error { return nil },
		unlikeFn:       func(_ context.Context, _, _ uint) error { return nil },
		countLikesFn:   func(_ context.Context, _ uint) (int64, error) { return 0, nil },
	}
}

// itemRepoStub is a stub for repository.MarketplaceRepository.
type itemRepoStub struct {
	createFn  func(context.Context, *models.MarketplaceItem) error
	getByIDFn func(context.Context, uint) (*models.MarketplaceItem, error)
	listFn    func(context.Context, int, int) ([]*models.MarketplaceItem, error)
	updateFn  func(context.Context, *models.MarketplaceItem) error
	deleteFn  func(context.Context, uint) error
}

func (s *itemRepoStub) Create(ctx context.Context, item *models.MarketplaceItem) error {
	return s.createFn(ctx, item)
}
func (s *itemRepoStub) GetByID(ctx context.Context, id uint) (*models.MarketplaceItem, error) {
	return s.getByIDFn(ctx, id)
}
func (s *itemRepoStub) List(ctx context.Context, limit, offset int) ([]*models.MarketplaceItem, error) {
	return s.listFn(ctx, limit, offset)
}
func (s *itemRepoStub) Update(ctx context.Context, item *models.MarketplaceItem) error {
	return s.updateFn(ctx, item)
}
func (s *itemRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopItemRepo() *itemRepoStub {
	return &itemRepoStub{
		createFn: func(_ context.Context, _ *models.MarketplaceItem) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.MarketplaceItem, error) {
			return &models.MarketplaceItem{ID: id}, nil
		},
		listFn:   func(_ context.Context, _, _ int) ([]*models.MarketplaceItem, error) { return nil, nil },
		updateFn: func(_ context.Context, _ *models.MarketplaceItem) error { return nil },
		deleteFn: func(_ context.Context, _ uint) error { return nil },
	}
}

// communityRepoStub is a stub for repository.CommunityRepository.
type communityRepoStub struct {
	createFn       func(context.Context, *models.Community) error
	getByIDFn      func(context.Context, uint) (*models.Community, error)
	getByNameFn    func(context.Context, string) (*models.Community, error)
	listFn         func(context.Context, int, int) ([]*models.Community, error)
	searchFn       func(context.Context, string, int, int) ([]*models.Community, error)
	updateFn       func(context.Context, *models.Community) error
	deleteFn       func(context.Context, uint) ([]uint, error)
	joinFn         func(context.Context, uint, uint) error
	leaveFn        func(context.Context, uint, uint) error
	isMemberFn     func(context.Context, uint, uint) (bool, error)
	listMembersFn  func(context.Context, uint) ([]*models.User, error)
	listJoinedByFn func(context.Context, uint) ([]*models.Community, error)
}

func (s *communityRepoStub) Create(ctx context.Context, community *models.Community) error {
	return s.createFn(ctx, community)
}
func (s *communityRepoStub) GetByID(ctx context.Context, id uint) (*models.Community, error) {
	return s.getByIDFn(ctx, id)
}
func (s *communityRepoStub) GetByName(ctx context.Context, name string) (*models.Community, error) {
	return s.getByNameFn(ctx, name)
}
func (s *communityRepoStub) List(ctx context.Context, limit, offset int) ([]*models.Community, error) {
	return s.listFn(ctx, limit, offset)
}
func (s *communityRepoStub) Search(ctx context.Context, query string, limit, offset int) ([]*models.Community, error) {
	return s.searchFn(ctx, query, limit, offset)
}
func (s *communityRepoStub) Update(ctx context.Context, community *models.Community) error {
	return s.updateFn(ctx, community)
}
func (s *communityRepoStub) Delete(ctx context.Context, id uint) ([]uint, error) {
	return s.deleteFn(ctx, id)
}
func (s *communityRepoStub) Join(ctx context.Context, communityID, userID uint) error {
	return s.joinFn(ctx, communityID, userID)
}
func (s *communityRepoStub) Leave(ctx context.Context, communityID, userID uint) error {
	return s.leaveFn(ctx, communityID, userID)
}
func (s *communityRepoStub) IsMember(ctx context.Context, communityID, userID uint) (bool, error) {
	return s.isMemberFn(ctx, communityID, userID)
}
func (s *communityRepoStub) ListMembers(ctx context.Context, communityID uint) ([]*models.User, error) {
	return s.listMembersFn(ctx, communityID)
}
func (s *communityRepoStub) ListJoinedBy(ctx context.Context, userID uint) ([]*models.Community, error) {
	return s.listJoinedByFn(ctx, userID)
}

func noopCommunityRepo() *communityRepoStub {
	return &communityRepoStub{
		createFn:       func(_ context.Context, _ *models.Community) error { return nil },
		getByIDFn:      func(_ context.Context, id uint) (*models.Community, error) { return &models.Community{ID: id}, nil },
		getByNameFn:    func(_ context.Context, _ string) (*models.Community, error) { return nil, nil },
		listFn:         func(_ context.Context, _, _ int) ([]*models.Community, error) { return nil, nil },
		searchFn:       func(_ context.Context, _ string, _, _ int) ([]*models.Community, error) { return nil, nil },
		updateFn:       func(_ context.Context, _ *models.Community) error { return nil },
		deleteFn:       func(_ context.Context, _ uint) ([]uint, error) { return nil, nil },
		joinFn:         func(_ context.Context, _, _ uint) error { return nil },
		leaveFn:        func(_ context.Context, _, _ uint) error { return nil },
		isMemberFn:     func(_ context.Context, _, _ uint) (bool, error) { return false, nil },
		listMembersFn:  func(_ context.Context, _ uint) ([]*models.User, error) { return nil, nil },
		listJoinedByFn: func(_ context.Context, _ uint) ([]*models.Community, error) { return nil, nil },
	}
}

// followRepoStub is a stub for repository.FollowRepository.
type followRepoStub struct {
	followFn               func(context.Context, uint, uint, models.FollowedType) error
	unfollowFn             func(context.Context, uint, uint, models.FollowedType) error
	isFollowingFn          func(context.Context, uint, uint, models.FollowedType) (bool, error)
	followersFn            func(context.Context, uint) ([]*models.User, error)
	followingUsersFn       func(context.Context, uint) ([]*models.User, error)
	followingCommunitiesFn func(context.Context, uint) ([]*models.Community, error)
	statsFn                func(context.Context, uint) (repository.FollowStats, error)
}

func (s *followRepoStub) Follow(ctx context.Context, followerID, followedID uint, t models.FollowedType) error {
	return s.followFn(ctx, followerID, followedID, t)
}
func (s *followRepoStub) Unfollow(ctx context.Context, followerID, followedID uint, t models.FollowedType) error {
	return s.unfollowFn(ctx, followerID, followedID, t)
}
func (s *followRepoStub) IsFollowing(ctx context.Context, followerID, followedID uint, t models.FollowedType) (bool, error) {
	return s.isFollowingFn(ctx, followerID, followedID, t)
}
func (s *followRepoStub) Followers(ctx context.Context, userID uint) ([]*models.User, error) {
	return s.followersFn(ctx, userID)
}
func (s *followRepoStub) FollowingUsers(ctx context.Context, userID uint) ([]*models.User, error) {
	return s.followingUsersFn(ctx, userID)
}
func (s *followRepoStub) FollowingCommunities(ctx context.Context, userID uint) ([]*models.Community, error) {
	return s.followingCommunitiesFn(ctx, userID)
}
func (s *followRepoStub) Stats(ctx context.Context, userID uint) (repository.FollowStats, error) {
	return s.statsFn(ctx, userID)
}

func noopFollowRepo() *followRepoStub {
	return &followRepoStub{
		followFn:               func(_ context.Context, _, _ uint, _ models.FollowedType) error { return nil },
		unfollowFn:             func(_ context.Context, _, _ uint, _ models.FollowedType) error { return nil },
		isFollowingFn:          func(_ context.Context, _, _ uint, _ models.FollowedType) (bool, error) { return false, nil },
		followersFn:            func(_ context.Context, _ uint) ([]*models.User, error) { return nil, nil },
		followingUsersFn:       func(_ context.Context, _ uint) ([]*models.User, error) { return nil, nil },
		followingCommunitiesFn: func(_ context.Context, _ uint) ([]*models.Community, error) { return nil, nil },
		statsFn:                func(_ context.Context, _ uint) (repository.FollowStats, error) { return repository.FollowStats{}, nil },
	}
}

// messageRepoStub is a stub for repository.MessageRepository.
type messageRepoStub struct {
	createFn        func(context.Context, *models.Message) error
	getByIDFn       func(context.Context, uint) (*models.Message, error)
	conversationFn  func(context.Context, uint, uint) ([]*models.Message, error)
	listCommunityFn func(context.Context, uint, int, int) ([]*models.Message, error)
	listSentFn      func(context.Context, uint, int, int) ([]*models.Message, error)
	listReceivedFn  func(context.Context, uint, int, int) ([]*models.Message, error)
	markReadFn      func(context.Context, uint) error
}

func (s *messageRepoStub) Create(ctx context.Context, message *models.Message) error {
	return s.createFn(ctx, message)
}
func (s *messageRepoStub) GetByID(ctx context.Context, id uint) (*models.Message, error) {
	return s.getByIDFn(ctx, id)
}
func (s *messageRepoStub) Conversation(ctx context.Context, userID, otherID uint) ([]*models.Message, error) {
	return s.conversationFn(ctx, userID, otherID)
}
func (s *messageRepoStub) ListCommunity(ctx context.Context, communityID uint, limit, offset int) ([]*models.Message, error) {
	return s.listCommunityFn(ctx, communityID, limit, offset)
}
func (s *messageRepoStub) ListSent(ctx context.Context, userID uint, limit, offset int) ([]*models.Message, error) {
	return s.listSentFn(ctx, userID, limit, offset)
}
func (s *messageRepoStub) ListReceived(ctx context.Context, userID uint, limit, offset int) ([]*models.Message, error) {
	return s.listReceivedFn(ctx, userID, limit, offset)
}
func (s *messageRepoStub) MarkRead(ctx context.Context, id uint) error {
	return s.markReadFn(ctx, id)
}

func noopMessageRepo() *messageRepoStub {
	return &messageRepoStub{
		createFn:        func(_ context.Context, _ *models.Message) error { return nil },
		getByIDFn:       func(_ context.Context, id uint) (*models.Message, error) { return &models.Message{ID: id}, nil },
		conversationFn:  func(_ context.Context, _, _ uint) ([]*models.Message, error) { return nil, nil },
		listCommunityFn: func(_ context.Context, _ uint, _, _ int) ([]*models.Message, error) { return nil, nil },
		listSentFn:      func(_ context.Context, _ uint, _, _ int) ([]*models.Message, error) { return nil, nil },
		listReceivedFn:  func(_ context.Context, _ uint, _, _ int) ([]*models.Message, error) { return nil, nil },
		markReadFn:      func(_ context.Context, _ uint) error { return nil },
	}
}

// storeStub is an in-memory ImageStore that records saves and removals.
type storeStub struct {
	mu      sync.Mutex
	saveErr error
	saved   []string
	removed []string
}

func (s *storeStub) Save(kind storage.Kind, filename string, _ []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return "", s.saveErr
	}
	url := storage.PublicPrefix + "/" + string(kind) + "/" + filename
	s.saved = append(s.saved, url)
	return url, nil
}

func (s *storeStub) Remove(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed = append(s.removed, url)
}

func notFound(resource string, id uint) error {
	return models.NewNotFoundError(resource, id)
}

// assertAppError asserts that err is an AppError with the given code.
func assertAppError(t *testing.T, err error, code string) *models.AppError {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
	return appErr
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertAppError(t, err, models.CodeValidation)
}

func uintPtr(v uint) *uint { return &v }

func strPtr(v string) *string { return &v }
