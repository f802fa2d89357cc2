package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"agrisocial/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every generated user.
const DefaultPassword = "password123"

var (
	crops = []string{
		"tomatoes", "garlic", "potatoes", "winter wheat", "sweetcorn", "blueberries",
		"apples", "squash", "lettuce", "onions", "barley", "hops",
	}
	postTopics = []string{
		"First harvest of %s this season",
		"Anyone else seeing blight on their %s?",
		"Best cover crop before %s?",
		"Irrigation schedule for %s",
		"Selling surplus %s at the market this weekend",
		"Soil prep notes for %s",
	}
	equipment = []string{
		"Compact tractor", "Rotary tiller", "Seed drill", "Hay baler", "Poly tunnel",
		"Chicken coop", "Drip irrigation kit", "Grain auger", "Egg incubator",
	}
)

// Factory builds domain rows with gofakeit content and persists them.
type Factory struct {
	db   *gorm.DB
	opts Options
	rng  *rand.Rand
	hash string
}

// NewFactory creates a Factory bound to db. The password hash is computed
// once and shared by every generated user.
func NewFactory(db *gorm.DB, opts Options) (*Factory, error) {
	seed := opts.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gofakeit.Seed(seed)

	hash := DefaultPassword
	if !opts.SkipBcrypt {
		b, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash seed password: %w", err)
		}
		hash = string(b)
	}

	//nolint:gosec // seeding only
	return &Factory{db: db, opts: opts, rng: rand.New(rand.NewSource(seed)), hash: hash}, nil
}

func (f *Factory) pick(items []string) string {
	return items[f.rng.Intn(len(items))]
}

// backdate returns a creation time spread over the last MaxDays days.
func (f *Factory) backdate() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	offset := time.Duration(f.rng.Intn(maxDays*24*60)) * time.Minute
	return time.Now().Add(-offset)
}

// CreateUser persists a grower with a unique username.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	first := strings.ToLower(gofakeit.FirstName())
	username := fmt.Sprintf("%s_%s%d", first, strings.ToLower(gofakeit.FarmAnimal()), gofakeit.Number(100, 9999))
	username = strings.ReplaceAll(username, " ", "")

	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: f.hash,
		Bio:      fmt.Sprintf("Growing %s in %s.", f.pick(crops), gofakeit.City()),
	}
	for _, override := range overrides {
		override(user)
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildPost returns an unsaved post by author, optionally inside community.
func (f *Factory) BuildPost(author *models.User, community *models.Community) *models.Post {
	post := &models.Post{
		Title:     fmt.Sprintf(f.pick(postTopics), f.pick(crops)),
		Content:   gofakeit.Paragraph(1, 3, 12, " "),
		UserID:    author.ID,
		CreatedAt: f.backdate(),
	}
	if community != nil {
		id := community.ID
		post.CommunityID = &id
	}
	return post
}

// CreatePosts persists posts in batches of BatchSize.
func (f *Factory) CreatePosts(posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	batch := f.opts.BatchSize
	if batch <= 0 {
		batch = 100
	}
	return f.db.CreateInBatches(posts, batch).Error
}

// CreateComment persists a comment, or a reply when parent is set.
func (f *Factory) CreateComment(author *models.User, post *models.Post, parent *models.Comment) (*models.Comment, error) {
	comment := &models.Comment{
		PostID: post.ID,
		UserID: author.ID,
		Text:   gofakeit.Sentence(f.rng.Intn(10) + 4),
	}
	if parent != nil {
		id := parent.ID
		comment.ParentCommentID = &id
	}
	if err := f.db.Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// LikePost records a like, ignoring duplicates.
func (f *Factory) LikePost(user *models.User, post *models.Post) error {
	var n int64
	if err := f.db.Model(&models.PostLike{}).Where("post_id = ? AND user_id = ?", post.ID, user.ID).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	return f.db.Create(&models.PostLike{PostID: post.ID, UserID: user.ID}).Error
}

// CreateItem persists a marketplace listing.
func (f *Factory) CreateItem(seller *models.User) (*models.MarketplaceItem, error) {
	item := &models.MarketplaceItem{
		Name:        f.pick(equipment),
		Description: gofakeit.Sentence(12),
		Price:       decimal.NewFromFloat(gofakeit.Price(5, 5000)).Round(2),
		UserID:      seller.ID,
		ContactInfo: gofakeit.Phone(),
		CreatedAt:   f.backdate(),
	}
	if err := f.db.Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// Join adds user to community, ignoring existing memberships.
func (f *Factory) Join(user *models.User, community *models.Community) error {
	var n int64
	if err := f.db.Model(&models.CommunityMembership{}).
		Where("user_id = ? AND community_id = ?", user.ID, community.ID).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	return f.db.Create(&models.CommunityMembership{UserID: user.ID, CommunityID: community.ID}).Error
}

// Follow makes follower follow another user, ignoring duplicates and self-follows.
func (f *Factory) Follow(follower, followed *models.User) error {
	if follower.ID == followed.ID {
		return nil
	}
	var n int64
	if err := f.db.Model(&models.Follow{}).
		Where("follower_id = ? AND followed_id = ? AND followed_type = ?", follower.ID, followed.ID, models.FollowedTypeUser).
		Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	return f.db.Create(&models.Follow{
		FollowerID:   follower.ID,
		FollowedID:   followed.ID,
		FollowedType: models.FollowedTypeUser,
	}).Error
}

// SendDirect persists a direct message.
func (f *Factory) SendDirect(sender, receiver *models.User) (*models.Message, error) {
	id := receiver.ID
	msg := &models.Message{SenderID: sender.ID, ReceiverID: &id, Text: gofakeit.Sentence(8)}
	if err := f.db.Create(msg).Error; err != nil {
		return nil, err
	}
	return msg, nil
}
