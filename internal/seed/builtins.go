package seed

import (
	_ "embed"
	"errors"
	"fmt"

	"agrisocial/internal/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

//go:embed communities.yml
var communitiesYAML []byte

// BuiltInCommunity is a community created by the built-in seed.
type BuiltInCommunity struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// LoadBuiltInCommunities parses the embedded community list.
func LoadBuiltInCommunities() ([]BuiltInCommunity, error) {
	var doc struct {
		Communities []BuiltInCommunity `yaml:"communities"`
	}
	if err := yaml.Unmarshal(communitiesYAML, &doc); err != nil {
		return nil, fmt.Errorf("parse communities.yml: %w", err)
	}
	for i, c := range doc.Communities {
		if c.Name == "" {
			return nil, fmt.Errorf("communities.yml entry %d has no name", i)
		}
	}
	return doc.Communities, nil
}

// Communities creates the built-in communities owned by owner. Existing names
// are skipped, so the call is idempotent. It returns every built-in row.
func Communities(db *gorm.DB, owner *models.User) ([]*models.Community, error) {
	builtIns, err := LoadBuiltInCommunities()
	if err != nil {
		return nil, err
	}

	out := make([]*models.Community, 0, len(builtIns))
	for _, item := range builtIns {
		var community models.Community
		err := db.Transaction(func(tx *gorm.DB) error {
			findErr := tx.Where("name = ?", item.Name).First(&community).Error
			switch {
			case findErr == nil:
				return nil
			case !errors.Is(findErr, gorm.ErrRecordNotFound):
				return findErr
			}

			community = models.Community{Name: item.Name, Description: item.Description, OwnerID: owner.ID}
			if err := tx.Create(&community).Error; err != nil {
				return err
			}
			return tx.Create(&models.CommunityMembership{UserID: owner.ID, CommunityID: community.ID}).Error
		})
		if err != nil {
			return nil, fmt.Errorf("seed built-in community %q: %w", item.Name, err)
		}
		out = append(out, &community)
	}
	return out, nil
}

// SystemUsername owns the built-in communities.
const SystemUsername = "agrisocial"

// BuiltIns ensures the system user and the built-in communities exist.
func BuiltIns(db *gorm.DB) ([]*models.Community, error) {
	owner, err := systemUser(db)
	if err != nil {
		return nil, err
	}
	return Communities(db, owner)
}

// systemUser returns the owner of built-in rows, creating it with a random
// password nobody knows.
func systemUser(db *gorm.DB) (*models.User, error) {
	var user models.User
	err := db.Where("username = ?", SystemUsername).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user = models.User{
		Username: SystemUsername,
		Email:    "team@agrisocial.local",
		Password: string(hashed),
		Bio:      "Official agrisocial account.",
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("create system user: %w", err)
	}
	return &user, nil
}
