// Package seed fills a database with demo growers, communities, posts and
// listings for development and tests.
package seed

import (
	"fmt"
	"log"

	"agrisocial/internal/database"
	"agrisocial/internal/models"

	"gorm.io/gorm"
)

// Options configures the seeder.
type Options struct {
	NumUsers   int
	NumPosts   int
	SkipBcrypt bool
	BatchSize  int
	MaxDays    int
	// RandomSeed makes runs reproducible when non-zero.
	RandomSeed int64
}

// Summary counts the rows a run created.
type Summary struct {
	Users       int
	Communities int
	Posts       int
	Comments    int
	Items       int
	Messages    int
}

// Seeder populates the database through a Factory.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
	opts    Options
}

// NewSeeder builds a Seeder for db.
func NewSeeder(db *gorm.DB, opts Options) (*Seeder, error) {
	f, err := NewFactory(db, opts)
	if err != nil {
		return nil, err
	}
	return &Seeder{db: db, factory: f, opts: opts}, nil
}

// ClearAll deletes every row of the schema-managed tables, children first.
func (s *Seeder) ClearAll() error {
	all := database.PersistentModels()
	for i := len(all) - 1; i >= 0; i-- {
		if err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(all[i]).Error; err != nil {
			return fmt.Errorf("clear %T: %w", all[i], err)
		}
	}
	log.Println("existing data cleared")
	return nil
}

// Run creates users, built-in communities with members, posts with
// comments and likes, follows, marketplace listings and direct messages.
func (s *Seeder) Run() (Summary, error) {
	var sum Summary
	f := s.factory

	users := make([]*models.User, 0, s.opts.NumUsers)
	for i := 0; i < s.opts.NumUsers; i++ {
		u, err := f.CreateUser()
		if err != nil {
			return sum, fmt.Errorf("create user: %w", err)
		}
		users = append(users, u)
	}
	sum.Users = len(users)
	log.Printf("%d users created", sum.Users)
	if len(users) == 0 {
		return sum, nil
	}

	communities, err := BuiltIns(s.db)
	if err != nil {
		return sum, err
	}
	sum.Communities = len(communities)
	for _, u := range users {
		for _, c := range communities {
			if f.rng.Intn(3) == 0 {
				if err := f.Join(u, c); err != nil {
					return sum, fmt.Errorf("join community: %w", err)
				}
			}
		}
	}

	posts := make([]*models.Post, 0, s.opts.NumPosts)
	for i := 0; i < s.opts.NumPosts; i++ {
		author := users[f.rng.Intn(len(users))]
		var community *models.Community
		if f.rng.Intn(2) == 0 {
			community = communities[f.rng.Intn(len(communities))]
		}
		posts = append(posts, f.BuildPost(author, community))
	}
	if err := f.CreatePosts(posts); err != nil {
		return sum, fmt.Errorf("create posts: %w", err)
	}
	sum.Posts = len(posts)
	log.Printf("%d posts created", sum.Posts)

	for _, p := range posts {
		for i := f.rng.Intn(3); i > 0; i-- {
			top, err := f.CreateComment(users[f.rng.Intn(len(users))], p, nil)
			if err != nil {
				return sum, fmt.Errorf("create comment: %w", err)
			}
			sum.Comments++
			if f.rng.Intn(2) == 0 {
				if _, err := f.CreateComment(users[f.rng.Intn(len(users))], p, top); err != nil {
					return sum, fmt.Errorf("create reply: %w", err)
				}
				sum.Comments++
			}
		}
		for i := f.rng.Intn(4); i > 0; i-- {
			if err := f.LikePost(users[f.rng.Intn(len(users))], p); err != nil {
				return sum, fmt.Errorf("like post: %w", err)
			}
		}
	}

	for i, u := range users {
		if err := f.Follow(u, users[(i+1)%len(users)]); err != nil {
			return sum, fmt.Errorf("follow: %w", err)
		}
		if f.rng.Intn(3) == 0 {
			if _, err := f.CreateItem(u); err != nil {
				return sum, fmt.Errorf("create item: %w", err)
			}
			sum.Items++
		}
		if len(users) > 1 {
			if _, err := f.SendDirect(u, users[(i+1)%len(users)]); err != nil {
				return sum, fmt.Errorf("send message: %w", err)
			}
			sum.Messages++
		}
	}

	log.Printf("seed complete: %+v", sum)
	return sum, nil
}
