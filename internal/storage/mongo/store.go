package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/binhbb2204/GameShelf/internal/storage"
	"github.com/binhbb2204/GameShelf/pkg/models"
)

const usersCollection = "users"

// Store keeps one document per user with profile, stats and library embedded.
type Store struct {
	client *mongo.Client
	users  *mongo.Collection
}

var _ storage.Store = (*Store)(nil)

// New connects to uri and ensures the unique indexes on username and email.
func New(ctx context.Context, uri, dbName string) (*Store, error) {
	if uri == "" {
		return nil, errors.New("MONGO_URI is empty")
	}
	if dbName == "" {
		dbName = "gameshelf"
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	s := &Store{client: client, users: client.Database(dbName).Collection(usersCollection)}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_username")},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_email")},
	})
	if err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if user.Library == nil {
		user.Library = []models.GameEntry{}
	}
	if user.Profile.FavoriteGenres == nil {
		user.Profile.FavoriteGenres = []string{}
	}
	if _, err := s.users.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			if strings.Contains(err.Error(), "email") {
				return storage.ErrEmailTaken
			}
			return storage.ErrUsernameTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"username": username})
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	if err := s.users.FindOne(ctx, filter).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	normalize(&u)
	return &u, nil
}

func (s *Store) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return s.updateOne(ctx, id, bson.M{"password_hash": passwordHash})
}

func (s *Store) UpdateProfile(ctx context.Context, id string, profile models.Profile) error {
	genres := profile.FavoriteGenres
	if genres == nil {
		genres = []string{}
	}
	return s.updateOne(ctx, id, bson.M{"profile.bio": profile.Bio, "profile.favorite_genres": genres})
}

// SaveLibrary writes library and stats with a single document update.
func (s *Store) SaveLibrary(ctx context.Context, id string, library []models.GameEntry, stats models.Stats) error {
	if library == nil {
		library = []models.GameEntry{}
	}
	return s.updateOne(ctx, id, bson.M{"library": library, "stats": stats})
}

func (s *Store) updateOne(ctx context.Context, id string, set bson.M) error {
	res, err := s.users.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	res, err := s.users.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) SearchUsers(ctx context.Context, query string, limit int) ([]models.User, error) {
	filter := bson.M{"username": bson.M{"$regex": regexp.QuoteMeta(query), "$options": "i"}}
	opts := options.Find().
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "username", Value: 1}}).
		SetProjection(bson.M{"library": 0})

	cur, err := s.users.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer cur.Close(ctx)

	users := []models.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	for i := range users {
		normalize(&users[i])
		users[i].Library = nil
	}
	return users, nil
}

// normalize restores the shapes the JSON layer expects after a bson round
// trip: UTC times and empty rather than nil slices.
func normalize(u *models.User) {
	u.CreatedAt = u.CreatedAt.UTC()
	u.Profile.JoinDate = u.Profile.JoinDate.UTC()
	if u.Profile.FavoriteGenres == nil {
		u.Profile.FavoriteGenres = []string{}
	}
	if u.Library == nil {
		u.Library = []models.GameEntry{}
	}
	for i := range u.Library {
		e := &u.Library[i]
		e.DateAdded = e.DateAdded.UTC()
		if e.DateCompleted != nil {
			t := e.DateCompleted.UTC()
			e.DateCompleted = &t
		}
		if e.Platforms == nil {
			e.Platforms = []string{}
		}
		if e.Genres == nil {
			e.Genres = []string{}
		}
	}
}
