package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskmanager-api/internal/domain"
	"github.com/phrazzld/taskmanager-api/internal/platform/logger"
	"github.com/phrazzld/taskmanager-api/internal/service/auth"
	"github.com/phrazzld/taskmanager-api/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type userDocument struct {
	ID        string    `bson:"_id"`
	Username  string    `bson:"username"`
	Email     string    `bson:"email"`
	Password  string    `bson:"password"`
	IsActive  bool      `bson:"isActive"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

func newUserDocument(u *domain.User) userDocument {
	return userDocument{
		ID:        u.ID.String(),
		Username:  u.Username,
		Email:     u.Email,
		Password:  u.HashedPassword,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (d userDocument) toDomain() (*domain.User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: user _id %q", domain.ErrInvalidID, d.ID)
	}
	return &domain.User{
		ID:             id,
		Username:       d.Username,
		Email:          d.Email,
		HashedPassword: d.Password,
		IsActive:       d.IsActive,
		CreatedAt:      d.CreatedAt.UTC(),
		UpdatedAt:      d.UpdatedAt.UTC(),
	}, nil
}

// MongoUserStore implements the store.UserStore interface on a MongoDB collection.
type MongoUserStore struct {
	coll   *mongo.Collection
	hasher auth.PasswordHasher
	logger *slog.Logger
}

var _ store.UserStore = (*MongoUserStore)(nil)

// NewMongoUserStore creates a MongoUserStore over the users collection of db.
func NewMongoUserStore(db *mongo.Database, hasher auth.PasswordHasher, logger *slog.Logger) *MongoUserStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &MongoUserStore{
		coll:   db.Collection(UsersCollection),
		hasher: hasher,
		logger: logger.With(slog.String("component", "user_store")),
	}
}

// Create implements store.UserStore.Create.
func (s *MongoUserStore) Create(ctx context.Context, user *domain.User) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := user.Validate(); err != nil {
		log.Warn("user validation failed during create", slog.String("error", err.Error()))
		return err
	}

	if user.Password != "" {
		hash, err := s.hasher.Hash(user.Password)
		if err != nil {
			log.Error("failed to hash password", slog.String("error", err.Error()))
			return err
		}
		user.HashedPassword = hash
		user.Password = ""
	}

	if _, err := s.coll.InsertOne(ctx, newUserDocument(user)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			log.Debug("username or email already registered", slog.String("username", user.Username))
			return store.ErrUserExists
		}
		log.Error("failed to insert user", slog.String("error", err.Error()))
		return store.NewStoreError("user", "create", "failed to insert user", err)
	}

	log.Info("user created", slog.String("user_id", user.ID.String()))
	return nil
}

// GetByID implements store.UserStore.GetByID.
func (s *MongoUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.findOne(ctx, "get_by_id", bson.D{{Key: "_id", Value: id.String()}})
}

// GetByLogin implements store.UserStore.GetByLogin.
func (s *MongoUserStore) GetByLogin(ctx context.Context, login string) (*domain.User, error) {
	return s.findOne(ctx, "get_by_login", loginFilter(login, login))
}

func loginFilter(username, email string) bson.D {
	return bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "username", Value: username}},
		bson.D{{Key: "email", Value: domain.NormalizeEmail(email)}},
	}}}
}

func (s *MongoUserStore) findOne(ctx context.Context, op string, filter bson.D) (*domain.User, error) {
	var doc userDocument
	if err := s.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrUserNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to query user",
			slog.String("operation", op),
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("user", op, "failed to query user", err)
	}

	user, err := doc.toDomain()
	if err != nil {
		return nil, store.NewStoreError("user", op, "corrupt user document", err)
	}
	return user, nil
}

// ExistsByUsernameOrEmail implements store.UserStore.ExistsByUsernameOrEmail.
func (s *MongoUserStore) ExistsByUsernameOrEmail(
	ctx context.Context,
	username, email string,
) (bool, error) {
	n, err := s.coll.CountDocuments(ctx, loginFilter(username, email), options.Count().SetLimit(1))
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to check user existence",
			slog.String("error", err.Error()))
		return false, store.NewStoreError("user", "exists", "failed to check user existence", err)
	}
	return n > 0, nil
}
