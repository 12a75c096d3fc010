package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskmanager-api/internal/domain"
	"github.com/phrazzld/taskmanager-api/internal/mocks"
	"github.com/phrazzld/taskmanager-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestMongoUserStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	ns := "taskmanager.users"

	mt.Run("create hashes password", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		user, err := domain.NewUser("alice", "alice@example.com", "secret123")
		require.NoError(mt, err)

		s := NewMongoUserStore(mt.DB, &mocks.MockPasswordHasher{}, nil)
		require.NoError(mt, s.Create(context.Background(), user))
		assert.Empty(mt, user.Password)
		assert.Equal(mt, "hashed:secret123", user.HashedPassword)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		inserted := started.Command.Lookup("documents").Array().Index(0).Value().Document()
		assert.Equal(mt, user.ID.String(), inserted.Lookup("_id").StringValue())
		assert.Equal(mt, "hashed:secret123", inserted.Lookup("password").StringValue())
		assert.True(mt, inserted.Lookup("isActive").Boolean())
	})

	mt.Run("create duplicate", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: taskmanager.users index: email_unique",
		}))

		user, err := domain.NewUser("alice", "alice@example.com", "secret123")
		require.NoError(mt, err)

		err = NewMongoUserStore(mt.DB, &mocks.MockPasswordHasher{}, nil).Create(context.Background(), user)
		assert.ErrorIs(mt, err, store.ErrUserExists)
	})

	mt.Run("get by login", func(mt *mtest.T) {
		id := uuid.New()
		now := time.Now().UTC().Truncate(time.Millisecond)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id.String()},
			{Key: "username", Value: "alice"},
			{Key: "email", Value: "alice@example.com"},
			{Key: "password", Value: "hash"},
			{Key: "isActive", Value: true},
			{Key: "createdAt", Value: now},
			{Key: "updatedAt", Value: now},
		}))

		user, err := NewMongoUserStore(mt.DB, &mocks.MockPasswordHasher{}, nil).
			GetByLogin(context.Background(), "Alice@Example.com")
		require.NoError(mt, err)
		assert.Equal(mt, id, user.ID)
		assert.Equal(mt, "hash", user.HashedPassword)
		assert.True(mt, user.CreatedAt.Equal(now))

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		or := started.Command.Lookup("filter", "$or").Array()
		assert.Equal(mt, "Alice@Example.com", or.Index(0).Value().Document().Lookup("username").StringValue())
		assert.Equal(mt, "alice@example.com", or.Index(1).Value().Document().Lookup("email").StringValue())
	})

	mt.Run("get by id missing", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := NewMongoUserStore(mt.DB, &mocks.MockPasswordHasher{}, nil).GetByID(context.Background(), uuid.New())
		assert.ErrorIs(mt, err, store.ErrUserNotFound)
	})

	mt.Run("corrupt id", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "not-a-uuid"},
			{Key: "username", Value: "alice"},
		}))

		_, err := NewMongoUserStore(mt.DB, &mocks.MockPasswordHasher{}, nil).GetByID(context.Background(), uuid.New())
		assert.ErrorIs(mt, err, domain.ErrInvalidID)
	})

	mt.Run("exists", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "n", Value: int32(1)}}))

		exists, err := NewMongoUserStore(mt.DB, &mocks.MockPasswordHasher{}, nil).
			ExistsByUsernameOrEmail(context.Background(), "alice", "other@example.com")
		require.NoError(mt, err)
		assert.True(mt, exists)
	})

	mt.Run("does not exist", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		exists, err := NewMongoUserStore(mt.DB, &mocks.MockPasswordHasher{}, nil).
			ExistsByUsernameOrEmail(context.Background(), "alice", "other@example.com")
		require.NoError(mt, err)
		assert.False(mt, exists)
	})
}
