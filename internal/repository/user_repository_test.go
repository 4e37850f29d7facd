package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"roomchat/infrastructure/db"
	"roomchat/internal/entity"
)

func usersNamespace(mt *mtest.T) string {
	return mt.DB.Name() + "." + db.UsersCollection
}

func TestUserRepository_Create(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("assigns id and timestamp", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		repo := NewUserRepository(mt.DB)
		user, err := repo.Create(context.Background(), entity.User{Username: "alice", Password: "hash"})
		require.NoError(mt, err)
		assert.NotEmpty(mt, user.Id)
		assert.Equal(mt, "alice", user.Username)
		assert.False(mt, user.CreatedAt.IsZero())
	})

	mt.Run("duplicate username", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: chat.users index: username_unique",
		}))

		repo := NewUserRepository(mt.DB)
		_, err := repo.Create(context.Background(), entity.User{Username: "alice", Password: "hash"})
		assert.ErrorIs(mt, err, ErrDuplicateUsername)
	})

	mt.Run("other write error is wrapped", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    121,
			Message: "Document failed validation",
		}))

		repo := NewUserRepository(mt.DB)
		_, err := repo.Create(context.Background(), entity.User{Username: "alice", Password: "hash"})
		require.Error(mt, err)
		assert.NotErrorIs(mt, err, ErrDuplicateUsername)
		assert.Contains(mt, err.Error(), "insert user")
	})
}

func TestUserRepository_GetByUsername(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("found", func(mt *mtest.T) {
		created := time.UnixMilli(1700000000000).UTC()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, usersNamespace(mt), mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "u-1"},
			{Key: "username", Value: "alice"},
			{Key: "password", Value: "hash"},
			{Key: "createdAt", Value: primitive.NewDateTimeFromTime(created)},
		}))

		repo := NewUserRepository(mt.DB)
		user, err := repo.GetByUsername(context.Background(), "alice")
		require.NoError(mt, err)
		assert.Equal(mt, entity.User{Id: "u-1", Username: "alice", Password: "hash", CreatedAt: created}, user)
	})

	mt.Run("not found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, usersNamespace(mt), mtest.FirstBatch))

		repo := NewUserRepository(mt.DB)
		_, err := repo.GetByUsername(context.Background(), "ghost")
		assert.ErrorIs(mt, err, ErrUserNotFound)
	})
}
