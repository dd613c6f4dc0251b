//go:build integration

package account

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/medibot/backend/internal/model/account"
	"github.com/zhouzirui/medibot/backend/internal/testutil"
)

func TestPostgresStoreUsers(t *testing.T) {
	store := NewPostgresStore(testutil.StartPostgres(t))
	ctx := context.Background()

	dob := time.Date(1980, 5, 17, 0, 0, 0, 0, time.UTC)
	user := account.User{
		ID:           "u1",
		Username:     "ana",
		Email:        "ana@example.com",
		PasswordHash: "hash",
		DOB:          &dob,
		Disease:      "type 2 diabetes",
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, store.Insert(ctx, user))

	got, err := store.GetByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)
	assert.Equal(t, "type 2 diabetes", got.Disease)
	require.NotNil(t, got.DOB)
	assert.Equal(t, "1980-05-17", got.DOB.Format("2006-01-02"))
	assert.True(t, got.CreatedAt.Equal(user.CreatedAt))

	user.ID = "u2"
	assert.ErrorIs(t, store.Insert(ctx, user), ErrEmailTaken)

	noDOB := account.User{ID: "u3", Username: "bo", Email: "bo@example.com", PasswordHash: "hash", CreatedAt: time.Now()}
	require.NoError(t, store.Insert(ctx, noDOB))
	got, err = store.GetByID(ctx, "u3")
	require.NoError(t, err)
	assert.Nil(t, got.DOB)

	_, err = store.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
