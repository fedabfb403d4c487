package snapshot

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Redis
// ==========================

func TestRedisStore_Miniredis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := NewRedisStore(client, time.Hour)
	ctx := context.Background()

	_, err = store.Get(ctx, "onboarding:snapshot:s1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(ctx, "onboarding:snapshot:s1", []byte(`{"a":1}`)))
	got, err := store.Get(ctx, "onboarding:snapshot:s1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(got))
	assert.Equal(t, time.Hour, mr.TTL("onboarding:snapshot:s1"))

	mr.FastForward(2 * time.Hour)
	_, err = store.Get(ctx, "onboarding:snapshot:s1")
	assert.ErrorIs(t, err, ErrNotFound, "abandoned flows expire")

	require.NoError(t, store.Set(ctx, "onboarding:snapshot:s1", []byte(`{}`)))
	require.NoError(t, store.Delete(ctx, "onboarding:snapshot:s1"))
	assert.False(t, mr.Exists("onboarding:snapshot:s1"))
}

func TestRedisStore_Errors(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisStore(client, time.Minute)
	ctx := context.Background()

	mock.ExpectSet("k", []byte("v"), time.Minute).SetErr(errors.New("READONLY"))
	err := store.Set(ctx, "k", []byte("v"))
	assert.ErrorContains(t, err, "READONLY")

	mock.ExpectGet("k").SetErr(errors.New("i/o timeout"))
	_, err = store.Get(ctx, "k")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Postgres
// ==========================

func TestPostgresStore(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresStore(db)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta(upsertSnapshotSQL)).
		WithArgs("s1", `{"a":1}`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, store.Set(ctx, "s1", []byte(`{"a":1}`)))

	mock.ExpectQuery(regexp.QuoteMeta(selectSnapshotSQL)).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow([]byte(`{"a":1}`)))
	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(got))

	mock.ExpectQuery(regexp.QuoteMeta(selectSnapshotSQL)).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}))
	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	mock.ExpectExec(regexp.QuoteMeta(deleteSnapshotSQL)).
		WithArgs("s1").
		WillReturnError(errors.New("connection lost"))
	assert.ErrorContains(t, store.Delete(ctx, "s1"), "connection lost")

	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// File
// ==========================

func TestFileStore(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.Get(ctx, "onboarding:snapshot:../../etc")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(ctx, "onboarding:snapshot:s1", []byte("one")))
	require.NoError(t, store.Set(ctx, "onboarding:snapshot:s1", []byte("two")))
	got, err := store.Get(ctx, "onboarding:snapshot:s1")
	require.NoError(t, err)
	assert.Equal(t, "two", string(got))

	require.NoError(t, store.Delete(ctx, "onboarding:snapshot:s1"))
	require.NoError(t, store.Delete(ctx, "onboarding:snapshot:s1"), "deleting twice is fine")
}
