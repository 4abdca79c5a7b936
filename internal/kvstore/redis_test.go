package kvstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStore_SetIfAbsent(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := NewRedisStore(db)
	ctx := context.Background()

	mock.ExpectSetNX("hold:show:7:A1", "x", 300*time.Second).SetVal(true)
	mock.ExpectSetNX("hold:show:7:A1", "y", 300*time.Second).SetVal(false)

	ok, err := s.SetIfAbsent(ctx, "hold:show:7:A1", "x", 300*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.SetIfAbsent(ctx, "hold:show:7:A1", "y", 300*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_GetMissingAndFailure(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := NewRedisStore(db)
	ctx := context.Background()

	mock.ExpectGet("a").RedisNil()
	mock.ExpectGet("b").SetErr(errors.New("connection refused"))
	mock.ExpectGet("c").SetVal("owner")

	_, err := s.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrMissing)

	_, err = s.Get(ctx, "b")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrMissing), "backend failure must not read as missing")

	v, err := s.Get(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, "owner", v)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_OwnerCheckedScripts(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := NewRedisStore(db)
	ctx := context.Background()

	mock.ExpectEvalSha(compareAndExpire.Hash(), []string{"k"}, "x", int64(300000)).SetVal(int64(1))
	mock.ExpectEvalSha(compareAndDelete.Hash(), []string{"k"}, "y").SetVal(int64(0))

	ok, err := s.ExpireIfValue(ctx, "k", "x", 300*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.DeleteIfValue(ctx, "k", "y")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_SetDeleteTTL(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := NewRedisStore(db)
	ctx := context.Background()

	mock.ExpectSet("pay:session:s1", "{}", 300*time.Second).SetVal("OK")
	mock.ExpectPTTL("pay:session:s1").SetVal(120 * time.Second)
	mock.ExpectPTTL("pay:session:gone").SetVal(time.Duration(-2))
	mock.ExpectDel("pay:session:s1").SetVal(1)

	require.NoError(t, s.Set(ctx, "pay:session:s1", "{}", 300*time.Second))

	d, err := s.TTL(ctx, "pay:session:s1")
	require.NoError(t, err)
	assert.Equal(t, 120*time.Second, d)

	_, err = s.TTL(ctx, "pay:session:gone")
	assert.ErrorIs(t, err, ErrMissing)

	require.NoError(t, s.Delete(ctx, "pay:session:s1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
