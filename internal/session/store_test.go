package session

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	jwt "github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStorage struct {
	MemoryStorage
	failSave  bool
	failClear bool
}

var errStorageDown = errors.New("storage down")

func (f *failingStorage) Save(ctx context.Context, value string) error {
	if f.failSave {
		return errStorageDown
	}
	return f.MemoryStorage.Save(ctx, value)
}

func (f *failingStorage) Clear(ctx context.Context) error {
	if f.failClear {
		return errStorageDown
	}
	return f.MemoryStorage.Clear(ctx)
}

func backendToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("backend-secret"))
	require.NoError(t, err)
	return tok
}

func TestInitializeEmpty(t *testing.T) {
	store := NewStore(NewMemoryStorage())

	sess, err := store.Initialize(context.Background())
	require.NoError(t, err)
	assert.False(t, sess.Authenticated())
	assert.Equal(t, Anonymous, store.State())
}

func TestLoginPersistsAcrossStores(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")

	first := NewStore(NewFileStorage(path))
	_, err := first.Initialize(ctx)
	require.NoError(t, err)
	require.NoError(t, first.Login(ctx, "tok-123"))
	assert.Equal(t, Authenticated, first.State())

	// a new process reading the same storage
	second := NewStore(NewFileStorage(path))
	sess, err := second.Initialize(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-123", sess.Token)
	assert.Equal(t, "tok-123", second.Token())
}

func TestLogoutClearsMemoryAndStorage(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	store := NewStore(storage)

	require.NoError(t, store.Login(ctx, "tok"))
	require.NoError(t, store.Logout(ctx))

	assert.Empty(t, store.Token())
	_, err := storage.Load(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	sess, err := NewStore(storage).Initialize(ctx)
	require.NoError(t, err)
	assert.False(t, sess.Authenticated())
}

func TestLoginRejectsEmptyToken(t *testing.T) {
	store := NewStore(NewMemoryStorage())
	assert.ErrorIs(t, store.Login(context.Background(), ""), ErrEmptyToken)
}

func TestLoginKeepsPreviousTokenWhenPersistFails(t *testing.T) {
	ctx := context.Background()
	storage := &failingStorage{}
	store := NewStore(storage)

	require.NoError(t, store.Login(ctx, "old"))

	storage.failSave = true
	err := store.Login(ctx, "new")
	assert.ErrorIs(t, err, errStorageDown)

	assert.Equal(t, "old", store.Token())
	persisted, err := storage.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "old", persisted)
}

func TestLogoutClearsMemoryWhenStorageFails(t *testing.T) {
	ctx := context.Background()
	storage := &failingStorage{}
	store := NewStore(storage)
	require.NoError(t, store.Login(ctx, "tok"))

	storage.failClear = true
	assert.ErrorIs(t, store.Logout(ctx), errStorageDown)
	assert.Empty(t, store.Token())
	assert.Equal(t, Anonymous, store.State())

	// The durable copy outlives the failed clear and comes back on the next start
	sess, err := NewStore(storage).Initialize(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok", sess.Token)

	storage.failClear = false
	require.NoError(t, store.Logout(ctx))
	sess, err = NewStore(storage).Initialize(ctx)
	require.NoError(t, err)
	assert.False(t, sess.Authenticated())
}

func TestSubscribersSeeTransitions(t *testing.T) {
	ctx := context.Background()
	store := NewStore(NewMemoryStorage())

	var mu sync.Mutex
	var seen []State
	unsubscribe := store.Subscribe(func(s State) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	})

	require.NoError(t, store.Login(ctx, "tok"))
	require.NoError(t, store.Logout(ctx))
	unsubscribe()
	require.NoError(t, store.Login(ctx, "tok"))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []State{Authenticated, Anonymous}, seen)
}

func TestSealedRoundTrip(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	sealer := &JWTSealer{Secret: []byte("0123456789abcdef")}

	store := NewStore(storage, WithSealer(sealer))
	require.NoError(t, store.Login(ctx, "tok-abc"))

	raw, err := storage.Load(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, "tok-abc", raw)

	sess, err := NewStore(storage, WithSealer(sealer)).Initialize(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-abc", sess.Token)
}

func TestTamperedSealIsDiscarded(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	require.NoError(t, storage.Save(ctx, "not-a-jwt"))

	store := NewStore(storage, WithSealer(&JWTSealer{Secret: []byte("0123456789abcdef")}))
	sess, err := store.Initialize(ctx)
	require.NoError(t, err)
	assert.False(t, sess.Authenticated())

	_, err = storage.Load(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSealWithOtherSecretIsRejected(t *testing.T) {
	sealed, err := (&JWTSealer{Secret: []byte("0123456789abcdef")}).Seal("tok")
	require.NoError(t, err)

	_, err = (&JWTSealer{Secret: []byte("fedcba9876543210")}).Open(sealed)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestUserID(t *testing.T) {
	assert.Equal(t, "u-1", Session{Token: backendToken(t, jwt.MapClaims{"userId": "u-1"})}.UserID())
	assert.Equal(t, "u-2", Session{Token: backendToken(t, jwt.MapClaims{"sub": "u-2"})}.UserID())
	assert.Equal(t, "", Session{Token: "opaque"}.UserID())
	assert.Equal(t, "", Session{}.UserID())
}
