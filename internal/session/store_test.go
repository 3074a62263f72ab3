package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crimelense/internal/persist"
)

func strPtr(s string) *string { return &s }

// failingPort fails every write while broken is set.
type failingPort struct {
	*persist.Memory
	broken bool
}

var errDiskFull = errors.New("disk full")

func (f *failingPort) Set(ctx context.Context, data []byte) error {
	if f.broken {
		return errDiskFull
	}
	return f.Memory.Set(ctx, data)
}

func (f *failingPort) Remove(ctx context.Context) error {
	if f.broken {
		return errDiskFull
	}
	return f.Memory.Remove(ctx)
}

func reload(t *testing.T, port persist.Port) Session {
	t.Helper()
	return NewStore(port).LoadOnStartup(context.Background())
}

func TestLoginDerivesDisplayName(t *testing.T) {
	store := NewStore(persist.NewMemory())
	require.NoError(t, store.Login(context.Background(), User{Email: "alice@site.com"}))

	s := store.Session()
	require.True(t, s.Authenticated)
	assert.Equal(t, "Alice", s.User.Name)
	assert.Nil(t, s.User.DisplayPicture)
}

func TestLoginKeepsGivenName(t *testing.T) {
	store := NewStore(persist.NewMemory())
	require.NoError(t, store.Login(context.Background(), User{Email: "a@b.co", Name: "Ada Lovelace"}))
	assert.Equal(t, "Ada Lovelace", store.Session().User.Name)
}

func TestLoginRequiresEmail(t *testing.T) {
	store := NewStore(persist.NewMemory())
	err := store.Login(context.Background(), User{Email: "   "})
	assert.ErrorIs(t, err, ErrEmailRequired)
	assert.False(t, store.Session().Authenticated)
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		ops  func(t *testing.T, s *Store)
	}{
		{"login", func(t *testing.T, s *Store) {
			require.NoError(t, s.Login(ctx, User{Email: "alice@site.com"}))
		}},
		{"login then update", func(t *testing.T, s *Store) {
			require.NoError(t, s.Login(ctx, User{Email: "alice@site.com"}))
			require.NoError(t, s.UpdateUser(ctx, UserPatch{Name: strPtr("Alice Smith"), DisplayPicture: strPtr("avatars/1.png")}))
		}},
		{"update clears picture", func(t *testing.T, s *Store) {
			require.NoError(t, s.Login(ctx, User{Email: "bob@site.com", DisplayPicture: strPtr("x.png")}))
			require.NoError(t, s.UpdateUser(ctx, UserPatch{ClearDisplayPicture: true}))
		}},
		{"relogin as someone else", func(t *testing.T, s *Store) {
			require.NoError(t, s.Login(ctx, User{Email: "alice@site.com"}))
			require.NoError(t, s.Login(ctx, User{Email: "carol@site.com", Name: "Carol"}))
		}},
		{"logout", func(t *testing.T, s *Store) {
			require.NoError(t, s.Login(ctx, User{Email: "alice@site.com"}))
			require.NoError(t, s.Logout(ctx))
		}},
		{"logout then login", func(t *testing.T, s *Store) {
			require.NoError(t, s.Login(ctx, User{Email: "alice@site.com"}))
			require.NoError(t, s.Logout(ctx))
			require.NoError(t, s.Login(ctx, User{Email: "dave@site.com"}))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			port := persist.NewMemory()
			store := NewStore(port)
			tt.ops(t, store)

			assert.Equal(t, store.Session(), reload(t, port))
		})
	}
}

func TestLogoutRemovesRecord(t *testing.T) {
	ctx := context.Background()
	port := persist.NewMemory()
	store := NewStore(port)
	require.NoError(t, store.Login(ctx, User{Email: "alice@site.com"}))
	require.NoError(t, store.Logout(ctx))

	_, err := port.Get(ctx)
	assert.ErrorIs(t, err, persist.ErrNotFound)
	assert.Equal(t, Session{}, store.Session())
}

func TestUpdateUserWhileLoggedOut(t *testing.T) {
	ctx := context.Background()
	port := persist.NewMemory()
	store := NewStore(port)

	err := store.UpdateUser(ctx, UserPatch{Name: strPtr("Bob")})

	var ise *InvalidStateError
	require.ErrorAs(t, err, &ise)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, Session{}, store.Session())
	_, err = port.Get(ctx)
	assert.ErrorIs(t, err, persist.ErrNotFound, "nothing persisted")
}

func TestUpdateUserRejectsBlankEmail(t *testing.T) {
	ctx := context.Background()
	store := NewStore(persist.NewMemory())
	require.NoError(t, store.Login(ctx, User{Email: "alice@site.com"}))

	err := store.UpdateUser(ctx, UserPatch{Email: strPtr(" ")})
	assert.ErrorIs(t, err, ErrEmailRequired)
	assert.Equal(t, "alice@site.com", store.Session().User.Email)
}

// An update made on behalf of one user must not land on a session that
// another user signed into in the meantime.
func TestUpdateUserAsChecksOwner(t *testing.T) {
	ctx := context.Background()
	port := persist.NewMemory()
	store := NewStore(port)
	require.NoError(t, store.Login(ctx, User{Email: "alice@site.com"}))
	require.NoError(t, store.Login(ctx, User{Email: "bob@site.com"}))

	err := store.UpdateUserAs(ctx, "alice@site.com", UserPatch{Name: strPtr("Alice Smith")})
	assert.ErrorIs(t, err, ErrNotOwner)
	assert.Equal(t, "Bob", store.Session().User.Name)
	assert.Equal(t, "Bob", reload(t, port).User.Name, "nothing persisted")

	assert.ErrorIs(t, store.UpdateUserAs(ctx, "", UserPatch{Name: strPtr("X")}), ErrNotOwner)

	require.NoError(t, store.UpdateUserAs(ctx, "Bob@Site.com", UserPatch{Name: strPtr("Bob Jones")}))
	assert.Equal(t, "Bob Jones", store.Session().User.Name)

	require.NoError(t, store.Logout(ctx))
	assert.ErrorIs(t, store.UpdateUserAs(ctx, "bob@site.com", UserPatch{Name: strPtr("B")}), ErrInvalidState)
}

func TestWriteFailureLeavesSessionUnchanged(t *testing.T) {
	ctx := context.Background()
	port := &failingPort{Memory: persist.NewMemory()}
	store := NewStore(port)
	require.NoError(t, store.Login(ctx, User{Email: "alice@site.com"}))
	before := store.Session()

	port.broken = true
	assert.ErrorIs(t, store.Login(ctx, User{Email: "mallory@site.com"}), errDiskFull)
	assert.ErrorIs(t, store.UpdateUser(ctx, UserPatch{Name: strPtr("Eve")}), errDiskFull)
	assert.ErrorIs(t, store.Logout(ctx), errDiskFull)

	assert.Equal(t, before, store.Session())
	port.broken = false
	assert.Equal(t, before, reload(t, port))
}

func TestSessionReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewStore(persist.NewMemory())
	require.NoError(t, store.Login(ctx, User{Email: "alice@site.com", DisplayPicture: strPtr("a.png")}))

	s := store.Session()
	s.User.Name = "changed"
	*s.User.DisplayPicture = "changed.png"

	again := store.Session()
	assert.Equal(t, "Alice", again.User.Name)
	assert.Equal(t, "a.png", *again.User.DisplayPicture)
}

func TestLoadOnStartup(t *testing.T) {
	ctx := context.Background()

	t.Run("absent record", func(t *testing.T) {
		assert.Equal(t, Session{}, reload(t, persist.NewMemory()))
	})

	t.Run("record written by the browser app", func(t *testing.T) {
		port := persist.NewMemory()
		require.NoError(t, port.Set(ctx, []byte(`{"isAuthenticated":true,"user":{"name":"Alice","email":"alice@site.com","displayPicture":null,"theme":"dark"},"extra":1}`)))

		s := reload(t, port)
		require.True(t, s.Authenticated)
		assert.Equal(t, User{Email: "alice@site.com", Name: "Alice"}, *s.User)
	})

	corrupt := []string{
		``,
		`not json`,
		`{"isAuthenticated":true`,
		`null`,
		`[]`,
		`"string"`,
		`{}`,
		`{"isAuthenticated":false,"user":{"email":"alice@site.com"}}`,
		`{"isAuthenticated":true}`,
		`{"isAuthenticated":true,"user":null}`,
		`{"isAuthenticated":true,"user":{"name":"Alice"}}`,
		`{"isAuthenticated":true,"user":{"email":42}}`,
		`{"isAuthenticated":"yes","user":{"email":"alice@site.com"}}`,
		"\x00\xff\xfe",
	}
	for _, raw := range corrupt {
		t.Run("corrupt "+raw, func(t *testing.T) {
			port := persist.NewMemory()
			require.NoError(t, port.Set(ctx, []byte(raw)))

			var s Session
			assert.NotPanics(t, func() { s = reload(t, port) })
			assert.Equal(t, Session{}, s)

			_, err := port.Get(ctx)
			assert.ErrorIs(t, err, persist.ErrNotFound, "corrupt record purged")
		})
	}
}

type brokenReadPort struct{ persist.Memory }

func (*brokenReadPort) Get(context.Context) ([]byte, error) { return nil, errors.New("io error") }

func TestLoadOnStartupReadErrorKeepsRecord(t *testing.T) {
	port := &brokenReadPort{}
	require.NoError(t, port.Set(context.Background(), []byte(`{"isAuthenticated":true,"user":{"email":"a@b.co"}}`)))

	assert.Equal(t, Session{}, NewStore(port).LoadOnStartup(context.Background()))
	data, err := port.Memory.Get(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, data, "a read failure is not corruption")
}
