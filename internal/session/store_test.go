package session

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"testing"

	"job-agent/internal/domain/event"
	"job-agent/internal/domain/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quiet = log.New(io.Discard, "", 0)

func sampleUser() user.User {
	return user.User{
		ID:                 7,
		Email:              "dana@example.com",
		FullName:           "Dana Reyes",
		Phone:              "+1 555 0100",
		Skills:             "AWS, Terraform, Go",
		PreferredLocations: "Remote",
		DesiredSalaryMin:   120000,
		DesiredSalaryMax:   180000,
		EmploymentData:     json.RawMessage(`{"current_title":"SRE"}`),
	}
}

type failingStorage struct {
	MemoryStorage
	loadErr error
	saveErr error
}

func (f *failingStorage) Load(ctx context.Context) (Record, error) {
	if f.loadErr != nil {
		return Record{}, f.loadErr
	}
	return f.MemoryStorage.Load(ctx)
}

func (f *failingStorage) Save(ctx context.Context, rec Record) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	return f.MemoryStorage.Save(ctx, rec)
}

type rejectAll struct{}

func (rejectAll) Check(string) error { return errors.New("expired") }

func TestStore_LoginThenRestore(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	u := sampleUser()

	NewStore(storage, nil, nil, quiet).Login(ctx, u, "tok-1")

	reloaded := NewStore(storage, nil, nil, quiet)
	got, ok := reloaded.Restore(ctx)
	require.True(t, ok)
	assert.Equal(t, u, got)
	assert.Equal(t, "tok-1", reloaded.Token())
	assert.True(t, reloaded.Authenticated())
}

func TestStore_LogoutThenRestore(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	s := NewStore(storage, nil, nil, quiet)
	s.Login(ctx, sampleUser(), "tok-1")

	s.Logout(ctx)

	_, ok := NewStore(storage, nil, nil, quiet).Restore(ctx)
	assert.False(t, ok)
	assert.False(t, s.Authenticated())
	assert.Empty(t, s.Token())
}

func TestStore_RestoreCorruptUserClearsPair(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	require.NoError(t, storage.Save(ctx, Record{Token: "tok", User: []byte("{not json")}))

	_, ok := NewStore(storage, nil, nil, quiet).Restore(ctx)
	assert.False(t, ok)

	_, err := storage.Load(ctx)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestStore_RestoreRejectedToken(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	NewStore(storage, nil, nil, quiet).Login(ctx, sampleUser(), "tok")

	_, ok := NewStore(storage, rejectAll{}, nil, quiet).Restore(ctx)
	assert.False(t, ok)

	_, err := storage.Load(ctx)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestStore_StorageErrorsDegradeToLoggedOut(t *testing.T) {
	ctx := context.Background()
	storage := &failingStorage{loadErr: errors.New("disk gone")}

	_, ok := NewStore(storage, nil, nil, quiet).Restore(ctx)
	assert.False(t, ok)

	storage = &failingStorage{saveErr: errors.New("read-only")}
	s := NewStore(storage, nil, nil, quiet)
	s.Login(ctx, sampleUser(), "tok")

	assert.True(t, s.Authenticated(), "in-memory session survives a failed persist")
	_, ok = NewStore(storage, nil, nil, quiet).Restore(ctx)
	assert.False(t, ok)
}

func TestStore_UpdateUserKeepsToken(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	s := NewStore(storage, nil, nil, quiet)
	s.Login(ctx, sampleUser(), "tok-keep")

	u := sampleUser()
	u.FullName = "Dana R."
	s.UpdateUser(ctx, u)

	got, ok := NewStore(storage, nil, nil, quiet).Restore(ctx)
	require.True(t, ok)
	assert.Equal(t, "Dana R.", got.FullName)
	assert.Equal(t, "tok-keep", s.Token())
}

func TestStore_UpdateUserWithoutSessionIsIgnored(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	s := NewStore(storage, nil, nil, quiet)

	s.UpdateUser(ctx, sampleUser())

	_, ok := s.User()
	assert.False(t, ok)
	_, err := storage.Load(ctx)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestStore_NotifiesSessionChanges(t *testing.T) {
	ctx := context.Background()
	var got []string
	n := event.NotifierFunc(func(e event.Event) { got = append(got, e.Message) })

	s := NewStore(nil, nil, n, quiet)
	s.Signup(ctx, sampleUser(), "tok")
	s.Logout(ctx)

	assert.Equal(t, []string{"signup", "logout"}, got)
}
