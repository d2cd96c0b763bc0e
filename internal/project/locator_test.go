package project

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocatorResolvesIDSlugAndURLToSameProject(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()
	p, err := s.Create(ctx, Project{
		Slug:           "required/required-valencia",
		RepositoryName: "wearerequired/required-valencia",
		RepositoryURL:  "https://github.com/wearerequired/required-valencia",
		SSHURL:         "git@github.com:wearerequired/required-valencia.git",
		HTTPSURL:       "https://github.com/wearerequired/required-valencia.git",
	})
	require.NoError(t, err)

	loc := NewLocator(s)
	for _, id := range []string{
		"1",
		" 1 ",
		"required/required-valencia",
		"https://github.com/wearerequired/required-valencia",
		"https://github.com/wearerequired/required-valencia.git",
		"git@github.com:wearerequired/required-valencia.git",
		"ssh://git@github.com/wearerequired/required-valencia.git",
		"https://github.com/wearerequired/required-valencia/tree/master",
	} {
		got, err := loc.Locate(ctx, id)
		require.NoError(t, err, id)
		assert.Equal(t, p.ID, got.ID, id)
	}
}

func TestLocatorNotFound(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()
	_, err := s.Create(ctx, Project{Slug: "a", RepositoryName: "o/r"})
	require.NoError(t, err)

	loc := NewLocator(s)
	for _, id := range []string{
		"",
		"0",
		"-5",
		"42",
		"does/not/exist",
		"https://github.com/nobody/nothing",
		"https://example.com/o/r",
		"%%%not a url%%%",
		"git@:",
	} {
		_, err := loc.Locate(ctx, id)
		assert.True(t, errors.Is(err, ErrNotFound), "identifier %q: got %v", id, err)
	}
}

func TestLocatorMatchesStoredURLWhenNameDiffers(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()
	// Repository renamed upstream; only the stored SSH URL still matches.
	p, err := s.Create(ctx, Project{
		Slug:           "legacy",
		RepositoryName: "old-org/legacy",
		SSHURL:         "git@gitlab.com:group/sub/legacy.git",
	})
	require.NoError(t, err)

	got, err := NewLocator(s).Locate(ctx, "git@gitlab.com:group/sub/legacy.git")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
}

func TestLocatorExtraHosts(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()
	p, err := s.Create(ctx, Project{Slug: "internal", RepositoryName: "team/app"})
	require.NoError(t, err)

	_, err = NewLocator(s).Locate(ctx, "https://git.example.com/team/app")
	assert.ErrorIs(t, err, ErrNotFound)

	loc := NewLocator(s, "git.example.com", " ")
	assert.Contains(t, loc.Hosts(), "git.example.com")
	got, err := loc.Locate(ctx, "https://git.example.com/team/app")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
}

type failingLookup struct{ err error }

func (f failingLookup) Get(context.Context, int64) (*Project, error)        { return nil, f.err }
func (f failingLookup) GetBySlug(context.Context, string) (*Project, error) { return nil, f.err }
func (f failingLookup) FindByRepositoryName(context.Context, string) (*Project, error) {
	return nil, f.err
}
func (f failingLookup) FindByRepositoryURL(context.Context, string) (*Project, error) {
	return nil, f.err
}

func TestLocatorPropagatesStorageErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("database is locked")
	loc := NewLocator(failingLookup{err: boom})

	_, err := loc.Locate(context.Background(), "12")
	assert.ErrorIs(t, err, boom)
	_, err = loc.Locate(context.Background(), "some/slug")
	assert.ErrorIs(t, err, boom)
}
