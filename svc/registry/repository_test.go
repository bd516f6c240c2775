package registry_test

import (
	"context"
	"errors"
	"io/fs"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metisnation/registry/svc/registry"
)

var (
	now      = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	userID   = uuid.MustParse("0f8fad5b-d9cb-469f-a165-70867728950e")
	personID = uuid.MustParse("7c9e6679-7425-40de-944b-e07fc1f90ae7")
	birth    = time.Date(1990, 10, 22, 0, 0, 0, 0, time.UTC)
)

var profileColumns = []string{
	"id", "person_id", "subject_id", "email", "email_verified",
	"first_name", "last_name", "birth_date",
	"gender_type_id", "gender_name", "phone",
	"created_at", "updated_at",
}

func newRepo(t *testing.T) (*registry.Repository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})

	ids := []uuid.UUID{userID, personID}
	repo := registry.NewRepository(mock,
		registry.WithClock(func() time.Time { return now }),
		registry.WithIDGenerator(func() uuid.UUID {
			id := ids[0]
			ids = ids[1:]
			return id
		}),
	)
	return repo, mock
}

func TestCreateUserWithPerson(t *testing.T) {
	t.Parallel()

	in := registry.NewUser{
		SubjectID: "sub-1",
		Email:     "louis@example.com",
		FirstName: "Louis",
		LastName:  "Riel",
		BirthDate: birth,
	}

	t.Run("inserts person and user in a transaction", func(t *testing.T) {
		t.Parallel()
		repo, mock := newRepo(t)

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO persons").
			WithArgs(personID, "Louis", "Riel", birth, now).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectExec("INSERT INTO users").
			WithArgs(userID, "sub-1", "louis@example.com", personID, now).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectCommit()

		p, err := repo.CreateUserWithPerson(context.Background(), in)
		require.NoError(t, err)
		assert.Equal(t, userID, p.UserID)
		assert.Equal(t, personID, p.PersonID)
		assert.Equal(t, "sub-1", p.SubjectID)
		assert.False(t, p.EmailVerified)
		assert.Equal(t, now, p.CreatedAt)
	})

	t.Run("duplicate subject rolls back", func(t *testing.T) {
		t.Parallel()
		repo, mock := newRepo(t)

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO persons").
			WithArgs(personID, "Louis", "Riel", birth, now).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectExec("INSERT INTO users").
			WithArgs(userID, "sub-1", "louis@example.com", personID, now).
			WillReturnError(&pgconn.PgError{Code: "23505"})
		mock.ExpectRollback()

		_, err := repo.CreateUserWithPerson(context.Background(), in)
		assert.ErrorIs(t, err, registry.ErrUserExists)
	})

	t.Run("begin failure", func(t *testing.T) {
		t.Parallel()
		repo, mock := newRepo(t)

		mock.ExpectBegin().WillReturnError(errors.New("connection reset"))

		_, err := repo.CreateUserWithPerson(context.Background(), in)
		assert.ErrorIs(t, err, registry.ErrFailedToCreateUser)
	})
}

func TestGetUserBySubjectID(t *testing.T) {
	t.Parallel()

	t.Run("found", func(t *testing.T) {
		t.Parallel()
		repo, mock := newRepo(t)

		mock.ExpectQuery("FROM users u").
			WithArgs("sub-1").
			WillReturnRows(pgxmock.NewRows(profileColumns).AddRow(
				userID, personID, "sub-1", "louis@example.com", true,
				"Louis", "Riel", birth,
				int32(3), "Two-Spirit", "+14165550100",
				now, now,
			))

		p, err := repo.GetUserBySubjectID(context.Background(), "sub-1")
		require.NoError(t, err)
		assert.Equal(t, registry.Profile{
			UserID:         userID,
			PersonID:       personID,
			SubjectID:      "sub-1",
			Email:          "louis@example.com",
			EmailVerified:  true,
			FirstName:      "Louis",
			LastName:       "Riel",
			BirthDate:      birth,
			GenderTypeID:   3,
			GenderTypeName: "Two-Spirit",
			Phone:          "+14165550100",
			CreatedAt:      now,
			UpdatedAt:      now,
		}, p)
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()
		repo, mock := newRepo(t)

		mock.ExpectQuery("FROM users u").WithArgs("missing").WillReturnError(pgx.ErrNoRows)

		_, err := repo.GetUserBySubjectID(context.Background(), "missing")
		assert.ErrorIs(t, err, registry.ErrUserNotFound)
	})
}

func TestGetUserByEmail(t *testing.T) {
	t.Parallel()

	t.Run("matches regardless of case", func(t *testing.T) {
		t.Parallel()
		repo, mock := newRepo(t)

		mock.ExpectQuery(`WHERE lower\(u\.email\) = lower\(\$1\)`).
			WithArgs("Louis@Example.com").
			WillReturnRows(pgxmock.NewRows(profileColumns).AddRow(
				userID, personID, "sub-1", "louis@example.com", false,
				"Louis", "Riel", birth,
				int32(0), "", "",
				now, now,
			))

		p, err := repo.GetUserByEmail(context.Background(), "Louis@Example.com")
		require.NoError(t, err)
		assert.Equal(t, "sub-1", p.SubjectID)
		assert.Equal(t, "Louis", p.FirstName)
		assert.False(t, p.EmailVerified)
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()
		repo, mock := newRepo(t)

		mock.ExpectQuery("WHERE lower").WithArgs("nobody@example.com").WillReturnError(pgx.ErrNoRows)

		_, err := repo.GetUserByEmail(context.Background(), "nobody@example.com")
		assert.ErrorIs(t, err, registry.ErrUserNotFound)
	})

	t.Run("query error", func(t *testing.T) {
		t.Parallel()
		repo, mock := newRepo(t)

		mock.ExpectQuery("WHERE lower").WithArgs("louis@example.com").WillReturnError(errors.New("timeout"))

		_, err := repo.GetUserByEmail(context.Background(), "louis@example.com")
		assert.ErrorIs(t, err, registry.ErrFailedToQuery)
	})
}

func TestUpdateProfile(t *testing.T) {
	t.Parallel()

	t.Run("clears optional fields with nulls", func(t *testing.T) {
		t.Parallel()
		repo, mock := newRepo(t)

		mock.ExpectExec("UPDATE persons p").
			WithArgs("sub-1", "Louis", "Riel", birth, nil, nil, now).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := repo.UpdateProfile(context.Background(), "sub-1", registry.ProfileUpdate{
			FirstName: "Louis",
			LastName:  "Riel",
			BirthDate: birth,
		})
		assert.NoError(t, err)
	})

	t.Run("unknown subject", func(t *testing.T) {
		t.Parallel()
		repo, mock := newRepo(t)

		mock.ExpectExec("UPDATE persons p").
			WithArgs("missing", "", "", time.Time{}, int32(2), nil, now).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.UpdateProfile(context.Background(), "missing", registry.ProfileUpdate{GenderTypeID: 2})
		assert.ErrorIs(t, err, registry.ErrUserNotFound)
	})

	t.Run("unknown gender type", func(t *testing.T) {
		t.Parallel()
		repo, mock := newRepo(t)

		mock.ExpectExec("UPDATE persons p").
			WithArgs("sub-1", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), int32(99), nil, now).
			WillReturnError(&pgconn.PgError{Code: "23503"})

		err := repo.UpdateProfile(context.Background(), "sub-1", registry.ProfileUpdate{GenderTypeID: 99})
		assert.ErrorIs(t, err, registry.ErrInvalidGenderType)
	})
}

func TestUpdateEmailStatus(t *testing.T) {
	t.Parallel()
	repo, mock := newRepo(t)

	mock.ExpectExec("UPDATE users SET email_verified").
		WithArgs("sub-1", true, now).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE users SET email_verified").
		WithArgs("gone", true, now).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	require.NoError(t, repo.UpdateEmailStatus(context.Background(), "sub-1", true))
	assert.ErrorIs(t, repo.UpdateEmailStatus(context.Background(), "gone", true), registry.ErrUserNotFound)
}

func TestListGenderTypes(t *testing.T) {
	t.Parallel()

	t.Run("ordered rows", func(t *testing.T) {
		t.Parallel()
		repo, mock := newRepo(t)

		mock.ExpectQuery("FROM gender_types").WillReturnRows(
			pgxmock.NewRows([]string{"id", "name"}).
				AddRow(int32(1), "Female").
				AddRow(int32(2), "Male"),
		)

		got, err := repo.ListGenderTypes(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []registry.GenderType{{ID: 1, Name: "Female"}, {ID: 2, Name: "Male"}}, got)
	})

	t.Run("query error", func(t *testing.T) {
		t.Parallel()
		repo, mock := newRepo(t)

		mock.ExpectQuery("FROM gender_types").WillReturnError(errors.New("timeout"))

		_, err := repo.ListGenderTypes(context.Background())
		assert.ErrorIs(t, err, registry.ErrFailedToQuery)
	})
}

func TestMigrations(t *testing.T) {
	t.Parallel()

	entries, err := fs.ReadDir(registry.Migrations(), ".")
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, "00001_registry.sql", entries[0].Name())
}
