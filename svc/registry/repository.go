package registry

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/metisnation/registry/pkg/pg"
)

// DB is satisfied by *pgxpool.Pool and pgxmock pools.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// RepositoryOption configures a Repository.
type RepositoryOption func(*Repository)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) RepositoryOption {
	return func(r *Repository) { r.now = now }
}

// WithIDGenerator overrides primary key generation.
func WithIDGenerator(gen func() uuid.UUID) RepositoryOption {
	return func(r *Repository) { r.newID = gen }
}

// Repository implements the registry operations over pgx.
type Repository struct {
	db    DB
	now   func() time.Time
	newID func() uuid.UUID
}

// NewRepository creates a repository.
func NewRepository(db DB, opts ...RepositoryOption) *Repository {
	r := &Repository{db: db, now: time.Now, newID: uuid.New}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

const (
	insertPersonQuery = `INSERT INTO persons (id, first_name, last_name, birth_date, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $5)`

	insertUserQuery = `INSERT INTO users (id, subject_id, email, email_verified, person_id, created_at, updated_at)
VALUES ($1, $2, $3, FALSE, $4, $5, $5)`

	selectProfileQuery = `SELECT u.id, p.id, u.subject_id, u.email, u.email_verified,
       p.first_name, p.last_name, p.birth_date,
       COALESCE(p.gender_type_id, 0), COALESCE(g.name, ''), COALESCE(p.phone, ''),
       u.created_at, p.updated_at
FROM users u
JOIN persons p ON p.id = u.person_id
LEFT JOIN gender_types g ON g.id = p.gender_type_id
`

	profileBySubjectQuery = selectProfileQuery + `WHERE u.subject_id = $1`
	profileByEmailQuery   = selectProfileQuery + `WHERE lower(u.email) = lower($1)`

	updateProfileQuery = `UPDATE persons p
SET first_name = $2, last_name = $3, birth_date = $4, gender_type_id = $5, phone = $6, updated_at = $7
FROM users u
WHERE u.person_id = p.id AND u.subject_id = $1`

	updateEmailStatusQuery = `UPDATE users SET email_verified = $2, updated_at = $3 WHERE subject_id = $1`

	listGenderTypesQuery = `SELECT id, name FROM gender_types ORDER BY id`
)

// CreateUserWithPerson inserts the person and user rows in one transaction.
func (r *Repository) CreateUserWithPerson(ctx context.Context, in NewUser) (Profile, error) {
	now := r.now().UTC()
	p := Profile{
		UserID:    r.newID(),
		PersonID:  r.newID(),
		SubjectID: in.SubjectID,
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		BirthDate: in.BirthDate,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := r.insertUser(ctx, p, now)
	switch {
	case err == nil:
		return p, nil
	case pg.IsDuplicateKeyError(err):
		return Profile{}, errors.Join(ErrUserExists, err)
	default:
		return Profile{}, errors.Join(ErrFailedToCreateUser, err)
	}
}

func (r *Repository) insertUser(ctx context.Context, p Profile, now time.Time) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, insertPersonQuery, p.PersonID, p.FirstName, p.LastName, p.BirthDate, now); err != nil {
		return errors.Join(err, tx.Rollback(ctx))
	}
	if _, err := tx.Exec(ctx, insertUserQuery, p.UserID, p.SubjectID, p.Email, p.PersonID, now); err != nil {
		return errors.Join(err, tx.Rollback(ctx))
	}
	return tx.Commit(ctx)
}

// GetUserBySubjectID loads the profile of a Cognito subject.
func (r *Repository) GetUserBySubjectID(ctx context.Context, subjectID string) (Profile, error) {
	return r.getProfile(ctx, profileBySubjectQuery, subjectID)
}

// GetUserByEmail loads a profile by its email, ignoring case.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (Profile, error) {
	return r.getProfile(ctx, profileByEmailQuery, email)
}

func (r *Repository) getProfile(ctx context.Context, query string, arg string) (Profile, error) {
	var p Profile
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&p.UserID, &p.PersonID, &p.SubjectID, &p.Email, &p.EmailVerified,
		&p.FirstName, &p.LastName, &p.BirthDate,
		&p.GenderTypeID, &p.GenderTypeName, &p.Phone,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return Profile{}, ErrUserNotFound
		}
		return Profile{}, errors.Join(ErrFailedToQuery, err)
	}
	return p, nil
}

// UpdateProfile overwrites the editable person fields.
func (r *Repository) UpdateProfile(ctx context.Context, subjectID string, upd ProfileUpdate) error {
	var gender, phone any
	if upd.GenderTypeID != 0 {
		gender = upd.GenderTypeID
	}
	if upd.Phone != "" {
		phone = upd.Phone
	}

	tag, err := r.db.Exec(ctx, updateProfileQuery,
		subjectID, upd.FirstName, upd.LastName, upd.BirthDate, gender, phone, r.now().UTC())
	if err != nil {
		if pg.IsForeignKeyViolationError(err) {
			return errors.Join(ErrInvalidGenderType, err)
		}
		return errors.Join(ErrFailedToQuery, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdateEmailStatus records whether the user's email is verified.
func (r *Repository) UpdateEmailStatus(ctx context.Context, subjectID string, verified bool) error {
	tag, err := r.db.Exec(ctx, updateEmailStatusQuery, subjectID, verified, r.now().UTC())
	if err != nil {
		return errors.Join(ErrFailedToQuery, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ListGenderTypes returns the lookup table ordered by id.
func (r *Repository) ListGenderTypes(ctx context.Context) ([]GenderType, error) {
	rows, err := r.db.Query(ctx, listGenderTypesQuery)
	if err != nil {
		return nil, errors.Join(ErrFailedToQuery, err)
	}
	types, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (GenderType, error) {
		var g GenderType
		err := row.Scan(&g.ID, &g.Name)
		return g, err
	})
	if err != nil {
		return nil, errors.Join(ErrFailedToQuery, err)
	}
	return types, nil
}
