package users

import (
	"context"
	"database/sql"
	"net/mail"
	"strconv"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// Users is the credential store: every lookup the handlers need plus the
// insert that assigns record ids.
type Users interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByIdentifier(ctx context.Context, identifier string) (*User, error)
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*User, error)
	FindByUsernameOrEmailTx(ctx context.Context, tx bun.IDB, username, email string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	Create(ctx context.Context, record *User) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error)
}

type usersRepo struct {
	db *bun.DB
}

var _ Users = (*usersRepo)(nil)

// NewUsersRepository builds the bun backed credential store
func NewUsersRepository(db *bun.DB) Users {
	return &usersRepo{db: db}
}

func (a *usersRepo) GetByID(ctx context.Context, id int64) (*User, error) {
	record := &User{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, wrapSelectError(err, strconv.FormatInt(id, 10))
	}
	return record, nil
}

func (a *usersRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	record := &User{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", email).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, wrapSelectError(err, email)
	}
	return record, nil
}

// GetByIdentifier resolves an identifier that may be a record id, an email,
// or a username, in that order.
func (a *usersRepo) GetByIdentifier(ctx context.Context, identifier string) (*User, error) {
	options := resolveUserIdentifier(identifier)
	if len(options) == 0 {
		return nil, recordNotFound(identifier)
	}

	for _, opt := range options {
		record := &User{}
		err := a.db.NewSelect().
			Model(record).
			Where("?TableAlias."+opt.column+" = ?", opt.value).
			Limit(1).
			Scan(ctx)

		if err != nil {
			if err == sql.ErrNoRows {
				continue
			}
			return nil, errors.Wrap(err, errors.CategoryInternal, "failed to query user")
		}

		return record, nil
	}

	return nil, recordNotFound(identifier)
}

func (a *usersRepo) FindByUsernameOrEmail(ctx context.Context, username, email string) (*User, error) {
	return a.FindByUsernameOrEmailTx(ctx, a.db, username, email)
}

// FindByUsernameOrEmailTx is the pre-insert collision probe. Either match
// counts; callers never learn which column collided.
func (a *usersRepo) FindByUsernameOrEmailTx(ctx context.Context, tx bun.IDB, username, email string) (*User, error) {
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.username = ?", username).
		WhereOr("?TableAlias.email = ?", email).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, recordNotFound(username)
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to query user")
	}
	return record, nil
}

// List returns every user, newest first. Each call is a fresh query.
func (a *usersRepo) List(ctx context.Context) ([]*User, error) {
	records := []*User{}
	err := a.db.NewSelect().
		Model(&records).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to list users")
	}
	return records, nil
}

func (a *usersRepo) Create(ctx context.Context, record *User) (*User, error) {
	return a.CreateTx(ctx, a.db, record)
}

// CreateTx inserts the record. The unique constraints on username and email
// are the safety net for concurrent creates; violations surface as
// ErrDuplicateUser regardless of which column tripped.
func (a *usersRepo) CreateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error) {
	prepareUserDefaults(record)

	_, err := tx.NewInsert().
		Model(record).
		Exec(ctx)
	if err != nil {
		if IsUniqueViolation(err) {
			return nil, ErrDuplicateUser
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to insert user")
	}

	return record, nil
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	record.Active = true
	record.Username = strings.TrimSpace(record.Username)
	record.Email = strings.TrimSpace(record.Email)
}

func wrapSelectError(err error, identifier string) error {
	if err == sql.ErrNoRows {
		return recordNotFound(identifier)
	}
	return errors.Wrap(err, errors.CategoryInternal, "failed to query user")
}

func recordNotFound(identifier string) *errors.Error {
	return errors.New("user not found", errors.CategoryNotFound).
		WithTextCode(TextCodeUserNotFound).
		WithMetadata(map[string]any{
			"identifier": identifier,
		})
}

type identifierOption struct {
	column string
	value  any
}

func resolveUserIdentifier(identifier string) []identifierOption {
	trimmed := strings.TrimSpace(identifier)
	if trimmed == "" {
		return nil
	}

	options := make([]identifierOption, 0, 3)

	if id, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		options = append(options, identifierOption{
			column: "id",
			value:  id,
		})
	}

	if isEmail(trimmed) {
		options = append(options, identifierOption{
			column: "email",
			value:  trimmed,
		})
	}

	options = append(options, identifierOption{
		column: "username",
		value:  trimmed,
	})

	return options
}

func isEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}
