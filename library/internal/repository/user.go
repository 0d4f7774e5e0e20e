package repository

import (
	"context"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/Astemirdum/bookshelf/library/internal/errs"
	"github.com/Astemirdum/bookshelf/library/internal/model"
)

var userColumns = []string{"id", "email", "password_hash", "name", "role", "avatar", "bio", "email_verified", "created_at"}

func (r *repository) CreateUser(ctx context.Context, user model.User) (model.User, error) {
	query, args, err := qb.Insert(usersTableName).
		Columns("id", "email", "password_hash", "name", "role", "created_at").
		Values(user.ID, strings.ToLower(user.Email), user.PasswordHash, user.Name, user.Role, user.CreatedAt).
		Suffix("RETURNING " + joinColumns(userColumns)).
		ToSql()
	if err != nil {
		return model.User{}, err
	}

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return model.User{}, mapUserWriteError(err)
	}
	defer rows.Close()

	created, err := collectOne[model.User](rows, errs.ErrUserNotFound)
	if err != nil {
		return model.User{}, mapUserWriteError(err)
	}
	return created, nil
}

func (r *repository) getUser(ctx context.Context, where sq.Sqlizer) (model.User, error) {
	query, args, err := qb.Select(userColumns...).
		From(usersTableName).
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return model.User{}, err
	}

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return model.User{}, err
	}
	defer rows.Close()

	return collectOne[model.User](rows, errs.ErrUserNotFound)
}

func (r *repository) GetUser(ctx context.Context, id uuid.UUID) (model.User, error) {
	return r.getUser(ctx, sq.Eq{"id": id})
}

func (r *repository) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	return r.getUser(ctx, sq.Eq{"email": strings.ToLower(email)})
}

// UpdateUserProfile sets only the fields present in req.
func (r *repository) UpdateUserProfile(ctx context.Context, id uuid.UUID, req model.UpdateProfileRequest) (model.User, error) {
	values := map[string]any{}
	if req.Name != nil {
		values["name"] = *req.Name
	}
	if req.Bio != nil {
		values["bio"] = *req.Bio
	}
	if req.Avatar != nil {
		values["avatar"] = *req.Avatar
	}
	if len(values) == 0 {
		return r.GetUser(ctx, id)
	}

	query, args, err := qb.Update(usersTableName).
		SetMap(values).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + joinColumns(userColumns)).
		ToSql()
	if err != nil {
		return model.User{}, err
	}

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return model.User{}, err
	}
	defer rows.Close()

	return collectOne[model.User](rows, errs.ErrUserNotFound)
}

func (r *repository) SetUserRole(ctx context.Context, id uuid.UUID, role model.Role) (model.User, error) {
	query, args, err := qb.Update(usersTableName).
		Set("role", role).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + joinColumns(userColumns)).
		ToSql()
	if err != nil {
		return model.User{}, err
	}

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return model.User{}, err
	}
	defer rows.Close()

	return collectOne[model.User](rows, errs.ErrUserNotFound)
}

func mapUserWriteError(err error) error {
	if isUniqueViolation(err) {
		return errs.ErrEmailTaken
	}
	return err
}
