package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"eventhub/internal/model"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

func (r *PostgresRepository) CreateUser(ctx context.Context, user model.User) (model.User, error) {
	role := user.Role
	if role == "" {
		role = model.RoleStudent
	}

	row := r.db.QueryRowContext(ctx, `
		INSERT INTO users (id, full_name, email, password_hash, student_id, department, phone, role, github_id, bookmarks, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, '{}', $10)
		RETURNING `+userColumns,
		uuid.NewString(), user.FullName, strings.ToLower(user.Email), user.PasswordHash, user.StudentID,
		user.Department, user.Phone, string(role), nullString(user.GitHubID), r.nowFunc(),
	)
	created, err := scanUser(row)
	if err != nil {
		if constraint, ok := uniqueViolation(err); ok {
			if constraint == "users_github_id_key" {
				return model.User{}, ErrGitHubAccountExists
			}
			return model.User{}, ErrEmailExists
		}
		return model.User{}, fmt.Errorf("failed to insert user: %w", err)
	}
	return created, nil
}

func (r *PostgresRepository) queryUser(ctx context.Context, where string, arg any) (model.User, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE "+where, arg)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) GetUserByID(ctx context.Context, id string) (model.User, error) {
	if !validUUID(id) {
		return model.User{}, ErrUserNotFound
	}
	return r.queryUser(ctx, "id = $1", id)
}

func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	return r.queryUser(ctx, "email = $1", strings.ToLower(strings.TrimSpace(email)))
}

func (r *PostgresRepository) GetUserByGitHubID(ctx context.Context, githubID string) (model.User, error) {
	return r.queryUser(ctx, "github_id = $1", githubID)
}

func (r *PostgresRepository) UpdateUserProfile(ctx context.Context, id string, update model.ProfileUpdate) (model.User, error) {
	if !validUUID(id) {
		return model.User{}, ErrUserNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		UPDATE users SET
			full_name = COALESCE(NULLIF($2, ''), full_name),
			student_id = COALESCE(NULLIF($3, ''), student_id),
			department = COALESCE(NULLIF($4, ''), department),
			phone = COALESCE(NULLIF($5, ''), phone)
		WHERE id = $1
		RETURNING `+userColumns,
		id, update.FullName, update.StudentID, update.Department, update.Phone,
	)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) UpdateUserRole(ctx context.Context, id string, role model.Role) (model.User, error) {
	if !validUUID(id) {
		return model.User{}, ErrUserNotFound
	}

	row := r.db.QueryRowContext(ctx, "UPDATE users SET role = $2 WHERE id = $1 RETURNING "+userColumns, id, string(role))
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("failed to update user role: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

// DeleteUser deletes a user. Their registrations cascade through the foreign key.
func (r *PostgresRepository) DeleteUser(ctx context.Context, id string) error {
	if !validUUID(id) {
		return ErrUserNotFound
	}

	result, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *PostgresRepository) ToggleBookmark(ctx context.Context, userID, eventID string) (model.BookmarkResult, error) {
	if !validUUID(userID) {
		return model.BookmarkResult{}, ErrUserNotFound
	}

	var bookmarks pq.StringArray
	var present bool
	err := r.db.QueryRowContext(ctx, `
		UPDATE users SET bookmarks = CASE
			WHEN $2::text = ANY(bookmarks) THEN array_remove(bookmarks, $2::text)
			ELSE array_append(bookmarks, $2::text)
		END
		WHERE id = $1
		RETURNING bookmarks, $2::text = ANY(bookmarks)
	`, userID, eventID).Scan(&bookmarks, &present)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.BookmarkResult{}, ErrUserNotFound
		}
		return model.BookmarkResult{}, fmt.Errorf("failed to toggle bookmark: %w", err)
	}

	result := model.BookmarkResult{Action: model.BookmarkRemoved, Bookmarks: []string(bookmarks)}
	if result.Bookmarks == nil {
		result.Bookmarks = []string{}
	}
	if present {
		result.Action = model.BookmarkAdded
	}
	return result, nil
}
