package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"golang.org/x/crypto/bcrypt"

	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/db"
	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/storage"
)

type UserRepo struct {
	db db.DB
}

func NewUserRepo(db db.DB) storage.UserRepository {
	return &UserRepo{db: db}
}

func (r *UserRepo) CreateUser(ctx context.Context, email, password, fullName string) (string, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	var id string
	err = r.db.ExecQueryRow(ctx,
		"INSERT INTO profiles (email, password_hash, full_name) VALUES ($1, $2, $3) RETURNING id",
		email, string(hashedPassword), fullName).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to create user: %w", err)
	}
	return id, nil
}

// ValidateUser returns the profile id for matching credentials.
func (r *UserRepo) ValidateUser(ctx context.Context, email, password string) (string, error) {
	var id, hashedPassword string
	err := r.db.ExecQueryRow(ctx,
		"SELECT id, password_hash FROM profiles WHERE email = $1", email).Scan(&id, &hashedPassword)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", storage.ErrInvalidCredentials
		}
		return "", fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)); err != nil {
		return "", storage.ErrInvalidCredentials
	}
	return id, nil
}
