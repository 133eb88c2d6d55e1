package repository

import (
	"context"
	"errors"

	"marketplace/internal/domain/model"
)

var ErrEmailTaken = errors.New("email already used")

type UserRepository interface {
	//新規ユーザー作成（email重複なら ErrEmailTaken）
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, userID int64) (*model.User, error)
	//見つからなければ ErrNotFound
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}
