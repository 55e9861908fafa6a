package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/itsDrac/e-auc-live/internal/model"
	"github.com/itsDrac/e-auc-live/internal/repository"
)

type UserServicer interface {
	GetUser(ctx context.Context, id uuid.UUID) (model.User, error)
}

type UserService struct {
	users repository.UserRepository
}

func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{
		users: users,
	}
}

func (us *UserService) GetUser(ctx context.Context, id uuid.UUID) (model.User, error) {
	user, err := us.users.GetUserByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.User{}, notFound(ErrUserNotFound)
	}
	if err != nil {
		return model.User{}, unavailable("get user", err)
	}
	return user, nil
}
