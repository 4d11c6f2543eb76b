package application

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/mvelickovic/bookstore/internal/user/domain"
)

var (
	ErrUsernameRequired = errors.New("username must not be blank")
	ErrEmailInvalid     = errors.New("email is not valid")
)

type Service struct {
	log  *slog.Logger
	repo UserRepository
}

func NewService(log *slog.Logger, repo UserRepository) *Service {
	return &Service{log: log, repo: repo}
}

type CreateUserInput struct {
	Username string
	Email    string
	FullName string
}

func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (domain.User, error) {
	if strings.TrimSpace(in.Username) == "" {
		return domain.User{}, ErrUsernameRequired
	}
	if !strings.Contains(in.Email, "@") {
		return domain.User{}, ErrEmailInvalid
	}

	u := domain.User{
		Username: in.Username,
		Email:    in.Email,
		FullName: in.FullName,
	}
	if err := s.repo.Create(ctx, &u); err != nil {
		return domain.User{}, err
	}
	s.log.Info("user created", "user_id", u.ID, "username", u.Username)
	return u, nil
}

func (s *Service) GetUser(ctx context.Context, id int64) (domain.User, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.repo.List(ctx)
}

func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("user deleted", "user_id", id)
	return nil
}
