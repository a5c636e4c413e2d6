package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"coconet/internal/models"
	"coconet/internal/repository"
)

const (
	registerPath  = "member-service/open-api/register"
	nameCheckPath = "member-service/open-api/memberNameCheck/"
	memberPath    = "member-service/api/member"
)

var ErrEmptyRegistration = errors.New("registration returned no member")

// Attachment is the optional profile image sent with a registration.
type Attachment struct {
	Filename    string
	ContentType string
	Content     io.Reader
}

type UserService struct {
	members   *repository.Repository[models.Member]
	nameCheck *repository.Repository[bool]
}

func NewUserService(members *repository.Repository[models.Member], nameCheck *repository.Repository[bool]) *UserService {
	return &UserService{members: members, nameCheck: nameCheck}
}

func (s *UserService) CreateUser(ctx context.Context, reg models.MemberRegistration, image *Attachment) (models.Member, error) {
	form := repository.MultipartForm{JSON: map[string]any{"request": reg}}
	if image != nil && image.Content != nil {
		form.Files = append(form.Files, repository.FilePart{
			Field:       "image",
			Filename:    image.Filename,
			ContentType: image.ContentType,
			Content:     image.Content,
		})
	}
	env, err := s.members.CreateMultiPart(ctx, registerPath, form)
	if err != nil {
		return models.Member{}, fmt.Errorf("register member: %w", err)
	}
	if len(env.Data) == 0 {
		return models.Member{}, ErrEmptyRegistration
	}
	return env.Data[0], nil
}

// CheckUsername reports whether name is already taken.
func (s *UserService) CheckUsername(ctx context.Context, name string) (bool, error) {
	name = strings.TrimSpace(name)
	taken, err := s.nameCheck.Get(ctx, nameCheckPath+name)
	if err != nil {
		return false, fmt.Errorf("check member name %q: %w", name, err)
	}
	return taken, nil
}

func (s *UserService) UpdateUser(ctx context.Context, id string, reg models.MemberRegistration) (models.Member, error) {
	m, err := s.members.Update(ctx, memberPath, id, reg)
	if err != nil {
		return models.Member{}, fmt.Errorf("update member %s: %w", id, err)
	}
	return m, nil
}

func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	if err := s.members.Delete(ctx, memberPath, id); err != nil {
		return fmt.Errorf("delete member %s: %w", id, err)
	}
	return nil
}
