package activities

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"coconet/internal/models"
	"coconet/internal/services"
	"coconet/internal/storage"

	"go.temporal.io/sdk/temporal"
	"go.uber.org/zap"
)

var errMissingMemberUUID = errors.New("registration response carried no member uuid")

// MemberDirectory is the slice of the member service the activities use.
type MemberDirectory interface {
	CheckUsername(ctx context.Context, name string) (bool, error)
	CreateUser(ctx context.Context, reg models.MemberRegistration, image *services.Attachment) (models.Member, error)
}

type Activities struct {
	users MemberDirectory
	store storage.ClientStore
	log   *zap.Logger
}

func New(users MemberDirectory, store storage.ClientStore, log *zap.Logger) *Activities {
	if log == nil {
		log = zap.NewNop()
	}
	return &Activities{users: users, store: store, log: log}
}

func (a *Activities) CheckMemberNameActivity(ctx context.Context, in CheckMemberNameInput) (CheckMemberNameOutput, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return CheckMemberNameOutput{}, temporal.NewNonRetryableApplicationError("member name is empty", "InvalidName", nil)
	}
	taken, err := a.users.CheckUsername(ctx, name)
	if err != nil {
		return CheckMemberNameOutput{}, err
	}
	return CheckMemberNameOutput{Taken: taken}, nil
}

func (a *Activities) RegisterMemberActivity(ctx context.Context, in RegisterMemberInput) (RegisterMemberOutput, error) {
	var image *services.Attachment
	if len(in.Image) > 0 {
		image = &services.Attachment{
			Filename:    in.ImageName,
			ContentType: in.ImageContentType,
			Content:     bytes.NewReader(in.Image),
		}
	}
	m, err := a.users.CreateUser(ctx, in.Registration, image)
	if err != nil {
		return RegisterMemberOutput{}, err
	}
	if m.MemberUUID == "" {
		return RegisterMemberOutput{}, errMissingMemberUUID
	}
	a.log.Info("member registered", zap.String("member_uuid", m.MemberUUID), zap.String("name", m.Name))
	return RegisterMemberOutput{MemberUUID: m.MemberUUID, Name: m.Name}, nil
}

// PersistMemberActivity records the member uuid under the same storage key
// the auth callback uses.
func (a *Activities) PersistMemberActivity(ctx context.Context, in PersistMemberInput) error {
	if in.MemberUUID == "" {
		return errMissingMemberUUID
	}
	if err := a.store.Set(ctx, storage.KeyMemberUUID, in.MemberUUID); err != nil {
		return fmt.Errorf("persist member uuid: %w", err)
	}
	return nil
}
