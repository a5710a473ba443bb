package marketplace

import (
	"context"
	"fmt"
	"strings"

	"log/slog"

	"github.com/garnizeh/marketplace/pkg/models"
	"github.com/garnizeh/marketplace/pkg/repository"
)

// Identity is an authenticated identity as seen at session start.
type Identity struct {
	ID          string
	Email       string
	DisplayName string
	UserType    string
}

// EnsureProfile returns the profile for the identity, creating it on first
// login. Creation is an insert-if-absent backed by the profiles primary key,
// so two sessions racing on the same new identity converge on one record:
// the loser's insert writes nothing and the re-fetch returns the winner's row.
func (s *Service) EnsureProfile(ctx context.Context, id Identity) (*models.Profile, error) {
	if id.ID == "" {
		return nil, fmt.Errorf("%w: identity id is required", ErrValidation)
	}

	p, err := s.profiles.GetProfile(ctx, id.ID)
	if err == nil && p != nil {
		return p, nil
	}
	if err != nil {
		s.logger.Warn("profile fetch before provisioning failed", slog.String("id", id.ID), slog.Any("err", err))
	}

	userType := id.UserType
	if userType == "" {
		userType = models.UserTypeCustomer
	}
	displayName := id.DisplayName
	if displayName == "" {
		displayName = emailLocalPart(id.Email)
	}

	created, err := s.profiles.InsertProfileIfAbsent(ctx, &models.Profile{
		ID:          id.ID,
		Email:       id.Email,
		DisplayName: displayName,
		UserType:    userType,
	})
	if err != nil {
		s.logger.Error("profile insert failed", slog.String("id", id.ID), slog.Any("err", err))
	} else if created {
		s.logger.Info("profile provisioned", slog.String("id", id.ID), slog.String("user_type", userType))
	}

	p, ferr := s.profiles.GetProfile(ctx, id.ID)
	if ferr != nil || p == nil {
		return nil, fmt.Errorf("%w: insert err %v, fetch err %v", ErrProvisioningFailed, err, ferr)
	}

	return p, nil
}

// UpdateProfile applies display-data edits to the caller's own profile. The
// user type is fixed at provisioning and is not editable here.
func (s *Service) UpdateProfile(ctx context.Context, callerID string, patch models.ProfilePatch) (*models.Profile, error) {
	p, err := s.profiles.GetProfile(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, repository.ErrNotFound
	}

	if patch.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*patch.Email))
		if email == "" {
			return nil, fmt.Errorf("%w: email is required", ErrValidation)
		}
		p.Email = email
	}
	if patch.DisplayName != nil {
		name := strings.TrimSpace(*patch.DisplayName)
		if name == "" {
			name = emailLocalPart(p.Email)
		}
		p.DisplayName = name
	}

	if err := s.profiles.UpdateProfile(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("profile updated", slog.String("id", callerID))

	got, err := s.profiles.GetProfile(ctx, callerID)
	if err != nil || got == nil {
		// the row was just written; return what we have
		return p, nil
	}

	return got, nil
}

func emailLocalPart(email string) string {
	for i := 0; i < len(email); i++ {
		if email[i] == '@' {
			return email[:i]
		}
	}

	return email
}
