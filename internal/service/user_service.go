package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"storefront-service/internal/dto"
	"storefront-service/internal/model"
	"storefront-service/internal/repository"
)

const minNewPasswordLength = 6

type UserService struct {
	users UserRepository
}

func NewUserService(users UserRepository) *UserService {
	return &UserService{users: users}
}

func (s *UserService) GetProfile(ctx context.Context, id model.Identity) (*dto.ProfileResponse, error) {
	if id.IsZero() {
		return nil, ErrUnauthorized
	}
	u, err := s.users.FindByID(ctx, id.UserID)
	if err != nil {
		return nil, notFound(err)
	}
	return toProfile(u), nil
}

// UpdateProfile aplica un update parcial. El cambio de password exige la actual.
func (s *UserService) UpdateProfile(ctx context.Context, id model.Identity, req dto.UpdateProfileRequest) (*dto.ProfileResponse, error) {
	if id.IsZero() {
		return nil, ErrUnauthorized
	}
	u, err := s.users.FindByID(ctx, id.UserID)
	if err != nil {
		return nil, notFound(err)
	}

	first, last := splitName(u)
	if v := trimmed(req.FirstName); v != "" {
		first = v
	}
	if v := trimmed(req.LastName); v != "" {
		last = v
	}
	u.FirstName = first
	u.LastName = last
	u.Name = strings.TrimSpace(first + " " + last)

	if v := trimmed(req.Email); v != "" {
		if _, err := mail.ParseAddress(v); err != nil {
			return nil, invalid("invalid email address")
		}
		u.Email = normalizeEmail(v)
	}
	if req.Image != nil {
		u.Image = *req.Image
	}
	if req.Address != nil {
		mergeAddress(&u.Address, req.Address)
	}
	if req.Wishlist != nil {
		u.Wishlist = req.Wishlist
	}

	if req.CurrentPassword != "" && req.NewPassword != "" {
		if u.Provider != model.ProviderLocal || !CheckPasswordHash(req.CurrentPassword, u.Password) {
			return nil, invalid("current password is incorrect")
		}
		if len(req.NewPassword) < minNewPasswordLength {
			return nil, invalid("new password must be at least %d characters", minNewPasswordLength)
		}
		hash, err := HashPassword(req.NewPassword)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		u.Password = hash
	}

	if err := s.users.Replace(ctx, u); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, notFound(err)
	}
	return toProfile(u), nil
}

func trimmed(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

// splitName usa first/last guardados o los deriva de name.
func splitName(u *model.User) (string, string) {
	first, last := u.FirstName, u.LastName
	parts := strings.Fields(u.Name)
	if first == "" && len(parts) > 0 {
		first = parts[0]
	}
	if last == "" && len(parts) > 1 {
		last = strings.Join(parts[1:], " ")
	}
	return first, last
}

func mergeAddress(dst *model.Address, p *dto.AddressPatch) {
	set := func(field *string, v *string) {
		if v != nil {
			*field = *v
		}
	}
	set(&dst.Line1, p.Line1)
	set(&dst.Line2, p.Line2)
	set(&dst.City, p.City)
	set(&dst.State, p.State)
	set(&dst.PostalCode, p.PostalCode)
	set(&dst.Country, p.Country)
	set(&dst.Phone, p.Phone)
}

func toProfile(u *model.User) *dto.ProfileResponse {
	first, last := splitName(u)
	wishlist := u.Wishlist
	if wishlist == nil {
		wishlist = []string{}
	}
	return &dto.ProfileResponse{
		ID:        u.ID.Hex(),
		FirstName: first,
		LastName:  last,
		Email:     u.Email,
		Name:      u.Name,
		Image:     u.Image,
		Role:      u.Role,
		Address:   u.Address,
		Wishlist:  wishlist,
	}
}
