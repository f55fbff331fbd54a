package app

import (
	"context"
	"fmt"

	"github.com/harborstay/reservations/internal/domain"
)

type GuestRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	CreateGuest(ctx context.Context, guest domain.Guest) error
	GetGuest(ctx context.Context, id string) (domain.Guest, error)
	GetGuestForUpdate(ctx context.Context, id string) (domain.Guest, error)
	UpdateGuestProfile(ctx context.Context, id, name, contact string) error
	SetGuestBlocked(ctx context.Context, id string, blocked bool) error
}

// GuestService owns guest identity and the administrative block hook. Loyalty
// balances are mutated by LoyaltyService only.
type GuestService struct {
	repo GuestRepository
}

func NewGuestService(repo GuestRepository) *GuestService {
	return &GuestService{repo: repo}
}

type CreateGuestInput struct {
	Name    string
	Contact string
}

func (s *GuestService) Create(ctx context.Context, in CreateGuestInput) (domain.Guest, error) {
	if in.Name == "" {
		return domain.Guest{}, fmt.Errorf("%w: guest name is required", domain.ErrInvalidArgument)
	}
	guest := domain.Guest{
		ID:      newID(),
		Name:    in.Name,
		Contact: in.Contact,
	}
	if err := s.repo.CreateGuest(ctx, guest); err != nil {
		return domain.Guest{}, err
	}
	return guest, nil
}

func (s *GuestService) Get(ctx context.Context, id string) (domain.Guest, error) {
	return s.repo.GetGuest(ctx, id)
}

func (s *GuestService) UpdateProfile(ctx context.Context, id, name, contact string) (domain.Guest, error) {
	if name == "" {
		return domain.Guest{}, fmt.Errorf("%w: guest name is required", domain.ErrInvalidArgument)
	}
	var result domain.Guest
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		guest, err := s.repo.GetGuestForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		if err := s.repo.UpdateGuestProfile(txCtx, guest.ID, name, contact); err != nil {
			return err
		}
		guest.Name = name
		guest.Contact = contact
		result = guest
		return nil
	})
	if err != nil {
		return domain.Guest{}, err
	}
	return result, nil
}

// Block rejects all future bookings for the guest; existing bookings are left
// to run their course.
func (s *GuestService) Block(ctx context.Context, id string) error {
	return s.setBlocked(ctx, id, true)
}

func (s *GuestService) Unblock(ctx context.Context, id string) error {
	return s.setBlocked(ctx, id, false)
}

func (s *GuestService) setBlocked(ctx context.Context, id string, blocked bool) error {
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		guest, err := s.repo.GetGuestForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		return s.repo.SetGuestBlocked(txCtx, guest.ID, blocked)
	})
}
