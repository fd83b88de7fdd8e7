package services

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"babashop/internal/domain"
	"babashop/internal/repos"
	"babashop/internal/validate"
)

type UserService struct {
	db        *sqlx.DB
	Users     *repos.UserRepo
	Addresses *repos.AddressRepo
	now       func() time.Time
}

func NewUserService(db *sqlx.DB) *UserService {
	return &UserService{db: db, Users: repos.NewUserRepo(db), Addresses: repos.NewAddressRepo(db), now: time.Now}
}

// Profile is a user together with the default delivery address.
type Profile struct {
	*domain.User
	Address *domain.Address `json:"address,omitempty"`
}

// ProfileInput carries a partial profile update; nil fields are left unchanged.
type ProfileInput struct {
	FullName    *string                 `json:"full_name"`
	Gender      *string                 `json:"gender"`
	PhoneNumber *string                 `json:"phone_number"`
	Avatar      *string                 `json:"avatar"`
	Address     *domain.DeliveryAddress `json:"address"`
}

func (s *UserService) Profile(ctx context.Context, userID string) (*Profile, error) {
	u, err := s.Users.ByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "user")
	}
	p := &Profile{User: u}
	a, ok, err := s.Addresses.Default(ctx, userID)
	if err != nil {
		return nil, err
	}
	if ok {
		p.Address = &a
	}
	return p, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*Profile, error) {
	u, err := s.Users.ByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "user")
	}
	var ok bool
	if in.FullName != nil {
		if u.FullName, ok = validate.Name(*in.FullName, 100); !ok {
			return nil, invalid("full name is required (max 100 characters)")
		}
	}
	if in.Gender != nil {
		if u.Gender, ok = validate.Gender(*in.Gender); !ok {
			return nil, invalid("gender must be male, female or other")
		}
	}
	if in.PhoneNumber != nil {
		u.PhoneNumber = ""
		if *in.PhoneNumber != "" {
			if u.PhoneNumber, ok = validate.Phone(*in.PhoneNumber); !ok {
				return nil, invalid("phone number is not valid")
			}
		}
	}
	if in.Avatar != nil {
		if u.Avatar, ok = validate.Text(*in.Avatar, 500); !ok {
			return nil, invalid("avatar url is too long")
		}
	}
	var addr domain.DeliveryAddress
	if in.Address != nil {
		if addr, err = checkAddress(*in.Address); err != nil {
			return nil, err
		}
	}

	u.UpdatedAt = s.now().UTC()
	err = repos.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := repos.NewUserRepo(tx).UpdateProfile(ctx, u); err != nil {
			return err
		}
		if in.Address == nil {
			return nil
		}
		_, err := repos.NewAddressRepo(tx).UpsertDefault(ctx, u.ID, addr, u.UpdatedAt)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.Profile(ctx, userID)
}

func (s *UserService) List(ctx context.Context, page, size int) (domain.Page[domain.User], error) {
	page, size = validate.Paging(page, size, 20, 100)
	users, total, err := s.Users.List(ctx, page, size)
	if err != nil {
		return domain.Page[domain.User]{}, err
	}
	return domain.NewPage(users, total, page, size), nil
}

// Delete removes a customer account. Admins and users with orders are kept.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if _, err := s.Users.ByID(ctx, id); err != nil {
		return notFound(err, "user")
	}
	ok, err := s.Users.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return rejected("admin accounts and users with orders cannot be deleted")
	}
	return nil
}

// checkAddress trims and validates a delivery address.
func checkAddress(a domain.DeliveryAddress) (domain.DeliveryAddress, error) {
	var ok bool
	if a.StreetAddress, ok = validate.Name(a.StreetAddress, 255); !ok {
		return a, invalid("street_address is required")
	}
	if a.Ward, ok = validate.Text(a.Ward, 100); !ok {
		return a, invalid("ward is too long")
	}
	if a.ProvinceCity, ok = validate.Name(a.ProvinceCity, 100); !ok {
		return a, invalid("province_city is required")
	}
	if a.RecipientName, ok = validate.Name(a.RecipientName, 100); !ok {
		return a, invalid("recipient_name is required")
	}
	if a.RecipientPhone, ok = validate.Phone(a.RecipientPhone); !ok {
		return a, invalid("recipient_phone is not valid")
	}
	return a, nil
}
