package repos

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"babashop/internal/domain"
)

type UserRepo struct{ db DB }

func NewUserRepo(db DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = `id, full_name, email, password_hash, gender, avatar, phone_number, role, status,
	otp_code, otp_type, otp_expired_at, otp_sent_at, created_at, updated_at`

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO users(id, full_name, email, password_hash, gender, avatar, phone_number, role, status,
		                  otp_code, otp_type, otp_expired_at, otp_sent_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), u.ID, u.FullName, u.Email, u.Hash, u.Gender, u.Avatar, u.PhoneNumber, u.Role, u.Status,
		u.OTPCode, string(u.OTPType), u.OTPExpiredAt, u.OTPSentAt, u.CreatedAt, u.UpdatedAt)
	return err
}

func (r *UserRepo) ByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := sqlx.GetContext(ctx, r.db, &u, r.db.Rebind(`SELECT `+userColumns+` FROM users WHERE id = ?`), id)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ByEmail matches case-insensitively.
func (r *UserRepo) ByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := sqlx.GetContext(ctx, r.db, &u, r.db.Rebind(`SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER(?)`), email)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateProfile writes the editable profile fields.
func (r *UserRepo) UpdateProfile(ctx context.Context, u *domain.User) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE users SET full_name = ?, gender = ?, avatar = ?, phone_number = ?, updated_at = ?
		WHERE id = ?
	`), u.FullName, u.Gender, u.Avatar, u.PhoneNumber, u.UpdatedAt, u.ID)
	return err
}

func (r *UserRepo) SetOTP(ctx context.Context, id, code string, typ domain.OTPType, expires, sentAt time.Time) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE users SET otp_code = ?, otp_type = ?, otp_expired_at = ?, otp_sent_at = ?, updated_at = ?
		WHERE id = ?
	`), code, string(typ), expires, sentAt, sentAt, id)
	return err
}

// MarkVerified flips the account to verified and consumes the OTP.
func (r *UserRepo) MarkVerified(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE users SET status = ?, otp_code = '', otp_type = '', otp_expired_at = NULL, updated_at = ?
		WHERE id = ?
	`), domain.UserVerified, at, id)
	return err
}

// SetPassword replaces the hash and consumes any pending OTP.
func (r *UserRepo) SetPassword(ctx context.Context, id, hash string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE users SET password_hash = ?, otp_code = '', otp_type = '', otp_expired_at = NULL, updated_at = ?
		WHERE id = ?
	`), hash, at, id)
	return err
}

// List returns non-admin users, newest first.
func (r *UserRepo) List(ctx context.Context, page, size int) ([]domain.User, int, error) {
	var total int
	if err := sqlx.GetContext(ctx, r.db, &total, r.db.Rebind(`SELECT COUNT(*) FROM users WHERE role <> ?`), domain.RoleAdmin); err != nil {
		return nil, 0, err
	}
	var out []domain.User
	err := sqlx.SelectContext(ctx, r.db, &out, r.db.Rebind(`
		SELECT `+userColumns+` FROM users
		WHERE role <> ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`), domain.RoleAdmin, size, offset(page, size))
	return out, total, err
}

// Delete refuses to remove admins or users with order history.
func (r *UserRepo) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		DELETE FROM users
		WHERE id = ? AND role <> ?
		  AND NOT EXISTS (SELECT 1 FROM orders o WHERE o.user_id = users.id)
	`), id, domain.RoleAdmin)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

type AddressRepo struct{ db DB }

func NewAddressRepo(db DB) *AddressRepo { return &AddressRepo{db: db} }

// Default returns the user's default address; ok is false when none is saved.
func (r *AddressRepo) Default(ctx context.Context, userID string) (a domain.Address, ok bool, err error) {
	err = sqlx.GetContext(ctx, r.db, &a, r.db.Rebind(`
		SELECT id, user_id, street_address, ward, province_city, recipient_name, recipient_phone,
		       is_default, created_at, updated_at
		FROM addresses
		WHERE user_id = ? AND is_default = ?
		ORDER BY updated_at DESC
		LIMIT 1
	`), userID, true)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Address{}, false, nil
	}
	if err != nil {
		return domain.Address{}, false, err
	}
	return a, true, nil
}

// UpsertDefault updates the current default address or creates one.
func (r *AddressRepo) UpsertDefault(ctx context.Context, userID string, d domain.DeliveryAddress, at time.Time) (domain.Address, error) {
	cur, ok, err := r.Default(ctx, userID)
	if err != nil {
		return domain.Address{}, err
	}
	if ok {
		_, err = r.db.ExecContext(ctx, r.db.Rebind(`
			UPDATE addresses
			SET street_address = ?, ward = ?, province_city = ?, recipient_name = ?, recipient_phone = ?, updated_at = ?
			WHERE id = ?
		`), d.StreetAddress, d.Ward, d.ProvinceCity, d.RecipientName, d.RecipientPhone, at, cur.ID)
		if err != nil {
			return domain.Address{}, err
		}
	} else {
		cur = domain.Address{ID: uuid.NewString(), UserID: userID, IsDefault: true, CreatedAt: at}
		_, err = r.db.ExecContext(ctx, r.db.Rebind(`
			INSERT INTO addresses(id, user_id, street_address, ward, province_city, recipient_name, recipient_phone,
			                      is_default, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`), cur.ID, userID, d.StreetAddress, d.Ward, d.ProvinceCity, d.RecipientName, d.RecipientPhone, true, at, at)
		if err != nil {
			return domain.Address{}, err
		}
	}
	cur.StreetAddress, cur.Ward, cur.ProvinceCity = d.StreetAddress, d.Ward, d.ProvinceCity
	cur.RecipientName, cur.RecipientPhone = d.RecipientName, d.RecipientPhone
	cur.UpdatedAt = at
	return cur, nil
}
