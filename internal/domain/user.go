package domain

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Account status values.
const (
	UserUnverified = 0
	UserVerified   = 1
)

type OTPType string

const (
	OTPRegister OTPType = "REGISTER"
	OTPReset    OTPType = "RESET"
)

type User struct {
	ID           string     `db:"id" json:"id"`
	FullName     string     `db:"full_name" json:"full_name"`
	Email        string     `db:"email" json:"email"`
	Hash         string     `db:"password_hash" json:"-"`
	Gender       string     `db:"gender" json:"gender,omitempty"`
	Avatar       string     `db:"avatar" json:"avatar,omitempty"`
	PhoneNumber  string     `db:"phone_number" json:"phone_number,omitempty"`
	Role         string     `db:"role" json:"role"`
	Status       int        `db:"status" json:"status"`
	OTPCode      string     `db:"otp_code" json:"-"`
	OTPType      OTPType    `db:"otp_type" json:"-"`
	OTPExpiredAt *time.Time `db:"otp_expired_at" json:"-"`
	OTPSentAt    *time.Time `db:"otp_sent_at" json:"-"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

func (u *User) IsAdmin() bool    { return u.Role == RoleAdmin }
func (u *User) IsVerified() bool { return u.Status == UserVerified }

// Address is a saved delivery address; a user has at most one default.
type Address struct {
	ID             string    `db:"id" json:"id"`
	UserID         string    `db:"user_id" json:"-"`
	StreetAddress  string    `db:"street_address" json:"street_address"`
	Ward           string    `db:"ward" json:"ward,omitempty"`
	ProvinceCity   string    `db:"province_city" json:"province_city"`
	RecipientName  string    `db:"recipient_name" json:"recipient_name"`
	RecipientPhone string    `db:"recipient_phone" json:"recipient_phone"`
	IsDefault      bool      `db:"is_default" json:"is_default"`
	CreatedAt      time.Time `db:"created_at" json:"-"`
	UpdatedAt      time.Time `db:"updated_at" json:"-"`
}

func (a Address) Delivery() DeliveryAddress {
	return DeliveryAddress{
		StreetAddress:  a.StreetAddress,
		Ward:           a.Ward,
		ProvinceCity:   a.ProvinceCity,
		RecipientName:  a.RecipientName,
		RecipientPhone: a.RecipientPhone,
	}
}
