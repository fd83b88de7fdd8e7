package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"babashop/internal/domain"
	applog "babashop/internal/log"
	"babashop/internal/mail"
	"babashop/internal/repos"
	"babashop/internal/validate"
)

type AuthService struct {
	Users    *repos.UserRepo
	Tokens   *TokenIssuer
	Mailer   mail.Sender
	OTPTTL   time.Duration
	Cooldown time.Duration

	hashCost int
	now      func() time.Time
}

func NewAuthService(db *sqlx.DB, tokens *TokenIssuer, mailer mail.Sender, otpTTL, cooldown time.Duration) *AuthService {
	if otpTTL <= 0 {
		otpTTL = 10 * time.Minute
	}
	if cooldown < 0 {
		cooldown = 0
	}
	return &AuthService{
		Users:    repos.NewUserRepo(db),
		Tokens:   tokens,
		Mailer:   mailer,
		OTPTTL:   otpTTL,
		Cooldown: cooldown,
		hashCost: bcrypt.DefaultCost,
		now:      time.Now,
	}
}

type RegisterInput struct {
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Gender      string `json:"gender"`
	PhoneNumber string `json:"phone_number"`
}

// LoginResult is returned to clients after a successful login.
type LoginResult struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
	Role        string       `json:"role"`
	User        *domain.User `json:"user"`
}

// Register creates an unverified account and emails a REGISTER code.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	name, ok := validate.Name(in.FullName, 100)
	if !ok {
		return nil, invalid("full name is required (max 100 characters)")
	}
	email, ok := validate.Email(in.Email)
	if !ok {
		return nil, invalid("email is not valid")
	}
	if !validate.Password(in.Password) {
		return nil, invalid("password must be 8-64 characters with upper, lower, digit and symbol")
	}
	gender, ok := validate.Gender(in.Gender)
	if !ok {
		return nil, invalid("gender must be male, female or other")
	}
	phone := ""
	if in.PhoneNumber != "" {
		if phone, ok = validate.Phone(in.PhoneNumber); !ok {
			return nil, invalid("phone number is not valid")
		}
	}

	if _, err := s.Users.ByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("%w: email already registered", ErrConflict)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, err
	}
	code, err := newOTP()
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	expires := now.Add(s.OTPTTL)
	u := &domain.User{
		ID:           uuid.NewString(),
		FullName:     name,
		Email:        email,
		Hash:         string(hash),
		Gender:       gender,
		PhoneNumber:  phone,
		Role:         domain.RoleUser,
		Status:       domain.UserUnverified,
		OTPCode:      code,
		OTPType:      domain.OTPRegister,
		OTPExpiredAt: &expires,
		OTPSentAt:    &now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Users.Create(ctx, u); err != nil {
		if repos.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: email already registered", ErrConflict)
		}
		return nil, err
	}
	s.deliver(ctx, u, code, domain.OTPRegister)
	return u, nil
}

// VerifyOTP activates an account with its REGISTER code.
func (s *AuthService) VerifyOTP(ctx context.Context, email, code string) error {
	u, err := s.byEmail(ctx, email)
	if err != nil {
		return err
	}
	if u.IsVerified() {
		return rejected("account is already verified")
	}
	if err := s.checkOTP(u, code, domain.OTPRegister); err != nil {
		return err
	}
	return s.Users.MarkVerified(ctx, u.ID, s.now().UTC())
}

// ResendOTP issues a fresh code of the given type, honouring the cooldown.
func (s *AuthService) ResendOTP(ctx context.Context, email string, typ domain.OTPType) error {
	if typ == "" {
		typ = domain.OTPRegister
	}
	if typ != domain.OTPRegister && typ != domain.OTPReset {
		return invalid("otp type must be REGISTER or RESET")
	}
	u, err := s.byEmail(ctx, email)
	if err != nil {
		return err
	}
	if typ == domain.OTPRegister && u.IsVerified() {
		return rejected("account is already verified")
	}
	return s.issueOTP(ctx, u, typ)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	u, err := s.Users.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBadCreds
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return nil, ErrBadCreds
	}
	if !u.IsVerified() {
		return nil, fmt.Errorf("%w: account is not verified", ErrForbidden)
	}
	tok, exp, err := s.Tokens.Issue(u.ID, u.Role)
	if err != nil {
		return nil, err
	}
	return &LoginResult{AccessToken: tok, TokenType: "Bearer", ExpiresAt: exp, Role: u.Role, User: u}, nil
}

func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.byEmail(ctx, email)
	if err != nil {
		return err
	}
	return s.issueOTP(ctx, u, domain.OTPReset)
}

func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if !validate.Password(newPassword) {
		return invalid("password must be 8-64 characters with upper, lower, digit and symbol")
	}
	u, err := s.byEmail(ctx, email)
	if err != nil {
		return err
	}
	if err := s.checkOTP(u, code, domain.OTPReset); err != nil {
		return err
	}
	return s.setPassword(ctx, u.ID, newPassword)
}

func (s *AuthService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	u, err := s.Users.ByID(ctx, userID)
	if err != nil {
		return notFound(err, "user")
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(oldPassword)) != nil {
		return rejected("current password is incorrect")
	}
	if !validate.Password(newPassword) {
		return invalid("password must be 8-64 characters with upper, lower, digit and symbol")
	}
	if oldPassword == newPassword {
		return invalid("new password must differ from the current one")
	}
	return s.setPassword(ctx, u.ID, newPassword)
}

// Authenticate resolves a bearer token to its user.
func (s *AuthService) Authenticate(ctx context.Context, raw string) (*domain.User, error) {
	claims, err := s.Tokens.Parse(raw)
	if err != nil {
		return nil, err
	}
	u, err := s.Users.ByID(ctx, claims.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: account no longer exists", ErrUnauthorized)
	}
	return u, err
}

func (s *AuthService) byEmail(ctx context.Context, email string) (*domain.User, error) {
	email, ok := validate.Email(email)
	if !ok {
		return nil, invalid("email is not valid")
	}
	u, err := s.Users.ByEmail(ctx, email)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return u, nil
}

func (s *AuthService) checkOTP(u *domain.User, code string, typ domain.OTPType) error {
	code, ok := validate.OTP(code)
	if !ok {
		return invalid("otp must be 6 digits")
	}
	if u.OTPCode == "" || u.OTPType != typ || u.OTPExpiredAt == nil {
		return rejected("invalid or expired otp")
	}
	if subtle.ConstantTimeCompare([]byte(u.OTPCode), []byte(code)) != 1 {
		return rejected("invalid or expired otp")
	}
	if !s.now().Before(*u.OTPExpiredAt) {
		return rejected("invalid or expired otp")
	}
	return nil
}

func (s *AuthService) issueOTP(ctx context.Context, u *domain.User, typ domain.OTPType) error {
	now := s.now().UTC()
	if u.OTPSentAt != nil {
		if wait := s.Cooldown - now.Sub(*u.OTPSentAt); wait > 0 {
			return rejected("please wait %d seconds before requesting a new code", int(wait.Seconds()+0.999))
		}
	}
	code, err := newOTP()
	if err != nil {
		return err
	}
	if err := s.Users.SetOTP(ctx, u.ID, code, typ, now.Add(s.OTPTTL), now); err != nil {
		return err
	}
	s.deliver(ctx, u, code, typ)
	return nil
}

// deliver sends the code by mail. A failed send is logged; the user can
// request a new code once the cooldown has passed.
func (s *AuthService) deliver(ctx context.Context, u *domain.User, code string, typ domain.OTPType) {
	err := s.Mailer.SendOTP(ctx, mail.OTP{To: u.Email, Name: u.FullName, Code: code, Kind: typ, Expires: s.OTPTTL})
	if err != nil {
		applog.Logger().Error().Err(err).Str("user_id", u.ID).Str("kind", string(typ)).Msg("mail.otp.failed")
	}
}

func (s *AuthService) setPassword(ctx context.Context, userID, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return err
	}
	return s.Users.SetPassword(ctx, userID, string(hash), s.now().UTC())
}

func newOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
