package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"babashop/internal/domain"
)

type authFixture struct {
	svc    *AuthService
	mailer *fakeMailer
	clock  time.Time
}

func newAuth(t *testing.T) *authFixture {
	t.Helper()
	f := &authFixture{mailer: &fakeMailer{}, clock: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	f.svc = NewAuthService(newDB(t), NewTokenIssuer("test-secret", time.Hour), f.mailer, 10*time.Minute, time.Minute)
	f.svc.hashCost = bcrypt.MinCost
	f.svc.now = func() time.Time { return f.clock }
	f.svc.Tokens.now = func() time.Time { return f.clock }
	return f
}

func (f *authFixture) register(t *testing.T, email string) *domain.User {
	t.Helper()
	u, err := f.svc.Register(context.Background(), RegisterInput{
		FullName: "Lan Pham", Email: email, Password: testPassword, Gender: "female",
	})
	require.NoError(t, err)
	return u
}

func TestAuth_RegisterVerifyLogin(t *testing.T) {
	ctx := context.Background()
	f := newAuth(t)

	u := f.register(t, "  Lan@Example.com ")
	assert.Equal(t, "lan@example.com", u.Email)
	assert.Equal(t, domain.UserUnverified, u.Status)
	assert.Equal(t, domain.RoleUser, u.Role)

	_, err := f.svc.Login(ctx, "lan@example.com", testPassword)
	assert.ErrorIs(t, err, ErrForbidden, "unverified accounts cannot log in")

	msg := f.mailer.last(t)
	assert.Equal(t, "lan@example.com", msg.To)
	assert.Equal(t, domain.OTPRegister, msg.Kind)
	assert.Len(t, msg.Code, 6)

	require.NoError(t, f.svc.VerifyOTP(ctx, "lan@example.com", msg.Code))
	assert.ErrorIs(t, f.svc.VerifyOTP(ctx, "lan@example.com", msg.Code), ErrBusinessRule)

	res, err := f.svc.Login(ctx, "LAN@example.com", testPassword)
	require.NoError(t, err)
	assert.Equal(t, "Bearer", res.TokenType)
	assert.Equal(t, f.clock.Add(time.Hour), res.ExpiresAt)

	who, err := f.svc.Authenticate(ctx, res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, who.ID)
}

func TestAuth_RegisterValidation(t *testing.T) {
	ctx := context.Background()
	f := newAuth(t)
	f.register(t, "taken@example.com")

	cases := []struct {
		name string
		in   RegisterInput
		want error
	}{
		{"weak password", RegisterInput{FullName: "A", Email: "a@example.com", Password: "password"}, ErrValidation},
		{"bad email", RegisterInput{FullName: "A", Email: "nope", Password: testPassword}, ErrValidation},
		{"missing name", RegisterInput{Email: "b@example.com", Password: testPassword}, ErrValidation},
		{"bad gender", RegisterInput{FullName: "A", Email: "c@example.com", Password: testPassword, Gender: "robot"}, ErrValidation},
		{"bad phone", RegisterInput{FullName: "A", Email: "d@example.com", Password: testPassword, PhoneNumber: "12ab"}, ErrValidation},
		{"duplicate", RegisterInput{FullName: "A", Email: "TAKEN@example.com", Password: testPassword}, ErrConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Register(ctx, tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestAuth_MailFailureKeepsAccount(t *testing.T) {
	ctx := context.Background()
	f := newAuth(t)
	f.mailer.err = errors.New("smtp down")

	u := f.register(t, "quiet@example.com")
	stored, err := f.svc.Users.ByID(ctx, u.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, stored.OTPCode)
}

func TestAuth_OTPRules(t *testing.T) {
	ctx := context.Background()
	f := newAuth(t)
	f.register(t, "otp@example.com")
	code := f.mailer.last(t).Code

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	assert.ErrorIs(t, f.svc.VerifyOTP(ctx, "otp@example.com", wrong), ErrBusinessRule)
	assert.ErrorIs(t, f.svc.VerifyOTP(ctx, "otp@example.com", "12ab56"), ErrValidation)
	assert.ErrorIs(t, f.svc.VerifyOTP(ctx, "ghost@example.com", code), ErrNotFound)

	err := f.svc.ResendOTP(ctx, "otp@example.com", domain.OTPRegister)
	require.ErrorIs(t, err, ErrBusinessRule)
	assert.Contains(t, Message(err), "please wait 60 seconds")

	f.clock = f.clock.Add(30 * time.Second)
	err = f.svc.ResendOTP(ctx, "otp@example.com", domain.OTPRegister)
	assert.Contains(t, Message(err), "please wait 30 seconds")

	f.clock = f.clock.Add(11 * time.Minute)
	assert.ErrorIs(t, f.svc.VerifyOTP(ctx, "otp@example.com", code), ErrBusinessRule, "expired code")

	require.NoError(t, f.svc.ResendOTP(ctx, "otp@example.com", ""))
	fresh := f.mailer.last(t)
	require.NoError(t, f.svc.VerifyOTP(ctx, "otp@example.com", fresh.Code))

	assert.ErrorIs(t, f.svc.ResendOTP(ctx, "otp@example.com", "LOGIN"), ErrValidation)
}

func TestAuth_ForgotAndResetPassword(t *testing.T) {
	ctx := context.Background()
	f := newAuth(t)
	f.register(t, "reset@example.com")
	require.NoError(t, f.svc.VerifyOTP(ctx, "reset@example.com", f.mailer.last(t).Code))

	assert.ErrorIs(t, f.svc.ForgotPassword(ctx, "reset@example.com"), ErrBusinessRule, "cooldown applies")
	f.clock = f.clock.Add(2 * time.Minute)
	require.NoError(t, f.svc.ForgotPassword(ctx, "reset@example.com"))
	msg := f.mailer.last(t)
	assert.Equal(t, domain.OTPReset, msg.Kind)

	assert.ErrorIs(t, f.svc.VerifyOTP(ctx, "reset@example.com", msg.Code), ErrBusinessRule)
	assert.ErrorIs(t, f.svc.ResetPassword(ctx, "reset@example.com", msg.Code, "short"), ErrValidation)
	require.NoError(t, f.svc.ResetPassword(ctx, "reset@example.com", msg.Code, "N3w#Password"))

	_, err := f.svc.Login(ctx, "reset@example.com", testPassword)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = f.svc.Login(ctx, "reset@example.com", "N3w#Password")
	require.NoError(t, err)
}

func TestAuth_ChangePassword(t *testing.T) {
	ctx := context.Background()
	f := newAuth(t)
	u := f.register(t, "change@example.com")

	assert.ErrorIs(t, f.svc.ChangePassword(ctx, u.ID, "Wrong#123", "N3w#Password"), ErrBusinessRule)
	assert.ErrorIs(t, f.svc.ChangePassword(ctx, u.ID, testPassword, testPassword), ErrValidation)
	assert.ErrorIs(t, f.svc.ChangePassword(ctx, u.ID, testPassword, "weak"), ErrValidation)
	assert.ErrorIs(t, f.svc.ChangePassword(ctx, "missing", testPassword, "N3w#Password"), ErrNotFound)
	require.NoError(t, f.svc.ChangePassword(ctx, u.ID, testPassword, "N3w#Password"))

	stored, err := f.svc.Users.ByID(ctx, u.ID)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Hash), []byte("N3w#Password")))
}

func TestAuth_LoginFailures(t *testing.T) {
	ctx := context.Background()
	f := newAuth(t)
	f.register(t, "fail@example.com")

	_, err := f.svc.Login(ctx, "fail@example.com", "Wrong#123")
	assert.ErrorIs(t, err, ErrBadCreds)
	_, err = f.svc.Login(ctx, "nobody@example.com", testPassword)
	assert.ErrorIs(t, err, ErrBadCreds)
}

func TestAuth_AuthenticateRejectsBadTokens(t *testing.T) {
	ctx := context.Background()
	f := newAuth(t)

	_, err := f.svc.Authenticate(ctx, "not-a-token")
	assert.ErrorIs(t, err, ErrUnauthorized)

	tok, _, err := f.svc.Tokens.Issue("ghost", domain.RoleUser)
	require.NoError(t, err)
	_, err = f.svc.Authenticate(ctx, tok)
	assert.ErrorIs(t, err, ErrUnauthorized, "deleted account")

	other := NewTokenIssuer("other-secret", time.Hour)
	forged, _, err := other.Issue("ghost", domain.RoleAdmin)
	require.NoError(t, err)
	_, err = f.svc.Authenticate(ctx, forged)
	assert.ErrorIs(t, err, ErrUnauthorized)

	f.clock = f.clock.Add(2 * time.Hour)
	_, err = f.svc.Authenticate(ctx, tok)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, "token expired", Message(err))
}
