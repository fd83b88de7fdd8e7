package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmail(t *testing.T) {
	got, ok := Email("  Alice@Example.COM ")
	assert.True(t, ok)
	assert.Equal(t, "alice@example.com", got)

	for _, bad := range []string{"", "nope", "a@b", "a b@c.de"} {
		_, ok := Email(bad)
		assert.False(t, ok, bad)
	}
}

func TestPassword(t *testing.T) {
	assert.True(t, Password("Secret#123"))
	assert.False(t, Password("secret#123"), "no upper")
	assert.False(t, Password("SECRET#123"), "no lower")
	assert.False(t, Password("Secret#abc"), "no digit")
	assert.False(t, Password("Secret1234"), "no symbol")
	assert.False(t, Password("Se#1"), "too short")
}

func TestOTPAndPhone(t *testing.T) {
	_, ok := OTP("123456")
	assert.True(t, ok)
	_, ok = OTP("12345a")
	assert.False(t, ok)

	p, ok := Phone("+84 912 345 678")
	assert.True(t, ok)
	assert.Equal(t, "+84912345678", p)
	_, ok = Phone("12ab")
	assert.False(t, ok)
}

func TestPaging(t *testing.T) {
	p, s := Paging(0, 0, 12, 100)
	assert.Equal(t, 1, p)
	assert.Equal(t, 12, s)

	_, s = Paging(3, 500, 12, 100)
	assert.Equal(t, 100, s)
}

func TestBetween(t *testing.T) {
	assert.True(t, Between(-999, -999, 999))
	assert.True(t, Between(999, -999, 999))
	assert.False(t, Between(1000, -999, 999))
	assert.False(t, Between(-1, 0, 100000))
	assert.True(t, Between(0, 0, 100000))
	assert.False(t, Between(100001, 0, 100000))
	assert.False(t, Rating(0))
	assert.True(t, Rating(5))
}

func TestNameAndGender(t *testing.T) {
	_, ok := Name("   ", 10)
	assert.False(t, ok)
	n, ok := Name(" Giày chạy ", 20)
	assert.True(t, ok)
	assert.Equal(t, "Giày chạy", n)

	g, ok := Gender("Female")
	assert.True(t, ok)
	assert.Equal(t, "female", g)
	_, ok = Gender("robot")
	assert.False(t, ok)
}
