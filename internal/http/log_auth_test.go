package handlers_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginOutcomesAreLogged(t *testing.T) {
	ta := newTestApp(t)
	u, _ := ta.addUser(t, "who@example.com", "user")
	logs := captureLogs(t)

	res := ta.do(t, "POST", "/api/auth/login", "", map[string]any{"email": "who@example.com", "password": "Wrong#123"})
	require.Equal(t, 401, res.Status)
	assert.Equal(t, "invalid email or password", res.Message)

	e := logs.find(t, "auth.login.fail")
	require.NotNil(t, e, "no auth.login.fail entry")
	assert.Equal(t, "security", e["kind"])
	assert.Equal(t, map[string]any{"email": "who@example.com"}, e["fields"])
	assert.Equal(t, float64(401), e["status"])
	require.NotNil(t, logs.find(t, "auth.login.denied"))

	res = ta.do(t, "POST", "/api/auth/login", "", map[string]any{"email": "who@example.com", "password": password})
	require.Equal(t, 200, res.Status)
	e = logs.find(t, "auth.login")
	require.NotNil(t, e)
	assert.Equal(t, "audit", e["kind"])
	assert.Equal(t, u.ID, e["user_id"])

	// credentials never reach the log
	for _, entry := range logs.entries(t) {
		for _, v := range entry {
			s, ok := v.(string)
			if ok {
				assert.False(t, strings.Contains(s, password))
			}
		}
	}
}

func TestRejectedTokenIsLogged(t *testing.T) {
	ta := newTestApp(t)
	logs := captureLogs(t)

	res := ta.do(t, "GET", "/api/cart", "garbage", nil)
	require.Equal(t, 401, res.Status)
	assert.Equal(t, "invalid token", res.Message)

	e := logs.find(t, "auth.token.denied")
	require.NotNil(t, e)
	assert.Equal(t, map[string]any{"reason": "invalid token"}, e["fields"])
	assert.Equal(t, float64(401), e["status"])
}
