package handlers_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminDenialIsLogged(t *testing.T) {
	ta := newTestApp(t)
	u, token := ta.addUser(t, "nosy@example.com", "user")
	logs := captureLogs(t)

	res := ta.do(t, "GET", "/api/admin/users", token, nil)
	require.Equal(t, 403, res.Status)

	e := logs.find(t, "access.denied.admin")
	require.NotNil(t, e, "no access.denied.admin entry")
	assert.Equal(t, "security", e["kind"])
	assert.Equal(t, "warn", e["level"])
	assert.Equal(t, "GET", e["method"])
	assert.Equal(t, "/api/admin/users", e["path"])
	assert.Equal(t, u.ID, e["user_id"])
	assert.NotEmpty(t, e["req_id"])
	assert.Equal(t, float64(403), e["status"])
}

func TestOrderLookupMissIsLogged(t *testing.T) {
	ta := newTestApp(t)
	_, token := ta.addUser(t, "snoop@example.com", "user")
	logs := captureLogs(t)

	res := ta.do(t, "GET", "/api/orders/does-not-exist", token, nil)
	require.Equal(t, 404, res.Status)

	e := logs.find(t, "order.view.miss")
	require.NotNil(t, e)
	assert.Equal(t, map[string]any{"order_id": "does-not-exist"}, e["fields"])
	assert.Equal(t, float64(404), e["status"])
}
