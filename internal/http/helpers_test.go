package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"babashop/internal/config"
	"babashop/internal/domain"
	"babashop/internal/http/handlers"
	applog "babashop/internal/log"
	"babashop/internal/mail"
	"babashop/internal/payment"
	"babashop/internal/repos"
)

const password = "Secret#123"

type testApp struct {
	app     *fiber.App
	db      *sqlx.DB
	deps    *handlers.Deps
	gateway *payment.MemoryGateway
	mailer  *captureMailer
}

func testConfig(t *testing.T) config.Config {
	return config.Config{
		MediaDir:          t.TempDir(),
		JWTSecret:         "test-secret",
		JWTTTL:            time.Hour,
		OTPTTL:            10 * time.Minute,
		OTPResendCooldown: time.Minute,
		PaymentCurrency:   "vnd",
		PaymentTestMode:   true,
		MaxBodyBytes:      1 << 20,
		UploadMaxBytes:    10 << 20,
	}
}

func newTestApp(t *testing.T) *testApp {
	return newTestAppWith(t, testConfig(t))
}

func newTestAppWith(t *testing.T, cfg config.Config) *testApp {
	t.Helper()
	db, err := repos.OpenDB("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ta := &testApp{db: db, gateway: payment.NewMemoryGateway(), mailer: &captureMailer{}}
	ta.deps, err = handlers.NewDeps(db, cfg, handlers.Externals{Gateway: ta.gateway, Mailer: ta.mailer})
	require.NoError(t, err)
	ta.app = handlers.NewApp(ta.deps)
	return ta
}

// response is a decoded envelope with data left raw.
type response struct {
	Status  int             `json:"-"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (r response) decode(t *testing.T, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.Data, dst), "data: %s", r.Data)
}

// do sends body as JSON; a string body is sent verbatim.
func (ta *testApp) do(t *testing.T, method, path, token string, body any) response {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	case []byte:
		rd = bytes.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	return ta.send(t, req)
}

func (ta *testApp) send(t *testing.T, req *http.Request) response {
	t.Helper()
	resp, err := ta.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := response{Status: resp.StatusCode}
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(raw, &out), "body: %s", raw)
	}
	return out
}

// addUser inserts a verified account and returns it with a bearer token.
func (ta *testApp) addUser(t *testing.T, email, role string) (*domain.User, string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	now := time.Now().UTC()
	u := &domain.User{
		ID: uuid.NewString(), FullName: "Test " + role, Email: email, Hash: string(hash),
		Role: role, Status: domain.UserVerified, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, repos.NewUserRepo(ta.db).Create(context.Background(), u))
	token, _, err := ta.deps.Auth.Tokens.Issue(u.ID, role)
	require.NoError(t, err)
	return u, token
}

func (ta *testApp) addProduct(t *testing.T, name, price string, variants ...domain.Variant) domain.Product {
	t.Helper()
	now := time.Now().UTC()
	p := domain.Product{
		ID: uuid.NewString(), Name: name, Price: decimal.RequireFromString(price),
		Status: domain.ProductActive, Variants: variants, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, repos.NewProductRepo(ta.db).Create(context.Background(), &p))
	return p
}

// captureLogs redirects the process logger for the rest of the test.
func captureLogs(t *testing.T) *syncBuffer {
	buf := &syncBuffer{}
	applog.SetOutput(buf)
	t.Cleanup(func() { applog.SetOutput(os.Stdout) })
	return buf
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// entries decodes every JSON log line written so far.
func (b *syncBuffer) entries(t *testing.T) []map[string]any {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []map[string]any
	for _, line := range strings.Split(b.buf.String(), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m), "line: %s", line)
		out = append(out, m)
	}
	return out
}

// find returns the first entry logged under action.
func (b *syncBuffer) find(t *testing.T, action string) map[string]any {
	t.Helper()
	for _, e := range b.entries(t) {
		if e["action"] == action {
			return e
		}
	}
	return nil
}

type captureMailer struct {
	mu   sync.Mutex
	sent []mail.OTP
}

func (m *captureMailer) SendOTP(_ context.Context, msg mail.OTP) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func (m *captureMailer) last(t *testing.T) mail.OTP {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent, "no mail sent")
	return m.sent[len(m.sent)-1]
}
