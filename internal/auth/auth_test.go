package auth_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/speakeval/internal/auth"
	"github.com/JaimeStill/speakeval/internal/users"
)

var testParams = auth.HashParams{Time: 1, Memory: 64, Threads: 1, SaltLen: 16, KeyLen: 32}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type memUsers struct {
	mu    sync.Mutex
	byID  map[uuid.UUID]*users.Credentials
	email map[string]uuid.UUID
}

func newMemUsers() *memUsers {
	return &memUsers{
		byID:  make(map[uuid.UUID]*users.Credentials),
		email: make(map[string]uuid.UUID),
	}
}

func (m *memUsers) Create(_ context.Context, cmd users.CreateUserCommand) (*users.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.ToLower(cmd.Email)
	if _, ok := m.email[key]; ok {
		return nil, users.ErrDuplicate
	}
	c := &users.Credentials{
		User: users.User{
			ID:        uuid.New(),
			Email:     cmd.Email,
			Name:      cmd.Name,
			Role:      cmd.Role,
			CreatedAt: time.Now(),
		},
		PasswordHash: cmd.PasswordHash,
	}
	m.byID[c.ID] = c
	m.email[key] = c.ID
	u := c.User
	return &u, nil
}

func (m *memUsers) Find(_ context.Context, id uuid.UUID) (*users.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.byID[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	u := c.User
	return &u, nil
}

func (m *memUsers) FindCredentials(_ context.Context, email string) (*users.Credentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.email[strings.ToLower(email)]
	if !ok {
		return nil, users.ErrNotFound
	}
	c := *m.byID[id]
	return &c, nil
}

func newSystem(t *testing.T) (auth.System, *auth.Tokens) {
	t.Helper()
	tokens := auth.NewTokens("test-secret-0123456789", time.Hour, "speakeval")
	return auth.New(newMemUsers(), tokens, testParams, discardLogger()), tokens
}

func TestPassword_HashAndVerify(t *testing.T) {
	hash, err := auth.HashPassword("password123", testParams)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=64,t=1,p=1$") {
		t.Errorf("hash = %q, want PHC argon2id prefix", hash)
	}

	ok, err := auth.VerifyPassword("password123", hash)
	if err != nil || !ok {
		t.Errorf("VerifyPassword(correct) = %v, %v; want true, nil", ok, err)
	}

	ok, err = auth.VerifyPassword("wrong", hash)
	if err != nil || ok {
		t.Errorf("VerifyPassword(wrong) = %v, %v; want false, nil", ok, err)
	}
}

func TestPassword_SaltsDiffer(t *testing.T) {
	a, _ := auth.HashPassword("same", testParams)
	b, _ := auth.HashPassword("same", testParams)
	if a == b {
		t.Error("two hashes of the same password should differ")
	}
}

func TestVerifyPassword_Malformed(t *testing.T) {
	tests := []string{
		"",
		"plaintext",
		"$bcrypt$v=19$m=64,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=18$m=64,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$bogus$c2FsdA$a2V5",
		"$argon2id$v=19$m=64,t=1,p=1$!!$a2V5",
	}

	for _, encoded := range tests {
		t.Run(encoded, func(t *testing.T) {
			_, err := auth.VerifyPassword("x", encoded)
			if !errors.Is(err, auth.ErrMalformedHash) {
				t.Errorf("VerifyPassword() error = %v, want ErrMalformedHash", err)
			}
		})
	}
}

func TestTokens_IssueVerify(t *testing.T) {
	tokens := auth.NewTokens("test-secret-0123456789", time.Hour, "speakeval")
	id := uuid.New()

	tok, err := tokens.Issue(id)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	got, err := tokens.Verify(tok)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if got != id {
		t.Errorf("Verify() = %s, want %s", got, id)
	}
}

func TestTokens_Rejects(t *testing.T) {
	id := uuid.New()
	issued := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	issuer := auth.NewTokens("test-secret-0123456789", time.Hour, "speakeval").
		WithClock(func() time.Time { return issued })
	tok, err := issuer.Issue(id)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	tests := []struct {
		name     string
		verifier *auth.Tokens
		token    string
	}{
		{
			name: "expired",
			verifier: auth.NewTokens("test-secret-0123456789", time.Hour, "speakeval").
				WithClock(func() time.Time { return issued.Add(2 * time.Hour) }),
			token: tok,
		},
		{
			name: "wrong secret",
			verifier: auth.NewTokens("another-secret-0123456789", time.Hour, "speakeval").
				WithClock(func() time.Time { return issued }),
			token: tok,
		},
		{
			name: "wrong issuer",
			verifier: auth.NewTokens("test-secret-0123456789", time.Hour, "other").
				WithClock(func() time.Time { return issued }),
			token: tok,
		},
		{
			name:     "garbage",
			verifier: auth.NewTokens("test-secret-0123456789", time.Hour, "speakeval"),
			token:    "not.a.token",
		},
		{
			name:     "empty",
			verifier: auth.NewTokens("test-secret-0123456789", time.Hour, "speakeval"),
			token:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.verifier.Verify(tt.token)
			if !errors.Is(err, auth.ErrInvalidToken) {
				t.Errorf("Verify() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestSystem_RegisterLoginValidate(t *testing.T) {
	sys, _ := newSystem(t)
	ctx := context.Background()

	session, err := sys.Register(ctx, auth.RegisterCommand{
		Email:    "student@example.com",
		Password: "password123",
		Role:     users.RoleStudent,
		Name:     "Student",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if session.Token == "" || session.User.Email != "student@example.com" {
		t.Fatalf("Register() session = %+v", session)
	}

	login, err := sys.Login(ctx, auth.LoginCommand{Email: "Student@Example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if login.User.ID != session.User.ID {
		t.Errorf("Login() user = %s, want %s", login.User.ID, session.User.ID)
	}

	user, err := sys.Validate(ctx, login.Token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if user.Role != users.RoleStudent {
		t.Errorf("Validate() role = %q, want student", user.Role)
	}
}

func TestSystem_Errors(t *testing.T) {
	sys, tokens := newSystem(t)
	ctx := context.Background()

	_, err := sys.Register(ctx, auth.RegisterCommand{
		Email: "a@example.com", Password: "pw", Role: users.RoleEducator, Name: "A",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	t.Run("missing fields", func(t *testing.T) {
		_, err := sys.Register(ctx, auth.RegisterCommand{Email: "b@example.com"})
		if !errors.Is(err, auth.ErrMissingFields) {
			t.Errorf("error = %v, want ErrMissingFields", err)
		}
	})

	t.Run("invalid role", func(t *testing.T) {
		_, err := sys.Register(ctx, auth.RegisterCommand{
			Email: "b@example.com", Password: "pw", Role: "admin", Name: "B",
		})
		if !errors.Is(err, users.ErrInvalidRole) {
			t.Errorf("error = %v, want ErrInvalidRole", err)
		}
	})

	t.Run("duplicate", func(t *testing.T) {
		_, err := sys.Register(ctx, auth.RegisterCommand{
			Email: "A@example.com", Password: "pw", Role: users.RoleStudent, Name: "A2",
		})
		if !errors.Is(err, users.ErrDuplicate) {
			t.Errorf("error = %v, want ErrDuplicate", err)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := sys.Login(ctx, auth.LoginCommand{Email: "a@example.com", Password: "nope"})
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			t.Errorf("error = %v, want ErrInvalidCredentials", err)
		}
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := sys.Login(ctx, auth.LoginCommand{Email: "x@example.com", Password: "pw"})
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			t.Errorf("error = %v, want ErrInvalidCredentials", err)
		}
	})

	t.Run("token for unknown user", func(t *testing.T) {
		tok, _ := tokens.Issue(uuid.New())
		_, err := sys.Validate(ctx, tok)
		if !errors.Is(err, auth.ErrInvalidToken) {
			t.Errorf("error = %v, want ErrInvalidToken", err)
		}
	})
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{auth.ErrMissingFields, http.StatusBadRequest},
		{auth.ErrInvalidCredentials, http.StatusUnauthorized},
		{auth.ErrInvalidToken, http.StatusUnauthorized},
		{users.ErrDuplicate, http.StatusConflict},
		{users.ErrInvalidRole, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := auth.MapHTTPStatus(tt.err); got != tt.want {
				t.Errorf("MapHTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMiddleware(t *testing.T) {
	tokens := auth.NewTokens("test-secret-0123456789", time.Hour, "speakeval")
	id := uuid.New()
	tok, _ := tokens.Issue(id)

	var seen uuid.UUID
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = auth.UserID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	h := auth.Middleware(tokens, discardLogger())(next)

	tests := []struct {
		name       string
		setup      func(r *http.Request)
		wantStatus int
	}{
		{"header", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+tok) }, http.StatusNoContent},
		{"lowercase scheme", func(r *http.Request) { r.Header.Set("Authorization", "bearer "+tok) }, http.StatusNoContent},
		{"query fallback", func(r *http.Request) { r.URL.RawQuery = "token=" + tok }, http.StatusNoContent},
		{"missing", func(*http.Request) {}, http.StatusUnauthorized},
		{"invalid", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = uuid.Nil
			req := httptest.NewRequest(http.MethodGet, "/exams", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusNoContent && seen != id {
				t.Errorf("UserID = %s, want %s", seen, id)
			}
			if tt.wantStatus == http.StatusUnauthorized {
				var body map[string]string
				json.NewDecoder(rec.Body).Decode(&body)
				if body["error"] != "invalid token" {
					t.Errorf("error = %q, want %q", body["error"], "invalid token")
				}
			}
		})
	}
}

func TestHandler(t *testing.T) {
	sys, _ := newSystem(t)
	h := auth.NewHandler(sys, discardLogger())

	mux := http.NewServeMux()
	for _, r := range h.Routes().Routes {
		mux.HandleFunc(r.Method+" "+r.Pattern, r.Handler)
	}

	post := func(path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		return rec
	}

	rec := post("/register", `{"email":"e@example.com","password":"pw","role":"educator","name":"E"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body = %s", rec.Code, rec.Body)
	}

	if rec := post("/register", `{"email":"e@example.com","password":"pw","role":"educator","name":"E"}`); rec.Code != http.StatusConflict {
		t.Errorf("duplicate register status = %d, want 409", rec.Code)
	}
	if rec := post("/register", `{"email":"f@example.com"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("incomplete register status = %d, want 400", rec.Code)
	}
	if rec := post("/login", `{"email":"e@example.com","password":"bad"}`); rec.Code != http.StatusUnauthorized {
		t.Errorf("bad login status = %d, want 401", rec.Code)
	}
	if rec := post("/login", `{`); rec.Code != http.StatusBadRequest {
		t.Errorf("malformed login status = %d, want 400", rec.Code)
	}

	rec = post("/login", `{"email":"e@example.com","password":"pw"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body = %s", rec.Code, rec.Body)
	}
	var session auth.Session
	if err := json.NewDecoder(rec.Body).Decode(&session); err != nil {
		t.Fatalf("decode session: %v", err)
	}

	t.Run("validate-token valid", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/validate-token", nil)
		req.Header.Set("Authorization", "Bearer "+session.Token)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var body struct {
			Valid bool        `json:"valid"`
			User  *users.User `json:"user"`
		}
		json.NewDecoder(rec.Body).Decode(&body)
		if !body.Valid || body.User == nil || body.User.Role != users.RoleEducator {
			t.Errorf("body = %+v", body)
		}
	})

	t.Run("validate-token invalid", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/validate-token", nil)
		req.Header.Set("Authorization", "Bearer expired")
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
		var body map[string]any
		json.NewDecoder(rec.Body).Decode(&body)
		if body["valid"] != false || body["error"] != "invalid_or_expired_token" {
			t.Errorf("body = %v", body)
		}
	})
}
