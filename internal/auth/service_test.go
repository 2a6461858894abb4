package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/adonis32/expenses-app/internal/common"
	"github.com/adonis32/expenses-app/internal/repo"
)

type fakeUserStore struct {
	byEmail   map[string]repo.User
	byID      map[string]repo.User
	createErr error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		byEmail: make(map[string]repo.User),
		byID:    make(map[string]repo.User),
	}
}

func (f *fakeUserStore) CreateUser(_ context.Context, email, passwordHash, displayName string) (repo.User, error) {
	if f.createErr != nil {
		return repo.User{}, f.createErr
	}
	if _, exists := f.byEmail[email]; exists {
		return repo.User{}, errors.New("duplicate email")
	}
	u := repo.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		DisplayName:  displayName,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	f.byEmail[email] = u
	f.byID[u.ID] = u
	return u, nil
}

func (f *fakeUserStore) GetUserByEmail(_ context.Context, email string) (repo.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return repo.User{}, repo.ErrNoRows
	}
	return u, nil
}

func (f *fakeUserStore) GetUserByID(_ context.Context, userID string) (repo.User, error) {
	u, ok := f.byID[userID]
	if !ok {
		return repo.User{}, repo.ErrNoRows
	}
	return u, nil
}

func (f *fakeUserStore) UpdateDisplayName(_ context.Context, userID, displayName string) (repo.User, error) {
	u, ok := f.byID[userID]
	if !ok {
		return repo.User{}, repo.ErrNoRows
	}
	u.DisplayName = displayName
	u.UpdatedAt = time.Now()
	f.byID[userID] = u
	f.byEmail[u.Email] = u
	return u, nil
}

func newTestService(t *testing.T) (*Service, *fakeUserStore) {
	t.Helper()
	store := newFakeUserStore()
	svc, err := NewService(Config{
		Store:          store,
		Secret:         "super-secret-key",
		AccessTokenTTL: time.Minute,
		Issuer:         "expenses-app",
		Audience:       "expenses-frontend",
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, store
}

func TestServiceRegisterAndLogin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Alice", "Alice@Example.com", "password123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Fatalf("email not normalized: %s", user.Email)
	}
	if user.DisplayName != "Alice" {
		t.Fatalf("unexpected display name: %s", user.DisplayName)
	}

	result, err := svc.Login(ctx, "alice@example.com", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.AccessToken == "" {
		t.Fatal("expected access token")
	}

	subject, err := svc.ParseAccessToken(result.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if subject != user.ID {
		t.Fatalf("unexpected subject: %s", subject)
	}
}

func TestServiceRegisterValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name, display, email, password string
	}{
		{"missing display name", "", "a@b.com", "password123"},
		{"missing email", "Alice", "", "password123"},
		{"short password", "Alice", "a@b.com", "short"},
	}
	for _, tc := range cases {
		if _, err := svc.Register(ctx, tc.display, tc.email, tc.password); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		} else if !common.IsAppError(err) {
			t.Fatalf("%s: expected app error, got %v", tc.name, err)
		}
	}
}

func TestServiceLoginWrongPassword(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	hash, err := argon2id.CreateHash("correct-password", argon2id.DefaultParams)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	store.byEmail["bob@example.com"] = repo.User{ID: uuid.NewString(), Email: "bob@example.com", PasswordHash: hash}

	if _, err := svc.Login(ctx, "bob@example.com", "wrong-password"); err == nil {
		t.Fatal("expected invalid credentials error")
	}
	if _, err := svc.Login(ctx, "nobody@example.com", "whatever"); err == nil {
		t.Fatal("expected invalid credentials error for unknown user")
	}
}

func TestServiceUpdateProfile(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Carol", "carol@example.com", "password123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	updated, err := svc.UpdateProfile(ctx, user.ID, "Carol D.")
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if updated.DisplayName != "Carol D." {
		t.Fatalf("unexpected display name: %s", updated.DisplayName)
	}

	if _, err := svc.UpdateProfile(ctx, user.ID, "   "); err == nil {
		t.Fatal("expected validation error for blank name")
	}
	if _, err := svc.UpdateProfile(ctx, uuid.NewString(), "Someone"); err == nil {
		t.Fatal("expected not found error")
	}
}

func TestServiceParseAccessTokenExpired(t *testing.T) {
	svc, _ := newTestService(t)
	fixed := time.Now()
	svc.WithNow(func() time.Time { return fixed })

	token, _, err := svc.signAccessToken("user-id")
	if err != nil {
		t.Fatalf("sign access token: %v", err)
	}

	svc.WithNow(func() time.Time { return fixed.Add(2 * time.Minute) })
	if _, err := svc.ParseAccessToken(token); err == nil {
		t.Fatal("expected expiry error")
	}
}

func TestServiceParseAccessTokenRejectsAlgorithmMismatch(t *testing.T) {
	svc, _ := newTestService(t)
	fixed := time.Now()
	svc.WithNow(func() time.Time { return fixed })

	built, err := jwt.NewBuilder().
		Subject("user-id").
		Issuer(svc.policy.issuer).
		Audience([]string{svc.policy.audience}).
		IssuedAt(fixed).
		NotBefore(fixed).
		Expiration(fixed.Add(svc.accessTTL)).
		Build()
	if err != nil {
		t.Fatalf("build token: %v", err)
	}
	signed, err := jwt.Sign(built, jwt.WithKey(jwa.HS384, svc.secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, err := svc.ParseAccessToken(string(signed)); err == nil {
		t.Fatal("expected algorithm mismatch error")
	}
}
