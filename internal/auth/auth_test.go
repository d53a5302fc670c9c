package auth

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"
)

const testSecret = "test-secret-0123456789"

func TestIssueAndParse(t *testing.T) {
	tokens, err := NewTokens(testSecret)
	if err != nil {
		t.Fatalf("NewTokens: %v", err)
	}
	token, expires, err := tokens.Issue("user-42", []string{"Analyst", "supervisor", "analyst"}, 30*time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if time.Until(expires) <= 0 {
		t.Fatalf("expected future expiration, got %v", expires)
	}
	claims, err := tokens.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.Subject != "user-42" || claims.Issuer != issuer {
		t.Fatalf("unexpected claims: %+v", claims.RegisteredClaims)
	}
	if !slices.Equal(claims.Roles, []string{"analyst", "supervisor"}) {
		t.Fatalf("roles were not normalized: %v", claims.Roles)
	}
	if claims.ID == "" {
		t.Fatalf("expected token id")
	}
}

func TestIssueRejectsBadInput(t *testing.T) {
	tokens, err := NewTokens(testSecret)
	if err != nil {
		t.Fatalf("NewTokens: %v", err)
	}
	cases := []struct {
		name  string
		user  string
		roles []string
		ttl   time.Duration
	}{
		{"empty user", " ", []string{"analyst"}, time.Minute},
		{"no roles", "u1", nil, time.Minute},
		{"unknown role", "u1", []string{"root"}, time.Minute},
		{"zero ttl", "u1", []string{"analyst"}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := tokens.Issue(tc.user, tc.roles, tc.ttl); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestParseRejectsForeignAndExpiredTokens(t *testing.T) {
	tokens, _ := NewTokens(testSecret)
	other, _ := NewTokens("another-secret-abcdefgh")

	foreign, _, err := other.Issue("u1", []string{"admin"}, time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := tokens.Parse(foreign); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for foreign signature, got %v", err)
	}

	past := time.Now().Add(-2 * time.Hour).UTC()
	tokens.now = func() time.Time { return past }
	expired, _, err := tokens.Issue("u1", []string{"admin"}, time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	tokens.now = func() time.Time { return time.Now().UTC() }
	if _, err := tokens.Parse(expired); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
	if _, err := tokens.Parse(""); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for empty token")
	}
}

func TestNewTokensRequiresSecret(t *testing.T) {
	if _, err := NewTokens(""); !errors.Is(err, ErrMissingSecret) {
		t.Fatalf("expected ErrMissingSecret, got %v", err)
	}
	if _, err := NewTokens("short"); err == nil {
		t.Fatalf("expected short secret to be refused")
	}
}

func TestRolePermissions(t *testing.T) {
	cases := []struct {
		roles []string
		perm  string
		want  bool
	}{
		{[]string{"analyst"}, PermAnalyze, true},
		{[]string{"analyst"}, PermIngest, false},
		{[]string{"supervisor"}, PermTasks, true},
		{[]string{"analyst", "admin"}, PermIngest, true},
		{nil, PermRead, false},
	}
	for _, tc := range cases {
		if got := Allowed(tc.roles, tc.perm); got != tc.want {
			t.Fatalf("Allowed(%v, %s)=%v want %v", tc.roles, tc.perm, got, tc.want)
		}
	}
}

func TestContextHelpers(t *testing.T) {
	ctx := ContextWithPrincipal(context.Background(), Principal{UserID: " user-7 ", Roles: []string{"Analyst", "analyst"}})
	id, ok := UserIDFromContext(ctx)
	if !ok || id != "user-7" {
		t.Fatalf("unexpected user id: %q, ok=%v", id, ok)
	}
	p, _ := PrincipalFromContext(ctx)
	if len(p.Roles) != 1 || !p.Can(PermRead) || p.Can(PermIngest) {
		t.Fatalf("unexpected principal %+v", p)
	}
	if _, ok := UserIDFromContext(context.Background()); ok {
		t.Fatalf("expected no user in empty context")
	}
}
