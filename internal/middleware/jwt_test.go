package middleware

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func signed(t *testing.T, method jwt.SigningMethod, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func newApp() *fiber.App {
	app := fiber.New()
	app.Get("/me", JWTAuth(testSecret), func(c *fiber.Ctx) error {
		return c.SendString(UserID(c))
	})
	return app
}

func TestJWTAuth(t *testing.T) {
	valid := signed(t, jwt.SigningMethodHS512, jwt.MapClaims{"sub": "user-1", "exp": time.Now().Add(time.Hour).Unix()})
	expired := signed(t, jwt.SigningMethodHS256, jwt.MapClaims{"sub": "user-1", "exp": time.Now().Add(-time.Hour).Unix()})
	noSub := signed(t, jwt.SigningMethodHS256, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})

	cases := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"valid", "Bearer " + valid, fiber.StatusOK, "user-1"},
		{"missing", "", fiber.StatusUnauthorized, ""},
		{"not bearer", "Basic abc", fiber.StatusUnauthorized, ""},
		{"garbage", "Bearer abc.def.ghi", fiber.StatusUnauthorized, ""},
		{"expired", "Bearer " + expired, fiber.StatusUnauthorized, ""},
		{"no subject", "Bearer " + noSub, fiber.StatusUnauthorized, ""},
	}

	app := newApp()
	for _, tc := range cases {
		req := httptest.NewRequest("GET", "/me", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if resp.StatusCode != tc.status {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.status, resp.StatusCode)
		}
		if tc.body != "" {
			b, _ := io.ReadAll(resp.Body)
			if string(b) != tc.body {
				t.Fatalf("%s: expected body %q, got %q", tc.name, tc.body, b)
			}
		}
	}
}

func TestJWTAuthRejectsWrongSecret(t *testing.T) {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "user-1"}).SignedString([]byte("other"))
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err := newApp().Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}
