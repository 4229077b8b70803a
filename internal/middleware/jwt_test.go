package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const jwtTestSecret = "unit-test-secret"

func signTestToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func jwtApp() *fiber.App {
	app := fiber.New()
	app.Use(JWTProtected(jwtTestSecret))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		identity, ok := IdentityFromRequest(c)
		if !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.JSON(fiber.Map{
			"id":         identity.ID,
			"role":       identity.Role.String(),
			"department": identity.Department,
			"class":      identity.Class,
			"semester":   identity.Semester,
		})
	})

	return app
}

func TestJWTProtectedBindsIdentity(t *testing.T) {
	app := jwtApp()

	token := signTestToken(t, jwtTestSecret, jwt.MapClaims{
		"sub":        float64(42),
		"role":       "teacher",
		"department": "CS",
		"class":      "A",
		"exp":        time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload struct {
		ID         uint   `json:"id"`
		Role       string `json:"role"`
		Department string `json:"department"`
		Class      string `json:"class"`
		Semester   *int   `json:"semester"`
	}
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.Equal(t, uint(42), payload.ID)
	require.Equal(t, "teacher", payload.Role)
	require.Equal(t, "CS", payload.Department)
	require.Equal(t, "A", payload.Class)
	require.Nil(t, payload.Semester)
}

func TestJWTProtectedParsesSemesterClaim(t *testing.T) {
	app := jwtApp()

	token := signTestToken(t, jwtTestSecret, jwt.MapClaims{
		"sub":        float64(7),
		"role":       "student",
		"department": "CS",
		"semester":   float64(4),
		"exp":        time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload struct {
		Semester *int `json:"semester"`
	}
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.NotNil(t, payload.Semester)
	require.Equal(t, 4, *payload.Semester)
}

func TestJWTProtectedRejectsBadTokens(t *testing.T) {
	app := jwtApp()

	cases := map[string]func(*http.Request){
		"missing header": func(*http.Request) {},
		"not bearer": func(req *http.Request) {
			req.Header.Set("Authorization", "Basic abc")
		},
		"wrong secret": func(req *http.Request) {
			token := signTestToken(t, "other-secret", jwt.MapClaims{
				"sub":  float64(1),
				"role": "student",
				"exp":  time.Now().Add(time.Hour).Unix(),
			})
			req.Header.Set("Authorization", "Bearer "+token)
		},
		"expired": func(req *http.Request) {
			token := signTestToken(t, jwtTestSecret, jwt.MapClaims{
				"sub":  float64(1),
				"role": "student",
				"exp":  time.Now().Add(-time.Hour).Unix(),
			})
			req.Header.Set("Authorization", "Bearer "+token)
		},
		"unknown role": func(req *http.Request) {
			token := signTestToken(t, jwtTestSecret, jwt.MapClaims{
				"sub":  float64(1),
				"role": "janitor",
				"exp":  time.Now().Add(time.Hour).Unix(),
			})
			req.Header.Set("Authorization", "Bearer "+token)
		},
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			mutate(req)
			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		})
	}
}
