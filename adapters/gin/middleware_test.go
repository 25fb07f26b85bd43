package authgin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/connelaide/connelaide-api/authtest"
	jwtkit "github.com/connelaide/connelaide-api/jwt"
)

func newAuthedRouter(t *testing.T, iss *authtest.Issuer) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	v, err := jwtkit.NewVerifier(jwtkit.Options{
		JWKSURL:  iss.JWKSURL(),
		Issuer:   iss.URL(),
		Audience: iss.Audience(),
	})
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}

	r := gin.New()
	api := r.Group("/api", AuthRequired(v, nil))
	api.GET("/me", func(c *gin.Context) {
		id, _ := CurrentUser(c)
		c.JSON(http.StatusOK, id)
	})
	api.POST("/refresh", RequirePermission("write:refresh"), func(c *gin.Context) {
		c.Status(http.StatusAccepted)
	})
	return r
}

func doGet(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequiredValidToken(t *testing.T) {
	iss := authtest.NewIssuer("https://api.connelaide.com")
	defer iss.Close()
	r := newAuthedRouter(t, iss)

	w := doGet(r, "/api/me", iss.CreateToken("auth0|user-123", "cole@connelaide.com"))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var got struct {
		Sub   string `json:"sub"`
		Email string `json:"email"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if got.Sub != "auth0|user-123" || got.Email != "cole@connelaide.com" {
		t.Errorf("identity = %+v", got)
	}
}

func TestAuthRequiredMissingHeader(t *testing.T) {
	iss := authtest.NewIssuer("https://api.connelaide.com")
	defer iss.Close()
	r := newAuthedRouter(t, iss)

	if w := doGet(r, "/api/me", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestAuthRequiredRejectsWithoutDetail(t *testing.T) {
	iss := authtest.NewIssuer("https://api.connelaide.com")
	defer iss.Close()
	r := newAuthedRouter(t, iss)

	w := doGet(r, "/api/me", iss.CreateExpiredToken("auth0|user-123", ""))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}
	// The body never names the failing check.
	if body := w.Body.String(); body != `{"error":"unauthorized"}` {
		t.Errorf("body leaked detail: %s", body)
	}
}

func TestRequirePermission(t *testing.T) {
	iss := authtest.NewIssuer("https://api.connelaide.com")
	defer iss.Close()
	r := newAuthedRouter(t, iss)

	post := func(token string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/refresh", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	if code := post(iss.CreateToken("auth0|user-123", "")); code != http.StatusForbidden {
		t.Errorf("without permission: status = %d", code)
	}
	token := iss.CreateTokenWithPermissions("auth0|admin", "", []string{"write:refresh"})
	if code := post(token); code != http.StatusAccepted {
		t.Errorf("with permission: status = %d", code)
	}
}

func TestBearerTokenParsing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi", true},
		{"bearer abc.def.ghi", "abc.def.ghi", true},
		{"Basic dXNlcjpwYXNz", "", false},
		{"Bearer ", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.header != "" {
			c.Request.Header.Set("Authorization", tc.header)
		}
		got, ok := bearerToken(c)
		if got != tc.want || ok != tc.ok {
			t.Errorf("header %q: got (%q, %v), want (%q, %v)", tc.header, got, ok, tc.want, tc.ok)
		}
	}
}
