package middleware

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestIdentity_FromHeadersUnlessSetUpstream(t *testing.T) {
	r := gin.New()
	r.GET("/plain", Identity(), func(c *gin.Context) {
		c.String(http.StatusOK, UserID(c)+"|"+UserRole(c))
	})
	r.GET("/upstream", func(c *gin.Context) {
		c.Set(CtxUserID, "from-jwt")
		c.Set(CtxUserRole, "admin")
	}, Identity(), func(c *gin.Context) {
		c.String(http.StatusOK, UserID(c)+"|"+UserRole(c))
	})

	w := serve(r, http.MethodGet, "/plain", map[string]string{HeaderUserID: " u1 ", HeaderUserRole: "Provider"})
	if got := w.Body.String(); got != "u1|provider" {
		t.Fatalf("header identity = %q", got)
	}
	w = serve(r, http.MethodGet, "/upstream", map[string]string{HeaderUserID: "spoof", HeaderUserRole: "customer"})
	if got := w.Body.String(); got != "from-jwt|admin" {
		t.Fatalf("upstream identity must win, got %q", got)
	}
	w = serve(r, http.MethodGet, "/plain", nil)
	if got := w.Body.String(); got != "|" {
		t.Fatalf("anonymous = %q", got)
	}
}

func TestRequireRole(t *testing.T) {
	r := gin.New()
	r.Use(Identity())
	r.GET("/admin", RequireRole("admin"), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	cases := []struct {
		name    string
		headers map[string]string
		want    int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"wrong role", map[string]string{HeaderUserID: "u1", HeaderUserRole: "customer"}, http.StatusForbidden},
		{"role without id", map[string]string{HeaderUserRole: "admin"}, http.StatusUnauthorized},
		{"admin", map[string]string{HeaderUserID: "ops", HeaderUserRole: "admin"}, http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if w := serve(r, http.MethodGet, "/admin", tc.headers); w.Code != tc.want {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tc.want, w.Body.String())
			}
		})
	}
}
