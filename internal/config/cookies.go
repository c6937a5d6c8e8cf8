package config

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

// Cookies splits a player token across two cookies: "auth" carries the
// readable header and payload, "sign" the HttpOnly signature.
type Cookies struct {
	Domain   string
	Secure   bool
	SameSite http.SameSite
	jwt      *JWT
}

func parseSameSite(s string) (http.SameSite, error) {
	switch strings.ToUpper(s) {
	case "DEFAULT":
		return http.SameSiteDefaultMode, nil
	case "LAX":
		return http.SameSiteLaxMode, nil
	case "", "STRICT":
		return http.SameSiteStrictMode, nil
	case "NONE":
		return http.SameSiteNoneMode, nil
	}
	return 0, fmt.Errorf("invalid COOKIES_SAMESITE %q", s)
}

func NewCookies(j *JWT) (*Cookies, error) {
	sameSite, err := parseSameSite(os.Getenv("COOKIES_SAMESITE"))
	if err != nil {
		return nil, err
	}
	secure := !Development()
	if s, ok := os.LookupEnv("COOKIES_SECURE"); ok {
		secure = s != "0"
	}
	return &Cookies{
		Domain:   os.Getenv("COOKIES_DOMAIN"),
		Secure:   secure,
		SameSite: sameSite,
		jwt:      j,
	}, nil
}

func (c *Cookies) Clear(w http.ResponseWriter) {
	for _, name := range []string{"auth", "sign"} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Path:     "/",
			Value:    "delete",
			MaxAge:   -1,
			HttpOnly: name == "sign",
			Domain:   c.Domain,
			Secure:   c.Secure,
			SameSite: c.SameSite,
		})
	}
}

func (c *Cookies) Refresh(w http.ResponseWriter, token string) error {
	i := strings.LastIndexByte(token, '.')
	if i < 0 || strings.Count(token, ".") != 2 {
		return fmt.Errorf("malformed JWT token generated")
	}
	expires := time.Now().Add(c.jwt.Lifetime())
	http.SetCookie(w, &http.Cookie{
		Name:     "auth",
		Path:     "/",
		Value:    token[:i],
		Expires:  expires,
		Domain:   c.Domain,
		Secure:   c.Secure,
		SameSite: c.SameSite,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     "sign",
		Path:     "/",
		Value:    token[i+1:],
		Expires:  expires,
		HttpOnly: true,
		Domain:   c.Domain,
		Secure:   c.Secure,
		SameSite: c.SameSite,
	})
	return nil
}

// Token reassembles the token from the request cookies.
func (c *Cookies) Token(r *http.Request) (string, error) {
	authCookie, err := r.Cookie("auth")
	if err != nil {
		return "", err
	}
	signCookie, err := r.Cookie("sign")
	if err != nil {
		return "", err
	}
	return authCookie.Value + "." + signCookie.Value, nil
}

func (c *Cookies) ParsePlayerClaims(r *http.Request) (*PlayerClaims, error) {
	token, err := c.Token(r)
	if err != nil {
		return nil, err
	}
	return c.jwt.ParsePlayerClaims(token)
}
