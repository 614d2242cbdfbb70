package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/vidhub/platform-api/internal/core/domain"
)

const (
	accessTokenCookie  = "accessToken"
	refreshTokenCookie = "refreshToken"
)

// setTokenCookies mirrors the token pair into HttpOnly secure cookies so
// browser clients get the same credentials the JSON body carries.
func setTokenCookies(c echo.Context, pair domain.TokenPair) {
	c.SetCookie(tokenCookie(accessTokenCookie, pair.AccessToken, 0))
	c.SetCookie(tokenCookie(refreshTokenCookie, pair.RefreshToken, 0))
}

// clearTokenCookies expires both token cookies.
func clearTokenCookies(c echo.Context) {
	c.SetCookie(tokenCookie(accessTokenCookie, "", -1))
	c.SetCookie(tokenCookie(refreshTokenCookie, "", -1))
}

func tokenCookie(name, value string, maxAge int) *http.Cookie {
	cookie := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   maxAge,
	}
	if maxAge < 0 {
		cookie.Expires = time.Unix(0, 0)
	}
	return cookie
}
