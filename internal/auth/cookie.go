package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SessionMaxAgeSeconds はクッキーの MaxAge に利用する秒数を返します。
func (m *Manager) SessionMaxAgeSeconds() int {
	return int(m.ttl.Seconds())
}

// setSessionCookie は HttpOnly / SameSite=Lax のセッションクッキーを発行します。
func (m *Manager) setSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, token, m.SessionMaxAgeSeconds(), "/", m.cfg.CookieDomain, m.cfg.CookieSecure, true)
}

func (m *Manager) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, "", -1, "/", m.cfg.CookieDomain, m.cfg.CookieSecure, true)
}

// sessionToken はクッキーからトークンを読み取ります。無ければ空文字です。
func sessionToken(c *gin.Context) string {
	token, err := c.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return token
}
