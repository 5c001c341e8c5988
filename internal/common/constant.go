package common

import "time"

// SessionCookieName is the cookie that carries the session token.
const SessionCookieName = "recipe_token"

// Token lifetimes used by the session and password reset flows.
const (
	SessionTokenTTL = 7 * 24 * time.Hour
	ResetTokenTTL   = time.Hour
)
