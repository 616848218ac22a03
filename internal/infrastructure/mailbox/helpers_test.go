package mailbox

import (
	"aegis-secure/internal/config"
	"aegis-secure/pkg/logger"
)

func testGmailConfig() config.GmailConfig {
	return config.GmailConfig{
		ClientID:     "client-123",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost:8000/oauth/google/callback",
	}
}

func nopLogger() *logger.Logger {
	return logger.NewNop()
}
