package utils

import (
	"log"
	"os"
)

// JWTSecretKey verifies bearer tokens issued by the external auth service.
// Token issuance lives outside this service entirely.
var JWTSecretKey string

func InitJWT() {
	if os.Getenv("GO_ENV") == "test" && os.Getenv("JWT_SECRET_KEY") == "" {
		os.Setenv("JWT_SECRET_KEY", "test_secret_key")
	}

	JWTSecretKey = os.Getenv("JWT_SECRET_KEY")
	if JWTSecretKey == "" {
		log.Fatal("JWT Secret Key not set")
	}
}
