// Prints a signed access token for local testing.
// Uso: go run ./cmd/gentoken -rol cajero -user 1
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/maurobense/ShingekiNoAPP/internal/config"
	"github.com/maurobense/ShingekiNoAPP/internal/middleware"
)

func main() {
	rol := flag.String("rol", middleware.RolAdministrador, "administrador | cajero | cocinero | repartidor")
	userID := flag.Uint("user", 1, "user id carried in the token")
	username := flag.String("username", "dev", "username claim")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	tok, err := middleware.SignToken(cfg.JWTSecret, middleware.JWTClaims{
		UserID:   *userID,
		Username: *username,
		Rol:      *rol,
	}, time.Duration(cfg.JWTExpirationHours)*time.Hour)
	if err != nil {
		fmt.Fprintln(os.Stderr, "sign:", err)
		os.Exit(1)
	}
	fmt.Println(tok)
}
