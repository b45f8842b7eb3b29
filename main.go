package main

import (
	_ "github.com/joho/godotenv/autoload" // Autoload .env file.

	"github.com/vietanh2810/squares-api/cmd/app"
)

// @title        Super Bowl Squares API
// @version      1.0
// @description  Fundraiser board with squares, quarter scores, reveals and payouts.
//
// @license.name  MIT
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Bearer token from /auth/passcode or /auth/login
func main() {
	if err := app.Start(); err != nil {
		panic(err)
	}
}
