package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/eringen/inkwell"
)

func main() {
	redisDB, _ := strconv.Atoi(inkwell.EnvOr("REDIS_DB", "0"))

	app := inkwell.New(inkwell.Config{
		Addr:            inkwell.EnvOr("ADDR", ":3000"),
		DatabasePath:    inkwell.EnvOr("DATABASE_PATH", "data/blog.db"),
		SiteName:        inkwell.EnvOr("SITE_NAME", "Blog"),
		SiteURL:         inkwell.EnvOr("SITE_URL", "http://localhost:3000"),
		SiteDescription: os.Getenv("SITE_DESCRIPTION"),
		JWTSecret:       inkwell.MustEnv("JWT_SECRET"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		RedisDB:         redisDB,
		CookieSecure:    os.Getenv("COOKIE_SECURE") == "true",
	})
	defer app.Close()

	if err := app.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "inkwell: %v\n", err)
		os.Exit(1)
	}
}
