package config

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/usergate/internal/flagx"
)

// parseFlags overlays the short command-line flags.
//
//	-a string   HTTP bind address (e.g. ":3001")
//	-g string   gRPC health bind address (e.g. ":50051")
//	-d string   PostgreSQL DSN, empty for the in-memory store
//	-s string   JWT HMAC secret
//	-t int      access token validity, hours
//	-r int      refresh token validity, hours
//	-o string   comma-separated CORS origins
//	-e string   environment (local, dev, prod)
//
// os.Args is filtered through flagx.FilterArgs first so flags meant for
// other parsers (-c) do not break this one.
func parseFlags(config *Config) error {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-g", "-d", "-s", "-t", "-r", "-o", "-e"})

	fs := flag.NewFlagSet("server", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "http address")
	fs.StringVar(&config.GRPCAddr, "g", config.GRPCAddr, "grpc health address")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "jwt secret")
	fs.StringVar(&config.Env, "e", config.Env, "environment")

	accessHours := fs.Int("t", int(config.AccessTokenValidityDuration.Hours()), "access token validity (hours)")
	refreshHours := fs.Int("r", int(config.RefreshTokenValidityDuration.Hours()), "refresh token validity (hours)")
	origins := fs.String("o", strings.Join(config.AllowedOrigins, ","), "allowed CORS origins, comma separated")

	if err := fs.Parse(args); err != nil {
		return err
	}

	visited := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { visited[f.Name] = true })

	if visited["t"] {
		config.AccessTokenValidityDuration = time.Duration(*accessHours) * time.Hour
	}
	if visited["r"] {
		config.RefreshTokenValidityDuration = time.Duration(*refreshHours) * time.Hour
	}
	if visited["o"] {
		config.AllowedOrigins = splitList(*origins)
	}
	return nil
}

func splitList(s string) []string {
	out := []string{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
