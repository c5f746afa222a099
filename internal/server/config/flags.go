package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/notekeeper/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":5001")
//	-d string   PostgreSQL DSN
//	-s string   JWT/HMAC secret key
//	-t int      session token validity, days
//	-f string   frontend URL (OAuth result redirects, CORS origin)
//	-b string   backend base URL (redirect URI derivation)
//	-i string   Google OAuth client id
//	-p string   Google OAuth client secret
//	-r string   OAuth redirect URI
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-t", "-f", "-b", "-i", "-p", "-r"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	tokenValidityDays := fs.Int("t", int(config.TokenValidityDuration.Hours()/24), "token validity (in days)")

	fs.StringVar(&config.FrontendURL, "f", config.FrontendURL, "frontend URL")
	fs.StringVar(&config.BackendURL, "b", config.BackendURL, "backend base URL")
	fs.StringVar(&config.GoogleClientID, "i", config.GoogleClientID, "Google OAuth client id")
	fs.StringVar(&config.GoogleClientSecret, "p", config.GoogleClientSecret, "Google OAuth client secret")
	fs.StringVar(&config.RedirectURI, "r", config.RedirectURI, "OAuth redirect URI")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.TokenValidityDuration = time.Duration(*tokenValidityDays) * 24 * time.Hour
}
