package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/usergate/internal/flagx"
)

// parseFlags overlays Config with command-line flags.
//
//	-a string   base URL of the server
//	-db string  token database file
//	-i int      watch refresh interval in seconds
//
// Only flags that were actually passed override earlier values.
func parseFlags(cfg *Config) error {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-db", "-i"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "base URL of the server")
	fs.StringVar(&cfg.TokenDB, "db", cfg.TokenDB, "token database file (empty keeps tokens in memory)")
	interval := fs.Int("i", int(cfg.PollInterval.Seconds()), "watch refresh interval (in seconds)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "i" {
			cfg.PollInterval = time.Duration(*interval) * time.Second
		}
	})
	return nil
}
