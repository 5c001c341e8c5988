package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/recipehub/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":5000")
//	-d string   PostgreSQL DSN
//	-s string   token signing secret
//	-k int      bcrypt cost
//	-r string   reset password link base URL
//	-b string   blob backend ("disk" or "s3")
//	-u string   upload directory for the disk backend
//	-l string   log level
//
// Everything else comes from the JSON file or the environment.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-d", "-s", "-k", "-r", "-b", "-u", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "token signing secret")
	fs.IntVar(&config.HashCost, "k", config.HashCost, "bcrypt cost")
	fs.StringVar(&config.ResetPasswordURL, "r", config.ResetPasswordURL, "reset password link base URL")
	fs.StringVar(&config.BlobBackend, "b", config.BlobBackend, "blob backend (disk|s3)")
	fs.StringVar(&config.UploadDir, "u", config.UploadDir, "upload directory")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	return fs.Parse(args)
}
