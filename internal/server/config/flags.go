package config

import (
	"flag"
	"os"
	"time"

	"github.com/mkalinins/dashvault/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-s string   session signing secret
//	-l int      session token lifetime, minutes
//	-g string   git backend API base URL
//	-t string   git backend bearer token
//	-o string   git backend repository owner
//	-r string   git backend repository name
//	-b string   git backend branch
//	-d string   dashboards directory inside the repository
//	-u string   users document path inside the repository
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-s", "-l", "-g", "-t", "-o", "-r", "-b", "-d", "-u"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.SessionSecret, "s", config.SessionSecret, "session signing secret")

	sessionTTL := fs.Int("l", int(config.SessionTTL.Minutes()), "session token lifetime (in minutes)")

	fs.StringVar(&config.GitBaseURL, "g", config.GitBaseURL, "git backend API base URL")
	fs.StringVar(&config.GitToken, "t", config.GitToken, "git backend bearer token")
	fs.StringVar(&config.GitOwner, "o", config.GitOwner, "git backend repository owner")
	fs.StringVar(&config.GitRepo, "r", config.GitRepo, "git backend repository name")
	fs.StringVar(&config.GitBranch, "b", config.GitBranch, "git backend branch")
	fs.StringVar(&config.DashboardDir, "d", config.DashboardDir, "dashboards directory")
	fs.StringVar(&config.UsersPath, "u", config.UsersPath, "users document path")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.SessionTTL = time.Duration(*sessionTTL) * time.Minute
}
