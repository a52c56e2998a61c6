// cmd/preflight/main.go
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/hamed0406/statuswatch/internal/urlutil"
)

func main() {
	_ = godotenv.Load()

	failed := false
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		failed = true
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	env := func(k string) string { return strings.TrimSpace(os.Getenv(k)) }
	admin := env("ADMIN_API_KEYS")
	pub := env("PUBLIC_API_KEYS")
	apiAddr := env("ADDR")
	db := env("DATABASE_URL")
	sqlitePath := env("SQLITE_PATH")
	allowed := env("ALLOWED_ORIGINS")
	cronSpec := env("CRON_SPEC")
	cronSecret := env("CRON_SECRET")
	dashboard := env("DASHBOARD_BASE_URL")
	natsURL := env("NATS_URL")

	if admin == "" {
		fail("ADMIN_API_KEYS is empty (admin routes will 401).")
	}
	if pub == "" {
		warn("PUBLIC_API_KEYS is empty; only admin keys can read.")
	}

	// Lists are comma-separated with no spaces.
	for name, v := range map[string]string{"ADMIN_API_KEYS": admin, "PUBLIC_API_KEYS": pub} {
		if strings.Contains(v, " ") {
			warn(name + " contains spaces; use comma-separated with no spaces, e.g. key1,key2")
		}
	}

	if apiAddr == "" {
		warn("ADDR is empty; the API listens on 127.0.0.1:8080.")
	} else {
		ok("ADDR=" + apiAddr)
	}

	switch {
	case db != "":
		ok("DATABASE_URL present (postgres)")
		if sqlitePath != "" {
			warn("SQLITE_PATH is ignored while DATABASE_URL is set.")
		}
	case sqlitePath != "":
		ok("SQLITE_PATH=" + sqlitePath)
	default:
		warn("no DATABASE_URL or SQLITE_PATH; the API keeps everything in memory.")
	}

	if allowed == "" {
		warn("ALLOWED_ORIGINS empty; browsers will be blocked by CORS for cross-origin requests.")
	} else {
		ok("ALLOWED_ORIGINS=" + allowed)
	}

	if cronSpec != "" {
		parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
		if _, err := parser.Parse(cronSpec); err != nil {
			fail(fmt.Sprintf("CRON_SPEC %q does not parse: %v", cronSpec, err))
		} else {
			ok("CRON_SPEC=" + cronSpec)
		}
	}
	if cronSecret == "" {
		warn("CRON_SECRET empty; /api/cron rejects every request.")
	} else {
		ok("CRON_SECRET present")
	}

	if dashboard != "" && !urlutil.IsAbsolute(dashboard) {
		fail("DASHBOARD_BASE_URL must be an absolute URL; notification buttons will be dropped.")
	}
	if natsURL == "" {
		warn("NATS_URL empty; status transitions are not published.")
	} else {
		ok("NATS_URL=" + natsURL)
	}

	if failed {
		os.Exit(1)
	}
	ok("preflight passed")
}
