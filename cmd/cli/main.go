package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hamed0406/statuswatch/internal/bus"
	"github.com/hamed0406/statuswatch/internal/domain"
	"github.com/hamed0406/statuswatch/internal/scheduler"
	"github.com/hamed0406/statuswatch/internal/urlutil"
)

const usage = `usage: statuswatch <command> [args]

commands:
  add [-name NAME] [URL]   register a target (prompts when URL is omitted)
  list                     show every target and its status
  ping ID                  run a manual ping for one target
  watch                    stream status transitions from NATS
`

type client struct {
	base string
	key  string
	http *http.Client
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	c := &client{
		base: strings.TrimRight(envOr("API_BASE", "http://localhost:8080"), "/"),
		key:  os.Getenv("API_KEY"),
		http: &http.Client{Timeout: 30 * time.Second},
	}
	out := newPrinter(os.Stdout)

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "add":
		err = runAdd(c, out, args)
	case "list":
		err = runList(c, out)
	case "ping":
		err = runPing(c, out, args)
	case "watch":
		err = runWatch(out)
	case "-h", "--help", "help":
		fmt.Fprint(os.Stdout, usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func runAdd(c *client, out *printer, args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	name := fs.String("name", "", "display name")
	_ = fs.Parse(args)

	raw := fs.Arg(0)
	if raw == "" {
		reader := bufio.NewReader(os.Stdin)
		fmt.Print("Enter a site URL to monitor (e.g., https://example.com): ")
		line, _ := reader.ReadString('\n')
		raw = line
	}
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	if !urlutil.IsHTTPURL(raw) {
		return fmt.Errorf("invalid URL %q", raw)
	}

	var resp struct {
		Target  domain.Target     `json:"target"`
		Summary scheduler.Outcome `json:"summary"`
	}
	body := map[string]string{"name": *name, "url": raw}
	if err := c.do(http.MethodPost, "/api/targets", body, &resp); err != nil {
		return err
	}
	out.outcome(resp.Summary)
	fmt.Fprintf(out.w, "added %s (id %s)\n", resp.Target.DisplayName(), resp.Target.ID)
	return nil
}

func runList(c *client, out *printer) error {
	var ts []domain.Target
	if err := c.do(http.MethodGet, "/api/targets", nil, &ts); err != nil {
		return err
	}
	if len(ts) == 0 {
		fmt.Fprintln(out.w, "no targets registered")
		return nil
	}
	for _, t := range ts {
		out.target(t, time.Now())
	}
	return nil
}

func runPing(c *client, out *printer, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("ping needs exactly one target id")
	}
	req := scheduler.ManualPingRequest{TargetID: domain.TargetID(args[0]), IsManual: true}
	var o scheduler.Outcome
	if err := c.do(http.MethodPost, "/api/ping", req, &o); err != nil {
		return err
	}
	out.outcome(o)
	return nil
}

func runWatch(out *printer) error {
	url := os.Getenv("NATS_URL")
	if url == "" {
		return fmt.Errorf("NATS_URL is not set")
	}
	sub, err := bus.NewSubscriber(url)
	if err != nil {
		return err
	}
	defer sub.Close()

	if _, err := sub.Subscribe(out.transition); err != nil {
		return err
	}
	fmt.Fprintf(out.w, "watching %s on %s (ctrl-c to stop)\n", bus.SubjectTransitions, url)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	<-done
	return nil
}

func (c *client) do(method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.key != "" {
		req.Header.Set("X-API-Key", c.key)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("contacting API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&e)
		if e.Error != "" {
			return fmt.Errorf("API returned %s: %s", resp.Status, e.Error)
		}
		return fmt.Errorf("API returned %s", resp.Status)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func envOr(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}
