package probe

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hamed0406/statuswatch/internal/domain"
	"github.com/hamed0406/statuswatch/internal/urlutil"
)

// Representative per-attempt budgets.
const (
	BackgroundTimeout = 5 * time.Second
	DefaultTimeout    = 10 * time.Second
)

const (
	ErrInvalidURL = "invalid URL"
	userAgent     = "statuswatch-probe/1.0"
)

// Prober performs one reachability check. Implementations never fail; every
// failure mode is folded into the returned result.
type Prober interface {
	Probe(ctx context.Context, rawURL string, timeout time.Duration) domain.ProbeResult
}

// Executor checks a URL with a HEAD request and falls back to a single GET
// when the HEAD attempt fails at the transport level.
type Executor struct {
	Client *http.Client
	// DNS classifies the host of a failed probe and appends the class to the
	// error message. Nil disables it.
	DNS func(ctx context.Context, host string) DNSStatus
}

func NewExecutor() *Executor {
	return &Executor{
		Client: &http.Client{
			// Per-attempt deadlines come from the request context.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

// WithDNSDiagnostics enables DNS classification of failed probes.
func (e *Executor) WithDNSDiagnostics() *Executor {
	e.DNS = CheckDNS
	return e
}

func (e *Executor) Probe(ctx context.Context, rawURL string, timeout time.Duration) domain.ProbeResult {
	if !urlutil.IsHTTPURL(rawURL) {
		return domain.ProbeResult{Reachable: false, ErrorMessage: ErrInvalidURL}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	target := cacheBust(rawURL)

	if res, err := e.attempt(ctx, http.MethodHead, target, timeout); err == nil {
		return res
	}
	// HEAD failed before any response; GET gets its own full budget.
	res, err := e.attempt(ctx, http.MethodGet, target, timeout)
	if err == nil {
		return res
	}

	out := domain.ProbeResult{Reachable: false, ErrorMessage: describe(err)}
	if e.DNS != nil {
		if st := e.DNS(ctx, extractHost(rawURL)); st.Class != "" && st.Class != DNSResolves {
			out.ErrorMessage += " dns=" + st.Class
		}
	}
	return out
}

func (e *Executor) attempt(ctx context.Context, method, target string, timeout time.Duration) (domain.ProbeResult, error) {
	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(actx, method, target, nil)
	if err != nil {
		return domain.ProbeResult{}, err
	}
	req.Header.Set("Cache-Control", "no-cache, no-store")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("User-Agent", userAgent)

	client := e.Client
	if client == nil {
		client = http.DefaultClient
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return domain.ProbeResult{}, err
	}
	latency := int(time.Since(start).Milliseconds())
	resp.Body.Close()

	res := domain.ProbeResult{
		Reachable:  resp.StatusCode < 400,
		LatencyMS:  &latency,
		StatusCode: resp.StatusCode,
	}
	if !res.Reachable {
		res.ErrorMessage = resp.Status
	}
	return res, nil
}

// cacheBust appends throwaway query parameters so intermediaries cannot
// answer from cache. Existing query parameters keep their order.
func cacheBust(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	extra := "_cb=" + strconv.FormatInt(time.Now().UnixMilli(), 10) +
		"&_r=" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	if u.RawQuery == "" {
		u.RawQuery = extra
	} else {
		u.RawQuery += "&" + extra
	}
	return u.String()
}

func describe(err error) string {
	var ue *url.Error
	if errors.As(err, &ue) {
		if ue.Timeout() {
			return "timeout"
		}
		return ue.Err.Error()
	}
	return err.Error()
}

func extractHost(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return raw
	}
	return u.Hostname()
}
