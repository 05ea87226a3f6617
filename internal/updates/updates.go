// Package updates checks GitHub for a newer release of the daemon.
package updates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/muezzin/muezzin/pkg/logger"
)

// DefaultBaseURL is the GitHub REST API root.
const DefaultBaseURL = "https://api.github.com"

const (
	userAgent      = "Muezzin"
	defaultTimeout = 15 * time.Second
	maxBody        = 1 << 20
)

// ErrNoRelease is returned when the repository has no published release.
var ErrNoRelease = errors.New("no published release")

// Checker queries the latest release of a repository.
type Checker struct {
	http    *http.Client
	baseURL string
	repo    string
	log     logger.Logger

	attempts uint
	delay    time.Duration
}

// Option configures a Checker.
type Option func(*Checker)

// WithBaseURL points the checker at another API root.
func WithBaseURL(u string) Option {
	return func(c *Checker) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithRetry sets the attempt count and the initial backoff delay.
func WithRetry(attempts uint, delay time.Duration) Option {
	return func(c *Checker) {
		c.attempts = attempts
		c.delay = delay
	}
}

// WithLogger sets the logger used for retry diagnostics.
func WithLogger(l logger.Logger) Option {
	return func(c *Checker) { c.log = l }
}

// NewChecker returns a checker for repo ("owner/name").
func NewChecker(hc *http.Client, repo string, opts ...Option) *Checker {
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}
	c := &Checker{
		http:     hc,
		baseURL:  DefaultBaseURL,
		repo:     repo,
		log:      logger.NewNopLogger(),
		attempts: 3,
		delay:    time.Second,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type release struct {
	TagName string `json:"tag_name"`
}

// Latest returns the tag name of the latest release. Transport failures
// and server errors are retried.
func (c *Checker) Latest(ctx context.Context) (string, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/releases/latest", c.baseURL, c.repo)
	var tag string

	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("create request: %w", err))
			}
			req.Header.Set("User-Agent", userAgent)
			req.Header.Set("Accept", "application/vnd.github+json")

			resp, err := c.http.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			switch {
			case resp.StatusCode == http.StatusNotFound:
				return retry.Unrecoverable(ErrNoRelease)
			case resp.StatusCode >= 500:
				return fmt.Errorf("HTTP %d", resp.StatusCode)
			case resp.StatusCode != http.StatusOK:
				return retry.Unrecoverable(fmt.Errorf("HTTP %d", resp.StatusCode))
			}

			var r release
			if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(&r); err != nil {
				return retry.Unrecoverable(fmt.Errorf("decode release: %w", err))
			}
			tag = r.TagName
			return nil
		},
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.MaxDelay(30*time.Second),
		retry.MaxJitter(c.delay/2),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			c.log.Warning("update check attempt %d failed: %v", n+1, err)
		}),
	)
	if err != nil {
		return "", fmt.Errorf("check latest release of %s: %w", c.repo, err)
	}
	return tag, nil
}

// IsNewer reports whether latest is a higher dotted version than current.
// A leading "v" is ignored; non-numeric suffixes compare as zero.
func IsNewer(current, latest string) bool {
	if latest == "" {
		return false
	}
	a, b := versionParts(current), versionParts(latest)
	for len(a) < len(b) {
		a = append(a, 0)
	}
	for len(b) < len(a) {
		b = append(b, 0)
	}
	for i := range a {
		if b[i] != a[i] {
			return b[i] > a[i]
		}
	}
	return false
}

func versionParts(v string) []int {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		v = v[:i]
	}
	fields := strings.Split(v, ".")
	parts := make([]int, len(fields))
	for i, f := range fields {
		parts[i], _ = strconv.Atoi(f)
	}
	return parts
}
