package fetch

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// robotsTimeout bounds the robots.txt probe per host.
const robotsTimeout = 3 * time.Second

// rule is one Allow or Disallow directive.
type rule struct {
	pattern string
	allow   bool
}

// hostRules holds the parsed directives for one host: the section matching
// our user-agent, and the wildcard section it falls back to.
type hostRules struct {
	agent    []rule
	wildcard []rule
	hasAgent bool
}

// Robots checks robots.txt before fetching. Verdicts are cached per host;
// a failed probe means allow-all for that host.
type Robots struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration

	mu    sync.RWMutex
	cache map[string]*hostRules

	logger *slog.Logger
}

// NewRobots creates a Robots checker. The userAgent is matched against
// User-agent sections by case-insensitive substring.
func NewRobots(client *http.Client, userAgent string, timeout time.Duration) *Robots {
	if timeout <= 0 {
		timeout = robotsTimeout
	}
	return &Robots{
		client:    client,
		userAgent: userAgent,
		timeout:   timeout,
		cache:     make(map[string]*hostRules),
		logger:    slog.Default().With("component", "robots"),
	}
}

// Allowed reports whether u may be fetched according to its host's
// robots.txt. Unknown hosts are probed once; failures allow everything.
func (r *Robots) Allowed(ctx context.Context, u *url.URL) bool {
	host := u.Hostname()

	r.mu.RLock()
	rules, cached := r.cache[host]
	r.mu.RUnlock()

	if !cached {
		rules = r.load(ctx, u)
		r.mu.Lock()
		r.cache[host] = rules
		r.mu.Unlock()
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	section := rules.wildcard
	if rules.hasAgent {
		section = rules.agent
	}
	return evaluate(section, path)
}

// load fetches and parses robots.txt for u's host. Any failure yields an
// empty (allow-all) rule set.
func (r *Robots) load(ctx context.Context, u *url.URL) *hostRules {
	empty := &hostRules{}

	robotsURL := u.Scheme + "://" + u.Host + "/robots.txt"
	probeCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return empty
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Debug("robots probe failed, allowing all", "host", u.Hostname(), "error", err)
		return empty
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return empty
	}

	return r.parse(resp.Body)
}

// parse reads robots.txt directives, collecting the section for our
// user-agent and the * section separately.
func (r *Robots) parse(body io.Reader) *hostRules {
	rules := &hostRules{}
	agentLower := strings.ToLower(r.userAgent)

	// Track which sections the current directive block applies to.
	inAgent, inWildcard := false, false
	sawAgentLine := false

	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "user-agent":
			if !sawAgentLine {
				inAgent, inWildcard = false, false
			}
			sawAgentLine = true
			agent := strings.ToLower(value)
			if agent == "*" {
				inWildcard = true
			} else if strings.Contains(agentLower, agent) {
				inAgent = true
				rules.hasAgent = true
			}
		case "allow", "disallow":
			sawAgentLine = false
			if value == "" {
				continue
			}
			directive := rule{pattern: value, allow: key == "allow"}
			if inAgent {
				rules.agent = append(rules.agent, directive)
			}
			if inWildcard {
				rules.wildcard = append(rules.wildcard, directive)
			}
		default:
			sawAgentLine = false
		}
	}
	return rules
}

// evaluate resolves a path against a directive section with
// longest-match-wins; Allow wins on equal-length ties.
func evaluate(section []rule, path string) bool {
	bestLen := -1
	allowed := true
	for _, directive := range section {
		if !patternMatches(directive.pattern, path) {
			continue
		}
		l := len(directive.pattern)
		if l > bestLen || (l == bestLen && directive.allow && !allowed) {
			bestLen = l
			allowed = directive.allow
		}
	}
	return allowed
}

// patternMatches implements robots pattern syntax: prefix matching with *
// globs and an optional terminal $ anchor.
func patternMatches(pattern, path string) bool {
	anchored := strings.HasSuffix(pattern, "$")
	if anchored {
		pattern = pattern[:len(pattern)-1]
	}

	segments := strings.Split(pattern, "*")
	pos := 0
	for i, segment := range segments {
		if segment == "" {
			continue
		}
		if i == 0 {
			if !strings.HasPrefix(path, segment) {
				return false
			}
			pos = len(segment)
			continue
		}
		idx := strings.Index(path[pos:], segment)
		if idx < 0 {
			return false
		}
		pos += idx + len(segment)
	}
	if anchored {
		if len(segments) > 0 && segments[len(segments)-1] == "" {
			// Pattern ends in "*$": anything left matches.
			return true
		}
		return pos == len(path)
	}
	return true
}
