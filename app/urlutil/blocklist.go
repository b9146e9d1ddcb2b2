package urlutil

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// defaultBlockedHosts are hosts never worth harvesting links for: a tweet
// linking back to the platform itself carries no external content.
var defaultBlockedHosts = []string{
	"twitter.com",
	"mobile.twitter.com",
}

// Blocklist holds hosts excluded from link selection.
type Blocklist struct {
	hosts map[string]struct{}
}

func NewBlocklist(extra ...string) *Blocklist {
	b := &Blocklist{hosts: make(map[string]struct{})}
	for _, host := range defaultBlockedHosts {
		b.hosts[host] = struct{}{}
	}
	for _, host := range extra {
		host = strings.ToLower(strings.TrimSpace(host))
		if host != "" {
			b.hosts[host] = struct{}{}
		}
	}
	return b
}

// Blocked reports whether the URL's host is on the blocklist.
// Unparseable URLs are treated as blocked.
func (b *Blocklist) Blocked(rawURL string) bool {
	host, err := Host(rawURL)
	if err != nil {
		return true
	}
	_, ok := b.hosts[host]
	return ok
}

type blocklistFile struct {
	BlockedHosts []string `yaml:"blocked_hosts"`
}

// LoadBlocklist builds a blocklist from an optional YAML file. An empty path
// yields the default blocklist.
func LoadBlocklist(path string) (*Blocklist, error) {
	if path == "" {
		return NewBlocklist(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read blocked hosts file: %w", err)
	}

	var file blocklistFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse blocked hosts file: %w", err)
	}

	return NewBlocklist(file.BlockedHosts...), nil
}
