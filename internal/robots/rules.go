// Package robots implements the robots exclusion policy gate consulted before every fetch.
package robots

import (
	"fmt"
	"net/url"

	"github.com/temoto/robotstxt"
)

// Rules answers whether a user agent may fetch a URL.
type Rules interface {
	Allowed(rawURL, userAgent string) bool
}

// NoRestrictions allows every URL. It is installed whenever robots.txt could not be loaded.
type NoRestrictions struct{}

// Allowed implements Rules.
func (NoRestrictions) Allowed(string, string) bool { return true }

// RuleSet is a successfully parsed robots.txt.
type RuleSet struct {
	data *robotstxt.RobotsData
}

// Parse builds a RuleSet from a robots.txt body.
func Parse(body []byte) (*RuleSet, error) {
	data, err := robotstxt.FromBytes(body)
	if err != nil {
		return nil, fmt.Errorf("parse robots: %w", err)
	}
	return &RuleSet{data: data}, nil
}

// Allowed implements Rules. URLs that cannot be parsed are allowed; the frontier never
// dispatches them anyway.
func (r *RuleSet) Allowed(rawURL, userAgent string) bool {
	if r == nil || r.data == nil {
		return true
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return true
	}
	group := r.data.FindGroup(userAgent)
	if group == nil {
		return true
	}
	return group.Test(parsed.RequestURI())
}

// Gate binds Rules to the crawler's user agent.
type Gate struct {
	rules     Rules
	userAgent string
}

// NewGate builds a gate. Nil rules allow everything.
func NewGate(rules Rules, userAgent string) *Gate {
	if rules == nil {
		rules = NoRestrictions{}
	}
	return &Gate{rules: rules, userAgent: userAgent}
}

// IsAllowed reports whether the crawler may fetch rawURL.
func (g *Gate) IsAllowed(rawURL string) bool {
	if g == nil {
		return true
	}
	return g.rules.Allowed(rawURL, g.userAgent)
}
