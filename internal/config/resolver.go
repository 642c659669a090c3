package config

import "os"

// Resolver answers macro configuration lookups by cascading document
// attributes, the loaded config file and the environment. Keys use the
// attribute spelling ("jira-base-url", "confluence-base-url", "space-id").
type Resolver struct {
	Attributes map[string]string
	Config     *Config
}

// NewResolver creates a Resolver over a parsed document's attributes
// and the active configuration. Either may be nil.
func NewResolver(attributes map[string]string, cfg *Config) *Resolver {
	return &Resolver{Attributes: attributes, Config: cfg}
}

// Resolve returns the value for a key, or "" when nothing defines it.
func (r *Resolver) Resolve(key string) string {
	if v, ok := r.Attributes[key]; ok && v != "" {
		return v
	}
	if r.Config != nil {
		switch key {
		case "jira-base-url":
			if v := r.Config.JiraBaseURL(); v != "" {
				return v
			}
		case "confluence-base-url":
			if r.Config.URL != "" {
				return r.Config.URL
			}
		case "space-id":
			if r.Config.SpaceID != "" {
				return r.Config.SpaceID
			}
		}
	}
	if v := os.Getenv(envName(key)); v != "" {
		return v
	}
	return ""
}

// envName maps an attribute key to its environment variable spelling:
// "jira-base-url" becomes "JIRA_BASE_URL".
func envName(key string) string {
	out := make([]byte, len(key))
	for i := 0; i < len(key); i++ {
		c := key[i]
		switch {
		case c == '-':
			out[i] = '_'
		case 'a' <= c && c <= 'z':
			out[i] = c - 'a' + 'A'
		default:
			out[i] = c
		}
	}
	return string(out)
}
