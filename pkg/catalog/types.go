// Package catalog describes the handlers installed on a host (which packages
// accept which verbs, schemes and content types) and the permissions granted
// to the caller. Catalogs are loaded from YAML or JSON files and kept in a
// concurrency-safe Store.
package catalog

import (
	"fmt"
	"strings"

	"github.com/morezero/intents/pkg/intent"
)

// Handler is one installed application able to satisfy requests.
type Handler struct {
	Package string        `json:"package" yaml:"package"`
	Label   string        `json:"label,omitempty" yaml:"label,omitempty"`
	Verbs   []intent.Verb `json:"verbs" yaml:"verbs"`
	// Schemes accepted in the request target. A handler without schemes only
	// accepts requests without a target.
	Schemes []string `json:"schemes,omitempty" yaml:"schemes,omitempty"`
	// MimeTypes accepted, wildcards allowed ("image/*", "*/*"). Requests that
	// carry a content type only match handlers listing a compatible pattern.
	MimeTypes []string `json:"mimeTypes,omitempty" yaml:"mimeTypes,omitempty"`
}

// Validate checks that the handler can be stored.
func (h Handler) Validate() error {
	if strings.TrimSpace(h.Package) == "" {
		return intent.NewError(intent.CodeInvalidArgument, "handler package is required")
	}
	if len(h.Verbs) == 0 {
		return intent.NewError(intent.CodeInvalidArgument, fmt.Sprintf("handler %s declares no verbs", h.Package))
	}
	return nil
}

// Normalized returns a copy with trimmed fields, upper-case verbs and
// lower-case schemes and MIME types.
func (h Handler) Normalized() Handler {
	out := Handler{
		Package: strings.TrimSpace(h.Package),
		Label:   strings.TrimSpace(h.Label),
	}
	for _, v := range h.Verbs {
		out.Verbs = append(out.Verbs, intent.Verb(strings.ToUpper(strings.TrimSpace(string(v)))))
	}
	for _, s := range h.Schemes {
		out.Schemes = append(out.Schemes, strings.ToLower(strings.TrimSpace(s)))
	}
	for _, m := range h.MimeTypes {
		out.MimeTypes = append(out.MimeTypes, strings.ToLower(strings.TrimSpace(m)))
	}
	return out
}

// Accepts reports whether the handler lists verb.
func (h Handler) Accepts(verb intent.Verb) bool {
	for _, v := range h.Verbs {
		if v == verb {
			return true
		}
	}
	return false
}

// File is the on-disk catalog format.
type File struct {
	Name            string    `json:"name" yaml:"name"`
	PlatformVersion string    `json:"platformVersion,omitempty" yaml:"platformVersion,omitempty"`
	Handlers        []Handler `json:"handlers" yaml:"handlers"`
	Permissions     []string  `json:"permissions,omitempty" yaml:"permissions,omitempty"`
}
