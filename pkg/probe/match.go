// Package probe answers "can any installed handler satisfy this request?" by
// matching requests against a handler catalog.
package probe

import (
	"strings"

	"github.com/elnormous/contenttype"

	"github.com/morezero/intents/pkg/catalog"
	"github.com/morezero/intents/pkg/intent"
)

// Matches reports whether h can satisfy req. req is matched as given; callers
// unwrap chooser requests first.
//
// The verb must be declared by the handler. A request target must use one of
// the handler schemes. A request content type must be compatible with one of
// the handler MIME patterns, with wildcards honoured on either side. A package
// constraint must name the handler.
func Matches(h catalog.Handler, req intent.Request) bool {
	if !h.Accepts(req.Verb) {
		return false
	}
	if req.Package != "" && req.Package != h.Package {
		return false
	}
	if req.Target != "" && !matchesScheme(h.Schemes, req.Scheme()) {
		return false
	}
	if req.ContentType != "" && !matchesAnyMediaType(h.MimeTypes, req.ContentType) {
		return false
	}
	return true
}

func matchesScheme(schemes []string, scheme string) bool {
	if scheme == "" {
		return false
	}
	for _, s := range schemes {
		if strings.EqualFold(s, scheme) {
			return true
		}
	}
	return false
}

func matchesAnyMediaType(patterns []string, contentType string) bool {
	want, err := contenttype.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	for _, p := range patterns {
		have, err := contenttype.ParseMediaType(p)
		if err != nil {
			continue
		}
		if MediaTypesCompatible(have, want) {
			return true
		}
	}
	return false
}

// MediaTypesCompatible reports whether a and b overlap, treating "*" as a
// wildcard in either type or subtype. Parameters are ignored.
func MediaTypesCompatible(a, b contenttype.MediaType) bool {
	return wildcardEqual(a.Type, b.Type) && wildcardEqual(a.Subtype, b.Subtype)
}

func wildcardEqual(a, b string) bool {
	return a == "*" || b == "*" || strings.EqualFold(a, b)
}
