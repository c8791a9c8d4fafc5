package db

import (
	"time"

	"github.com/morezero/intents/pkg/catalog"
	"github.com/morezero/intents/pkg/intent"
)

// HandlerRow represents a row in the handlers table.
type HandlerRow struct {
	ID        string    `json:"id"`
	Package   string    `json:"package"`
	Label     *string   `json:"label,omitempty"`
	Verbs     []string  `json:"verbs"`
	Schemes   []string  `json:"schemes"`
	MimeTypes []string  `json:"mime_types"`
	Revision  int       `json:"revision"`
	Created   time.Time `json:"created"`
	Modified  time.Time `json:"modified"`
}

// Handler converts the row to a catalog handler.
func (r HandlerRow) Handler() catalog.Handler {
	h := catalog.Handler{Package: r.Package}
	if r.Label != nil {
		h.Label = *r.Label
	}
	for _, v := range r.Verbs {
		h.Verbs = append(h.Verbs, intent.Verb(v))
	}
	if len(r.Schemes) > 0 {
		h.Schemes = append([]string(nil), r.Schemes...)
	}
	if len(r.MimeTypes) > 0 {
		h.MimeTypes = append([]string(nil), r.MimeTypes...)
	}
	return h
}

func verbStrings(verbs []intent.Verb) []string {
	out := make([]string, len(verbs))
	for i, v := range verbs {
		out[i] = string(v)
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
