// Package intent builds platform action requests (dial, map, share, market, ...)
// as canonical, immutable Request descriptors.
package intent

// Verb is the action kind of a Request.
type Verb string

// Supported verbs.
const (
	VerbView         Verb = "VIEW"
	VerbDial         Verb = "DIAL"
	VerbCall         Verb = "CALL"
	VerbSend         Verb = "SEND"
	VerbSendTo       Verb = "SEND_TO"
	VerbPick         Verb = "PICK"
	VerbGetContent   Verb = "GET_CONTENT"
	VerbCaptureImage Verb = "CAPTURE_IMAGE"
)

// Flag is an execution hint forwarded unchanged to the dispatch boundary.
type Flag string

// Dispatch flags.
const (
	FlagNoHistory          Flag = "NO_HISTORY"
	FlagClearWhenTaskReset Flag = "CLEAR_WHEN_TASK_RESET"
)

// Payload keys.
const (
	PayloadText    = "text"
	PayloadSubject = "subject"
	PayloadEmail   = "email"
	PayloadStream  = "stream"
	PayloadSMSBody = "sms_body"
	PayloadOutput  = "output"
)

// Content types.
const (
	ContentTypeAudio = "audio/*"
	ContentTypeVideo = "video/*"
	ContentTypeImage = "image/*"
	ContentTypeText  = "text/*"
	ContentTypeFile  = "file/*"
	ContentTypeEmail = "message/rfc822"
)

// PermissionCallPhone must be granted before a CALL request can be dispatched.
const PermissionCallPhone = "CALL_PHONE"

// Chooser marks a request that should be presented through a handler chooser.
type Chooser struct {
	Title string `json:"title"`
}

// Request is the descriptor every builder produces.
type Request struct {
	Verb        Verb           `json:"verb"`
	Target      string         `json:"target,omitempty"`
	ContentType string         `json:"contentType,omitempty"`
	Payload     map[string]any `json:"payload,omitempty"`
	Flags       []Flag         `json:"flags,omitempty"`
	// Package restricts dispatch to a single handler package (e.g. the default SMS app).
	Package string `json:"package,omitempty"`
	// Permission names a capability that must be granted for the request to be usable.
	Permission string   `json:"permission,omitempty"`
	Chooser    *Chooser `json:"chooser,omitempty"`
}

// Scheme returns the scheme part of the target locator, or "" when the target is empty
// or has no scheme.
func (r Request) Scheme() string {
	for i := 0; i < len(r.Target); i++ {
		c := r.Target[i]
		switch {
		case c == ':':
			if i == 0 {
				return ""
			}
			return r.Target[:i]
		case isSchemeChar(c, i == 0):
			continue
		default:
			return ""
		}
	}
	return ""
}

// HasFlag reports whether the request carries the given dispatch flag.
func (r Request) HasFlag(f Flag) bool {
	for _, existing := range r.Flags {
		if existing == f {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the request.
func (r Request) Clone() Request {
	out := r
	if r.Payload != nil {
		out.Payload = make(map[string]any, len(r.Payload))
		for k, v := range r.Payload {
			if list, ok := v.([]string); ok {
				v = append([]string(nil), list...)
			}
			out.Payload[k] = v
		}
	}
	if r.Flags != nil {
		out.Flags = append([]Flag(nil), r.Flags...)
	}
	if r.Chooser != nil {
		c := *r.Chooser
		out.Chooser = &c
	}
	return out
}

// WithFlags returns a copy of the request with the given flags added (duplicates skipped).
func (r Request) WithFlags(flags ...Flag) Request {
	out := r.Clone()
	for _, f := range flags {
		if !out.HasFlag(f) {
			out.Flags = append(out.Flags, f)
		}
	}
	return out
}

// Unwrapped returns the request without its chooser marker, i.e. the request a
// handler is actually asked to satisfy.
func (r Request) Unwrapped() Request {
	out := r.Clone()
	out.Chooser = nil
	return out
}

// PayloadString returns a string payload value, or "" if absent.
func (r Request) PayloadString(key string) string {
	s, _ := r.Payload[key].(string)
	return s
}

func isSchemeChar(c byte, first bool) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
		return true
	case first:
		return false
	case '0' <= c && c <= '9', c == '+', c == '-', c == '.':
		return true
	}
	return false
}
