package intent

import "strings"

// Contact registry locators.
const (
	ContactsLocator       = "content://com.android.contacts/contacts"
	LegacyContactsLocator = "content://contacts/people"
)

// Contact scopes restricting a pick to contacts with a phone number.
const (
	ScopePhone       = "vnd.android.cursor.dir/phone_v2"
	LegacyScopePhone = "vnd.android.cursor.dir/phone"
)

// Dial opens the dialer with number pre-filled (spaces removed). A blank number
// opens an empty dial screen. Unlike Call, the user still confirms the call.
func Dial(number string) Request {
	return Request{Verb: VerbDial, Target: telLocator(number)}
}

// Call immediately calls number. The request carries PermissionCallPhone, which a
// probe must also confirm before the request is usable.
func Call(number string) (Request, error) {
	if isBlank(number) {
		return Request{}, invalidArgument("call requires a phone number")
	}
	return Request{
		Verb:       VerbCall,
		Target:     telLocator(number),
		Permission: PermissionCallPhone,
	}, nil
}

func telLocator(number string) string {
	if isBlank(number) {
		return "tel:"
	}
	return "tel:" + strings.ReplaceAll(number, " ", "")
}

// SMSParams holds parameters for SMS.
type SMSParams struct {
	Body    string
	Numbers []string
	// SendToDefaultPackage is set when the host resolves SEND_TO to a default
	// messaging package. The request then uses the smsto: scheme and is
	// constrained to DefaultPackage.
	SendToDefaultPackage bool
	DefaultPackage       string
}

// SMS opens the messaging app composing body to the given numbers. With no
// numbers it opens a bare compose screen.
func SMS(params SMSParams) Request {
	numbers := EncodeText(JoinList(params.Numbers, ","))

	var req Request
	if params.SendToDefaultPackage {
		req = Request{Verb: VerbSendTo, Target: "smsto:" + numbers}
		if !isBlank(params.DefaultPackage) {
			req.Package = params.DefaultPackage
		}
	} else {
		req = Request{Verb: VerbView, Target: "sms:" + numbers}
	}

	if params.Body != "" {
		req.Payload = map[string]any{PayloadSMSBody: params.Body}
	}
	return req
}

// PickContact opens the contact picker. modernRegistry selects the current
// contacts registry over the legacy one. A non-blank scope restricts the pick
// to contacts with that content type.
func PickContact(scope string, modernRegistry bool) Request {
	req := Request{Verb: VerbPick, Target: LegacyContactsLocator}
	if modernRegistry {
		req.Target = ContactsLocator
	}
	if !isBlank(scope) {
		req.ContentType = scope
	}
	return req
}

// PickContactWithPhone opens the contact picker restricted to contacts having a
// phone number.
func PickContactWithPhone(modernRegistry bool) Request {
	if modernRegistry {
		return PickContact(ScopePhone, true)
	}
	return PickContact(LegacyScopePhone, false)
}
