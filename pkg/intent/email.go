package intent

// EmailParams holds parameters for Email. Empty fields are left out of the payload.
type EmailParams struct {
	Addresses []string
	Subject   string
	Body      string
	// Attachment is the locator of a file the mail application is allowed to read.
	Attachment string
}

// Email composes an email.
func Email(params EmailParams) Request {
	payload := map[string]any{}

	var addresses []string
	for _, a := range params.Addresses {
		if !isBlank(a) {
			addresses = append(addresses, a)
		}
	}
	if len(addresses) > 0 {
		payload[PayloadEmail] = addresses
	}
	if params.Subject != "" {
		payload[PayloadSubject] = params.Subject
	}
	if params.Body != "" {
		payload[PayloadText] = params.Body
	}
	if params.Attachment != "" {
		payload[PayloadStream] = params.Attachment
	}

	req := Request{Verb: VerbSend, ContentType: ContentTypeEmail}
	if len(payload) > 0 {
		req.Payload = payload
	}
	return req
}

// ShareText shares a message (and a subject some handlers may discard) through
// a chooser titled chooserTitle.
func ShareText(subject, message, chooserTitle string) Request {
	payload := map[string]any{}
	if subject != "" {
		payload[PayloadSubject] = subject
	}
	if message != "" {
		payload[PayloadText] = message
	}

	req := Request{
		Verb:        VerbSend,
		ContentType: ContentTypeText,
		Chooser:     &Chooser{Title: chooserTitle},
	}
	if len(payload) > 0 {
		req.Payload = payload
	}
	return req
}
