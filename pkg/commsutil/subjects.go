package commsutil

import (
	"fmt"
	"strings"
)

// Default COMMS subjects.
const (
	SubjectIntents        = "intents.v1"
	SubjectHandlerChanged = "intents.handlers.changed"
)

// BuildHandlerChangeSubject builds the per-package change event subject.
// Package dots are replaced so the package stays a single subject token.
func BuildHandlerChangeSubject(pkg string) string {
	return fmt.Sprintf("%s.%s", SubjectHandlerChanged, subjectToken(pkg))
}

func subjectToken(s string) string {
	return strings.NewReplacer(".", "_", " ", "_", "*", "_", ">", "_").Replace(s)
}
