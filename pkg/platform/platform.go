// Package platform derives the boolean capability flags builders branch on
// from a host platform version string.
package platform

import (
	"fmt"

	masterminds "github.com/Masterminds/semver/v3"
)

const logPrefix = "platform:platform"

// Version thresholds. The -0 suffix lets pre-release builds of the threshold
// version qualify.
const (
	sendToDefaultPackageConstraint = ">= 4.4.0-0"
	contactsV2Constraint           = ">= 2.0.0-0"
)

// Capabilities are the host features that change which request a builder
// produces.
type Capabilities struct {
	Version string `json:"version,omitempty"`
	// SendToDefaultPackage: SMS is addressed with SEND_TO to the default
	// messaging package.
	SendToDefaultPackage bool `json:"sendToDefaultPackage"`
	// ContactsV2: the modern contacts registry is available.
	ContactsV2        bool   `json:"contactsV2"`
	DefaultSMSPackage string `json:"defaultSmsPackage,omitempty"`
}

// Latest is used when no version is configured.
func Latest(defaultSMSPackage string) Capabilities {
	return Capabilities{SendToDefaultPackage: true, ContactsV2: true, DefaultSMSPackage: defaultSMSPackage}
}

// FromVersion evaluates the version thresholds for version. An empty version
// yields Latest.
func FromVersion(version, defaultSMSPackage string) (Capabilities, error) {
	if version == "" {
		return Latest(defaultSMSPackage), nil
	}

	sv, err := masterminds.NewVersion(version)
	if err != nil {
		return Capabilities{}, fmt.Errorf("%s - invalid platform version %q: %w", logPrefix, version, err)
	}

	sendTo, err := satisfies(sv, sendToDefaultPackageConstraint)
	if err != nil {
		return Capabilities{}, err
	}
	contacts, err := satisfies(sv, contactsV2Constraint)
	if err != nil {
		return Capabilities{}, err
	}

	caps := Capabilities{
		Version:              sv.String(),
		SendToDefaultPackage: sendTo,
		ContactsV2:           contacts,
	}
	if sendTo {
		caps.DefaultSMSPackage = defaultSMSPackage
	}
	return caps, nil
}

func satisfies(v *masterminds.Version, constraint string) (bool, error) {
	c, err := masterminds.NewConstraint(constraint)
	if err != nil {
		return false, fmt.Errorf("%s - invalid constraint %q: %w", logPrefix, constraint, err)
	}
	return c.Check(v), nil
}
