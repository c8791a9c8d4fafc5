package dispatcher

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/morezero/intents/pkg/commsutil"
	"github.com/morezero/intents/pkg/intent"
	"github.com/morezero/intents/pkg/platform"
)

// Builder produces the ordered candidate list for one builder invocation.
type Builder func(caps platform.Capabilities, args json.RawMessage) ([]intent.Request, error)

type numberArgs struct {
	Number string `json:"number"`
}

type smsArgs struct {
	Body    string   `json:"body"`
	Numbers []string `json:"numbers"`
}

type addressArgs struct {
	Address string `json:"address"`
	Title   string `json:"title"`
}

type locationArgs struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name"`
}

type streetViewArgs struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Yaw       *float64 `json:"yaw"`
	Pitch     *float64 `json:"pitch"`
	Zoom      *float64 `json:"zoom"`
	MapZoom   *int     `json:"mapZoom"`
}

type emailArgs struct {
	Addresses  []string `json:"addresses"`
	Subject    string   `json:"subject"`
	Body       string   `json:"body"`
	Attachment string   `json:"attachment"`
}

type shareArgs struct {
	Subject      string `json:"subject"`
	Message      string `json:"message"`
	ChooserTitle string `json:"chooserTitle"`
}

type packageArgs struct {
	Package string `json:"package"`
}

type mediaArgs struct {
	Locator     string `json:"locator"`
	File        string `json:"file"`
	ContentType string `json:"contentType"`
}

type videoArgs struct {
	VideoID string `json:"videoId"`
}

type urlArgs struct {
	URL string `json:"url"`
}

type pictureArgs struct {
	OutputPath string `json:"outputPath"`
}

type contactArgs struct {
	Scope string `json:"scope"`
}

var builders = map[string]Builder{
	"dial": func(_ platform.Capabilities, raw json.RawMessage) ([]intent.Request, error) {
		var a numberArgs
		if err := decodeArgs(raw, &a); err != nil {
			return nil, err
		}
		return one(intent.Dial(a.Number), nil)
	},
	"call": func(_ platform.Capabilities, raw json.RawMessage) ([]intent.Request, error) {
		var a numberArgs
		if err := decodeArgs(raw, &a); err != nil {
			return nil, err
		}
		return one(intent.Call(a.Number))
	},
	"sms": func(caps platform.Capabilities, raw json.RawMessage) ([]intent.Request, error) {
		var a smsArgs
		if err := decodeArgs(raw, &a); err != nil {
			return nil, err
		}
		return one(intent.SMS(intent.SMSParams{
			Body:                 a.Body,
			Numbers:              a.Numbers,
			SendToDefaultPackage: caps.SendToDefaultPackage,
			DefaultPackage:       caps.DefaultSMSPackage,
		}), nil)
	},
	"map": func(_ platform.Capabilities, raw json.RawMessage) ([]intent.Request, error) {
		var a addressArgs
		if err := decodeArgs(raw, &a); err != nil {
			return nil, err
		}
		return one(intent.MapAddress(a.Address, a.Title), nil)
	},
	"mapLocation": func(_ platform.Capabilities, raw json.RawMessage) ([]intent.Request, error) {
		var a locationArgs
		if err := decodeArgs(raw, &a); err != nil {
			return nil, err
		}
		return one(intent.MapLocation(a.Latitude, a.Longitude, a.Name))
	},
	"navigate": func(_ platform.Capabilities, raw json.RawMessage) ([]intent.Request, error) {
		var a addressArgs
		if err := decodeArgs(raw, &a); err != nil {
			return nil, err
		}
		return one(intent.NavigateAddress(a.Address), nil)
	},
	"navigateLocation": func(_ platform.Capabilities, raw json.RawMessage) ([]intent.Request, error) {
		var a locationArgs
		if err := decodeArgs(raw, &a); err != nil {
			return nil, err
		}
		return one(intent.NavigateLocation(a.Latitude, a.Longitude))
	},
	"streetView": func(_ platform.Capabilities, raw json.RawMessage) ([]intent.Request, error) {
		var a streetViewArgs
		if err := decodeArgs(raw, &a); err != nil {
			return nil, err
		}
		return one(intent.StreetView(intent.StreetViewParams{
			Latitude:  a.Latitude,
			Longitude: a.Longitude,
			Yaw:       a.Yaw,
			Pitch:     a.Pitch,
			Zoom:      a.Zoom,
			MapZoom:   a.MapZoom,
		}))
	},
	"email": func(_ platform.Capabilities, raw json.RawMessage) ([]intent.Request, error) {
		var a emailArgs
		if err := decodeArgs(raw, &a); err != nil {
			return nil, err
		}
		return one(intent.Email(intent.EmailParams{
			Addresses:  a.Addresses,
			Subject:    a.Subject,
			Body:       a.Body,
			Attachment: a.Attachment,
		}), nil)
	},
	"shareText": func(_ platform.Capabilities, raw json.RawMessage) ([]intent.Request, error) {
		var a shareArgs
		if err := decodeArgs(raw, &a); err != nil {
			return nil, err
		}
		return one(intent.ShareText(a.Subject, a.Message, a.ChooserTitle), nil)
	},
	"market":      storeBuilder(intent.MarketCandidates),
	"googlePlay":  storeBuilder(intent.GooglePlayCandidates),
	"amazonStore": storeBuilder(intent.AmazonStoreCandidates),
	"playMedia": func(_ platform.Capabilities, raw json.RawMessage) ([]intent.Request, error) {
		var a mediaArgs
		if err := decodeArgs(raw, &a); err != nil {
			return nil, err
		}
		locator := a.Locator
		if a.File != "" {
			var err error
			if locator, err = intent.FileLocator(a.File); err != nil {
				return nil, err
			}
		}
		return one(intent.PlayMedia(locator, a.ContentType))
	},
	"youtube": func(_ platform.Capabilities, raw json.RawMessage) ([]intent.Request, error) {
		var a videoArgs
		if err := decodeArgs(raw, &a); err != nil {
			return nil, err
		}
		return intent.YouTubeCandidates(a.VideoID)
	},
	"openBrowser": func(_ platform.Capabilities, raw json.RawMessage) ([]intent.Request, error) {
		var a urlArgs
		if err := decodeArgs(raw, &a); err != nil {
			return nil, err
		}
		return one(intent.OpenBrowser(a.URL))
	},
	"takePicture": func(_ platform.Capabilities, raw json.RawMessage) ([]intent.Request, error) {
		var a pictureArgs
		if err := decodeArgs(raw, &a); err != nil {
			return nil, err
		}
		return one(intent.TakePicture(a.OutputPath))
	},
	"selectPicture": func(platform.Capabilities, json.RawMessage) ([]intent.Request, error) {
		return one(intent.SelectPicture(), nil)
	},
	"pickFile": func(platform.Capabilities, json.RawMessage) ([]intent.Request, error) {
		return one(intent.PickFile(), nil)
	},
	"pickContact": func(caps platform.Capabilities, raw json.RawMessage) ([]intent.Request, error) {
		var a contactArgs
		if err := decodeArgs(raw, &a); err != nil {
			return nil, err
		}
		return one(intent.PickContact(a.Scope, caps.ContactsV2), nil)
	},
	"pickContactWithPhone": func(caps platform.Capabilities, _ json.RawMessage) ([]intent.Request, error) {
		return one(intent.PickContactWithPhone(caps.ContactsV2), nil)
	},
}

// Build runs the named builder with caps and JSON args.
func Build(caps platform.Capabilities, name string, args json.RawMessage) ([]intent.Request, error) {
	b, ok := builders[name]
	if !ok {
		return nil, &intent.Error{
			Code:    intent.CodeInvalidArgument,
			Message: fmt.Sprintf("unknown builder %q", name),
			Details: map[string]interface{}{"builders": BuilderNames()},
		}
	}
	return b(caps, args)
}

// BuilderNames lists the registered builders in sorted order.
func BuilderNames() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func storeBuilder(candidates func(string) ([]intent.Request, error)) Builder {
	return func(_ platform.Capabilities, raw json.RawMessage) ([]intent.Request, error) {
		var a packageArgs
		if err := decodeArgs(raw, &a); err != nil {
			return nil, err
		}
		return candidates(a.Package)
	}
}

func one(req intent.Request, err error) ([]intent.Request, error) {
	if err != nil {
		return nil, err
	}
	return []intent.Request{req}, nil
}

// decodeArgs leaves out untouched for missing or null args.
func decodeArgs(raw json.RawMessage, out interface{}) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if err := commsutil.DecodePayload(trimmed, out); err != nil {
		return &intent.Error{Code: intent.CodeInvalidArgument, Message: fmt.Sprintf("invalid builder args: %v", err)}
	}
	return nil
}
