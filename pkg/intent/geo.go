package intent

import "strconv"

// MapAddress shows address on a map, with title as the marker label when non-blank.
func MapAddress(address, title string) Request {
	target := "geo:0,0?q=" + EncodeText(address)
	if !isBlank(title) {
		target += EncodeText(" (" + title + ")")
	}
	return Request{Verb: VerbView, Target: target}
}

// MapLocation shows the given location on a map. When name is non-blank a
// labelled marker query is appended.
func MapLocation(latitude, longitude float64, name string) (Request, error) {
	if err := checkCoordinates(latitude, longitude); err != nil {
		return Request{}, err
	}
	loc := FormatLocation(latitude, longitude)
	target := "geo:" + loc
	if !isBlank(name) {
		target += "?q=" + loc + "(" + EncodeText(name) + ")"
	}
	return Request{Verb: VerbView, Target: target}, nil
}

// NavigateAddress starts turn-by-turn navigation to address.
func NavigateAddress(address string) Request {
	return Request{Verb: VerbView, Target: "google.navigation:q=" + EncodeText(address)}
}

// NavigateLocation starts turn-by-turn navigation to the given location.
func NavigateLocation(latitude, longitude float64) (Request, error) {
	if err := checkCoordinates(latitude, longitude); err != nil {
		return Request{}, err
	}
	return Request{Verb: VerbView, Target: "google.navigation:q=" + FormatLocation(latitude, longitude)}, nil
}

// StreetViewParams holds parameters for StreetView. Nil camera fields are left
// out; a non-nil zero renders as "0".
type StreetViewParams struct {
	Latitude  float64
	Longitude float64
	// Yaw is the panorama heading in degrees clockwise from north.
	Yaw *float64
	// Pitch is the vertical angle in degrees, from -90 (up) to 90 (down).
	Pitch *float64
	// Zoom is the panorama zoom, 1.0 being normal.
	Zoom *float64
	// MapZoom is the zoom of the map shown alongside the panorama.
	MapZoom *int
}

// StreetView opens the street-view panorama at the given location.
//
// The cbp segment is appended only if one of yaw, pitch or zoom is set; it
// always keeps its five slots (1,yaw,,pitch,zoom), unset fields rendering as
// empty slots. The mz segment is appended independently.
func StreetView(params StreetViewParams) (Request, error) {
	if err := checkCoordinates(params.Latitude, params.Longitude); err != nil {
		return Request{}, err
	}

	target := "google.streetview:cbll=" + FormatLocation(params.Latitude, params.Longitude)
	if params.Yaw != nil || params.Pitch != nil || params.Zoom != nil {
		target += "&cbp=1," + optionalCoordinate(params.Yaw) + ",," +
			optionalCoordinate(params.Pitch) + "," + optionalCoordinate(params.Zoom)
	}
	if params.MapZoom != nil {
		target += "&mz=" + strconv.Itoa(*params.MapZoom)
	}
	return Request{Verb: VerbView, Target: target}, nil
}

func optionalCoordinate(v *float64) string {
	if v == nil {
		return ""
	}
	return FormatCoordinate(*v)
}
