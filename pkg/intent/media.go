package intent

import (
	"path"
	"strings"

	"github.com/elnormous/contenttype"
)

// mediaTypesByExtension maps file extensions to the wildcard type used to open them.
var mediaTypesByExtension = map[string]string{
	".mp3": ContentTypeAudio, ".ogg": ContentTypeAudio, ".oga": ContentTypeAudio,
	".wav": ContentTypeAudio, ".flac": ContentTypeAudio, ".aac": ContentTypeAudio,
	".m4a": ContentTypeAudio, ".opus": ContentTypeAudio, ".mid": ContentTypeAudio,

	".mp4": ContentTypeVideo, ".m4v": ContentTypeVideo, ".webm": ContentTypeVideo,
	".mkv": ContentTypeVideo, ".3gp": ContentTypeVideo, ".avi": ContentTypeVideo,
	".mov": ContentTypeVideo, ".mpeg": ContentTypeVideo, ".mpg": ContentTypeVideo,

	".jpg": ContentTypeImage, ".jpeg": ContentTypeImage, ".png": ContentTypeImage,
	".gif": ContentTypeImage, ".webp": ContentTypeImage, ".bmp": ContentTypeImage,
	".heic": ContentTypeImage, ".svg": ContentTypeImage,
}

// PlayMedia opens locator in a media player. locator is either a URL or an
// absolute file path; file paths are turned into file:// locators. When
// contentType is empty it is inferred from the locator's extension.
func PlayMedia(locator, contentType string) (Request, error) {
	if isBlank(locator) {
		return Request{}, invalidArgument("media locator is required")
	}

	target := locator
	if (Request{Target: locator}).Scheme() == "" {
		fileLocator, err := FileLocator(locator)
		if err != nil {
			return Request{}, err
		}
		target = fileLocator
	}

	if contentType == "" {
		contentType = InferMediaType(target)
		if contentType == "" {
			return Request{}, invalidArgument("cannot infer media type of %q", locator)
		}
	} else if _, err := contenttype.ParseMediaType(contentType); err != nil {
		return Request{}, invalidArgument("invalid media type %q: %v", contentType, err)
	}

	return Request{Verb: VerbView, Target: target, ContentType: contentType}, nil
}

// PlayAudio opens locator in an audio player.
func PlayAudio(locator string) (Request, error) {
	return PlayMedia(locator, ContentTypeAudio)
}

// PlayVideo opens locator in a video player.
func PlayVideo(locator string) (Request, error) {
	return PlayMedia(locator, ContentTypeVideo)
}

// PlayImage opens locator in an image viewer.
func PlayImage(locator string) (Request, error) {
	return PlayMedia(locator, ContentTypeImage)
}

// InferMediaType returns audio/*, video/* or image/* from the extension of
// locator's path, or "" if the extension is unknown.
func InferMediaType(locator string) string {
	p := locator
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	return mediaTypesByExtension[strings.ToLower(path.Ext(p))]
}

// FileLocator converts an absolute file path into a file:// locator, percent-encoding
// each path segment.
func FileLocator(filePath string) (string, error) {
	p := strings.ReplaceAll(filePath, "\\", "/")
	if !strings.HasPrefix(p, "/") {
		return "", invalidArgument("file path %q must be absolute", filePath)
	}
	return "file://" + encode(path.Clean(p), "/"), nil
}

// YouTubeCandidates returns, in order of preference, a request for the YouTube
// app and a browser fallback on the watch page.
func YouTubeCandidates(videoID string) ([]Request, error) {
	if isBlank(videoID) {
		return nil, invalidArgument("video id is required")
	}
	id := EncodeText(videoID)
	return []Request{
		{Verb: VerbView, Target: "vnd.youtube:" + id},
		{Verb: VerbView, Target: "http://www.youtube.com/watch?v=" + id},
	}, nil
}

// OpenBrowser views url in a browser, prefixing http:// when the URL has neither
// an http:// nor an https:// prefix.
func OpenBrowser(url string) (Request, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return Request{}, invalidArgument("url is required")
	}
	if !hasPrefixFold(url, "http://") && !hasPrefixFold(url, "https://") {
		url = "http://" + url
	}
	return Request{Verb: VerbView, Target: url}, nil
}

// TakePicture launches the camera, saving the picture to outputPath.
func TakePicture(outputPath string) (Request, error) {
	output, err := FileLocator(outputPath)
	if err != nil {
		return Request{}, err
	}
	return Request{
		Verb:    VerbCaptureImage,
		Payload: map[string]any{PayloadOutput: output},
	}, nil
}

// SelectPicture opens the gallery to pick a picture.
func SelectPicture() Request {
	return Request{Verb: VerbPick, ContentType: ContentTypeImage}
}

// PickFile opens a file manager to pick a file.
func PickFile() Request {
	return Request{Verb: VerbGetContent, ContentType: ContentTypeFile}
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
