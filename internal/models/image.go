package models

import (
	"encoding/base64"
	"fmt"
)

// PlaceholderGIFBase64 is a 1x1 transparent GIF used whenever image generation fails
const PlaceholderGIFBase64 = "R0lGODlhAQABAIAAAAAAAP///yH5BAEAAAAALAAAAAABAAEAAAIBRAA7"

const placeholderMIMEType = "image/gif"

// ImageResult is an opaque portrait payload
type ImageResult struct {
	MIMEType    string `json:"mime_type"`
	Data        []byte `json:"-"`
	Placeholder bool   `json:"placeholder"`
}

// PlaceholderImage returns the well-known fallback image
func PlaceholderImage() ImageResult {
	data, _ := base64.StdEncoding.DecodeString(PlaceholderGIFBase64)
	return ImageResult{
		MIMEType:    placeholderMIMEType,
		Data:        data,
		Placeholder: true,
	}
}

// DataURL renders the payload as a data: URL suitable for an <img> src
func (i ImageResult) DataURL() string {
	return fmt.Sprintf("data:%s;base64,%s", i.MIMEType, base64.StdEncoding.EncodeToString(i.Data))
}

// AspectRatio is the requested portrait aspect ratio
type AspectRatio string

// Supported aspect ratios
const (
	AspectSquare    AspectRatio = "1:1"
	AspectPortrait  AspectRatio = "3:4"
	AspectLandscape AspectRatio = "4:3"
	AspectWide      AspectRatio = "16:9"
	AspectTall      AspectRatio = "9:16"

	// DefaultAspectRatio fits the card art box
	DefaultAspectRatio = AspectLandscape
)

// AspectRatios lists the supported ratios
var AspectRatios = []AspectRatio{AspectSquare, AspectPortrait, AspectLandscape, AspectWide, AspectTall}

// ImageStyle is one of the fixed art style presets
type ImageStyle string

// Style presets
const (
	StyleFantasyOil  ImageStyle = "Fantasy Oil Painting"
	StyleCinematic   ImageStyle = "Cinematic Photorealistic"
	StyleVintageBook ImageStyle = "Vintage Book Illustration"
	StyleWatercolor  ImageStyle = "Watercolor Art"
	StyleDarkFantasy ImageStyle = "Dark Fantasy"
	StyleAnime       ImageStyle = "Anime Style"
	StyleRender3D    ImageStyle = "3D Render"

	// DefaultImageStyle matches the card frame art
	DefaultImageStyle = StyleFantasyOil
)

// ImageStyles lists the style presets
var ImageStyles = []ImageStyle{
	StyleFantasyOil, StyleCinematic, StyleVintageBook, StyleWatercolor, StyleDarkFantasy, StyleAnime, StyleRender3D,
}

// ImageOptions are the user-selected portrait settings
type ImageOptions struct {
	AspectRatio AspectRatio `json:"aspect_ratio"`
	Style       ImageStyle  `json:"style"`
}

// Normalize fills defaults and rejects unknown values
func (o ImageOptions) Normalize() (ImageOptions, error) {
	if o.AspectRatio == "" {
		o.AspectRatio = DefaultAspectRatio
	}
	if o.Style == "" {
		o.Style = DefaultImageStyle
	}
	if !containsRatio(o.AspectRatio) {
		return o, fmt.Errorf("unsupported aspect ratio %q", o.AspectRatio)
	}
	if !containsStyle(o.Style) {
		return o, fmt.Errorf("unsupported image style %q", o.Style)
	}
	return o, nil
}

func containsRatio(r AspectRatio) bool {
	for _, v := range AspectRatios {
		if v == r {
			return true
		}
	}
	return false
}

func containsStyle(s ImageStyle) bool {
	for _, v := range ImageStyles {
		if v == s {
			return true
		}
	}
	return false
}
