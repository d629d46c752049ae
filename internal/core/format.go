package core

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/invopop/jsonschema"
)

// MediaFormat tags a catalog record with the kind of media it describes.
// Format-specific detail payloads are tagged variants keyed by this value,
// not a shared bag of optional fields.
type MediaFormat string

const (
	FormatBook MediaFormat = "BOOK"
	FormatCD   MediaFormat = "CD"
	FormatDVD  MediaFormat = "DVD"
)

// AllFormats lists the supported media formats.
var AllFormats = []MediaFormat{FormatBook, FormatCD, FormatDVD}

// Valid reports whether f is a supported media format.
func (f MediaFormat) Valid() bool {
	switch f {
	case FormatBook, FormatCD, FormatDVD:
		return true
	}
	return false
}

// ParseMediaFormat validates a caller-supplied format string,
// case-insensitively.
func ParseMediaFormat(s string) (MediaFormat, error) {
	f := MediaFormat(strings.ToUpper(strings.TrimSpace(s)))
	if !f.Valid() {
		return "", Validationf("unknown media format %q", s)
	}
	return f, nil
}

// BookDetails is the BOOK variant of format-specific metadata.
type BookDetails struct {
	Binding string `json:"binding,omitempty" jsonschema_description:"Physical binding, e.g. 'paperback' or 'hardcover'"`
	Pages   int    `json:"pages,omitempty" jsonschema_description:"Page count"`
	Edition string `json:"edition,omitempty" jsonschema_description:"Edition note, e.g. 'first edition'"`
}

// CDDetails is the CD variant of format-specific metadata.
type CDDetails struct {
	Genre string `json:"genre,omitempty" jsonschema_description:"Primary genre"`
	Discs int    `json:"discs,omitempty" jsonschema_description:"Number of discs in the case"`
}

// DVDDetails is the DVD variant of format-specific metadata.
type DVDDetails struct {
	Rating         string `json:"rating,omitempty" jsonschema_description:"Classification rating, e.g. 'PG' or 'MA15+'"`
	RuntimeMinutes int    `json:"runtime_minutes,omitempty" jsonschema_description:"Feature runtime in minutes"`
	Region         string `json:"region,omitempty" jsonschema_description:"Disc region code"`
}

// ValidateDetails strictly decodes a raw detail payload against the
// variant selected by format; unknown fields are rejected. An empty
// payload is always acceptable.
func ValidateDetails(format MediaFormat, raw json.RawMessage) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var dst any
	switch format {
	case FormatBook:
		dst = &BookDetails{}
	case FormatCD:
		dst = &CDDetails{}
	case FormatDVD:
		dst = &DVDDetails{}
	default:
		return Validationf("unknown media format %q", format)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return Validationf("invalid %s details: %v", format, err)
	}
	return nil
}

// FormatSchemas reflects a JSON Schema for each format's detail variant.
// The dashboard uses these to render format-specific intake forms.
func FormatSchemas() map[MediaFormat]*jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	return map[MediaFormat]*jsonschema.Schema{
		FormatBook: reflector.Reflect(&BookDetails{}),
		FormatCD:   reflector.Reflect(&CDDetails{}),
		FormatDVD:  reflector.Reflect(&DVDDetails{}),
	}
}
