// Package metadata extracts document properties from matched files whose
// MIME type has a known parser.
package metadata

import (
	"archive/zip"
	"encoding/xml"
	"io"
	"os"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/rwcarlsen/goexif/exif"
)

const docxMIME = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

type extractor func(path string, maxBytes int64) map[string]interface{}

var extractors = map[string]extractor{
	"image/jpeg":      extractEXIF,
	"image/tiff":      extractEXIF,
	"application/pdf": extractPDF,
	docxMIME:          extractDOCX,
}

// Supported reports whether Extract has a parser for mimeType.
func Supported(mimeType string) bool {
	_, ok := extractors[mimeType]
	return ok
}

// Extract returns document properties for path. The map is never nil; parse
// failures and unsupported types yield an empty map.
func Extract(path, mimeType string, maxBytes int64) map[string]interface{} {
	props := make(map[string]interface{})
	fn, ok := extractors[mimeType]
	if !ok {
		return props
	}
	for k, v := range fn(path, maxBytes) {
		props[k] = v
	}
	return props
}

func tooLarge(path string, maxBytes int64) bool {
	if maxBytes <= 0 {
		return false
	}
	info, err := os.Stat(path)
	return err != nil || info.Size() > maxBytes
}

func extractEXIF(path string, maxBytes int64) map[string]interface{} {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var reader io.Reader = f
	if maxBytes > 0 {
		reader = io.LimitReader(f, maxBytes)
	}
	x, err := exif.Decode(reader)
	if err != nil {
		return nil
	}

	props := make(map[string]interface{})
	if tm, err := x.DateTime(); err == nil {
		props["datetime"] = tm.Format(time.RFC3339)
	}
	for name, field := range map[string]exif.FieldName{
		"make":     exif.Make,
		"model":    exif.Model,
		"software": exif.Software,
	} {
		if tag, err := x.Get(field); err == nil {
			if s, err := tag.StringVal(); err == nil {
				props[name] = s
			} else {
				props[name] = tag.String()
			}
		}
	}
	if lat, long, err := x.LatLong(); err == nil {
		props["latitude"] = lat
		props["longitude"] = long
	}
	return props
}

func extractPDF(path string, maxBytes int64) map[string]interface{} {
	if tooLarge(path, maxBytes) {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	info, err := api.PDFInfo(f, path, nil, false, nil)
	if err != nil {
		return nil
	}

	props := make(map[string]interface{})
	setString(props, "title", info.Title)
	setString(props, "author", info.Author)
	setString(props, "creator", info.Creator)
	setString(props, "producer", info.Producer)
	if info.PageCount > 0 {
		props["pages"] = info.PageCount
	}
	return props
}

type coreProperties struct {
	Title       string `xml:"title"`
	Subject     string `xml:"subject"`
	Creator     string `xml:"creator"`
	Keywords    string `xml:"keywords"`
	Description string `xml:"description"`
}

func extractDOCX(path string, maxBytes int64) map[string]interface{} {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil
	}
	defer r.Close()

	for _, f := range r.File {
		if f.Name != "docProps/core.xml" {
			continue
		}
		if maxBytes > 0 && f.UncompressedSize64 > uint64(maxBytes) {
			return nil
		}
		rc, err := f.Open()
		if err != nil {
			return nil
		}
		defer rc.Close()

		var cp coreProperties
		if err := xml.NewDecoder(rc).Decode(&cp); err != nil {
			return nil
		}
		props := make(map[string]interface{})
		setString(props, "title", cp.Title)
		setString(props, "subject", cp.Subject)
		setString(props, "creator", cp.Creator)
		setString(props, "keywords", cp.Keywords)
		setString(props, "description", cp.Description)
		return props
	}
	return nil
}

func setString(props map[string]interface{}, key, value string) {
	if value != "" {
		props[key] = value
	}
}
