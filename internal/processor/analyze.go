package processor

import (
	"errors"
	"io"
	"strings"

	exif "github.com/dsoprea/go-exif/v3"
)

// ExifAnalysis summarizes the EXIF block a conversion would drop.
type ExifAnalysis struct {
	Tags         int
	HasGPS       bool
	HasModel     bool
	HasTimestamp bool
	HasSerial    bool
}

func analyzeExif(rs io.ReadSeeker) (ExifAnalysis, error) {
	analysis := ExifAnalysis{}

	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return analysis, err
	}

	// The flat reader expects the EXIF block at offset 0, so locate it first.
	raw, err := exif.SearchAndExtractExifWithReader(rs)
	if err != nil {
		if errorsIsNoExif(err) {
			return analysis, nil
		}
		return analysis, err
	}

	tags, _, err := exif.GetFlatExifDataUniversalSearch(raw, nil, true)
	if err != nil {
		return analysis, err
	}

	for _, tag := range tags {
		name := tag.TagName
		analysis.Tags++

		if strings.HasPrefix(name, "GPS") || strings.Contains(tag.IfdPath, "GPS") {
			analysis.HasGPS = true
		}
		if name == "Model" || name == "Make" || name == "CameraModelName" {
			analysis.HasModel = true
		}
		if name == "DateTimeOriginal" || name == "DateTimeDigitized" || name == "DateTime" {
			analysis.HasTimestamp = true
		}
		if strings.Contains(strings.ToLower(name), "serial") {
			analysis.HasSerial = true
		}
	}

	return analysis, nil
}

func (a ExifAnalysis) categories() []string {
	cats := []string{}
	if a.HasGPS {
		cats = append(cats, "GPS")
	}
	if a.HasModel {
		cats = append(cats, "Device Model")
	}
	if a.HasTimestamp {
		cats = append(cats, "Timestamp")
	}
	if a.HasSerial {
		cats = append(cats, "Serial Number")
	}
	return cats
}

func errorsIsNoExif(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, exif.ErrNoExif) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no exif")
}
