package domain

import (
	"errors"
	"math"
	"net/http"
	"regexp"
	"strconv"
	"strings"
)

// MaxImageBytes is the largest rooftop image accepted (10 MiB).
const MaxImageBytes = 10 << 20

var (
	mobileRe = regexp.MustCompile(`^[6-9]\d{9}$`)
	emailRe  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

var (
	ErrRequired      = errors.New("value is required")
	ErrNotANumber    = errors.New("value is not a number")
	ErrOutOfRange    = errors.New("value is out of range")
	ErrImageTooLarge = errors.New("image exceeds size limit")
	ErrNotAnImage    = errors.New("payload is not an image")
)

// ValidName reports whether name has content after trimming.
func ValidName(name string) bool {
	return strings.TrimSpace(name) != ""
}

// ValidMobile reports whether mobile is a 10-digit number starting with 6-9.
// Surrounding whitespace is ignored.
func ValidMobile(mobile string) bool {
	return mobileRe.MatchString(strings.TrimSpace(mobile))
}

// ValidEmail reports whether email has non-space local and domain parts
// around a single "@" and a dotted domain.
func ValidEmail(email string) bool {
	return emailRe.MatchString(strings.TrimSpace(email))
}

func ValidLatitude(lat float64) bool {
	return !math.IsNaN(lat) && lat >= -90 && lat <= 90
}

func ValidLongitude(lng float64) bool {
	return !math.IsNaN(lng) && lng >= -180 && lng <= 180
}

// ParseLatitude parses s as a latitude in [-90, 90].
func ParseLatitude(s string) (float64, error) {
	return parseBounded(s, ValidLatitude)
}

// ParseLongitude parses s as a longitude in [-180, 180].
func ParseLongitude(s string) (float64, error) {
	return parseBounded(s, ValidLongitude)
}

func parseBounded(s string, inRange func(float64) bool) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrRequired
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, ErrNotANumber
	}
	if !inRange(v) {
		return 0, ErrOutOfRange
	}
	return v, nil
}

// CheckImage validates an image payload against the size limit and requires
// both the declared and the sniffed content type to be image/*.
// It returns the sniffed content type on success.
func CheckImage(declaredType string, data []byte, maxBytes int) (string, error) {
	if len(data) > maxBytes {
		return "", ErrImageTooLarge
	}
	if len(data) == 0 {
		return "", ErrNotAnImage
	}
	if declaredType != "" && !strings.HasPrefix(strings.ToLower(declaredType), "image/") {
		return "", ErrNotAnImage
	}
	sniffed := http.DetectContentType(data)
	if !strings.HasPrefix(sniffed, "image/") {
		return "", ErrNotAnImage
	}
	return sniffed, nil
}
