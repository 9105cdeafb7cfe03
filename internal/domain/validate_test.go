package domain

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidName(t *testing.T) {
	assert.True(t, ValidName("Asha Rao"))
	assert.True(t, ValidName("  A "))
	assert.False(t, ValidName(""))
	assert.False(t, ValidName(" \t\n"))
}

func TestValidMobile(t *testing.T) {
	tests := []struct {
		mobile string
		want   bool
	}{
		{"9876543210", true},
		{"6000000000", true},
		{"7123456789", true},
		{"8999999999", true},
		{" 9876543210 ", true},
		{"5876543210", false},
		{"0876543210", false},
		{"987654321", false},
		{"98765432101", false},
		{"98765a3210", false},
		{"+919876543210", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.mobile, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidMobile(tt.mobile))
		})
	}
}

func TestValidMobile_EveryLeadingDigit(t *testing.T) {
	for d := 0; d <= 9; d++ {
		mobile := strconv.Itoa(d) + "123456789"
		assert.Equal(t, d >= 6, ValidMobile(mobile), mobile)
	}
}

func TestValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"asha@example.com", true},
		{"a.b+c@mail.example.co.in", true},
		{" asha@example.com ", true},
		{"asha@example", false},
		{"asha example@example.com", false},
		{"@example.com", false},
		{"asha@.com", false},
		{"asha@@example.com", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidEmail(tt.email))
		})
	}
}

func TestParseLatitude(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr error
	}{
		{"19.0760", 19.076, nil},
		{"-90", -90, nil},
		{"90", 90, nil},
		{" 0 ", 0, nil},
		{"-90.0001", 0, ErrOutOfRange},
		{"90.0001", 0, ErrOutOfRange},
		{"NaN", 0, ErrOutOfRange},
		{"abc", 0, ErrNotANumber},
		{"", 0, ErrRequired},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLatitude(tt.in)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestParseLongitude(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr error
	}{
		{"72.8777", 72.8777, nil},
		{"-180", -180, nil},
		{"180", 180, nil},
		{"180.0001", 0, ErrOutOfRange},
		{"-180.0001", 0, ErrOutOfRange},
		{"Inf", 0, ErrOutOfRange},
		{"east", 0, ErrNotANumber},
		{"   ", 0, ErrRequired},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLongitude(tt.in)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestCoordinatesValid_Grid(t *testing.T) {
	for lat := -90.0; lat <= 90; lat += 15 {
		for lng := -180.0; lng <= 180; lng += 30 {
			assert.True(t, Coordinates{Latitude: lat, Longitude: lng}.Valid(), "%v,%v", lat, lng)
		}
	}
	assert.False(t, Coordinates{Latitude: -90.0001}.Valid())
	assert.False(t, Coordinates{Longitude: 180.0001}.Valid())
}

func TestCheckImage(t *testing.T) {
	pngBytes := tinyPNG(t)

	ct, err := CheckImage("image/png", pngBytes, MaxImageBytes)
	require.NoError(t, err)
	assert.Equal(t, "image/png", ct)

	_, err = CheckImage("", pngBytes, MaxImageBytes)
	require.NoError(t, err)

	_, err = CheckImage("text/plain", pngBytes, MaxImageBytes)
	require.ErrorIs(t, err, ErrNotAnImage)

	_, err = CheckImage("image/png", []byte("plain text, not pixels"), MaxImageBytes)
	require.ErrorIs(t, err, ErrNotAnImage)

	_, err = CheckImage("image/png", nil, MaxImageBytes)
	require.ErrorIs(t, err, ErrNotAnImage)

	_, err = CheckImage("image/png", pngBytes, len(pngBytes)-1)
	require.ErrorIs(t, err, ErrImageTooLarge)
}

func TestCheckImage_SizeCheckedFirst(t *testing.T) {
	oversized := make([]byte, MaxImageBytes+1)
	_, err := CheckImage("application/octet-stream", oversized, MaxImageBytes)
	require.ErrorIs(t, err, ErrImageTooLarge)
}

func TestValidationError(t *testing.T) {
	var verr ValidationError
	assert.NoError(t, verr.Err())

	verr.Add(FieldMobile, "Mobile number is required")
	verr.Add(FieldEmail, "Email is required")
	verr.Add(FieldMobile, "ignored second message")

	err := verr.Err()
	require.Error(t, err)
	assert.Equal(t, "validation failed: email: Email is required; mobile: Mobile number is required", err.Error())
	assert.Equal(t, "Mobile number is required", verr.Fields[FieldMobile])
}

func tinyPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
