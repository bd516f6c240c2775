package qrcode_test

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metisnation/registry/pkg/qrcode"
)

func TestGenerate(t *testing.T) {
	t.Parallel()

	data, err := qrcode.Generate("otpauth://totp/MNO:a@b.c?secret=ABC", 128)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 128, img.Bounds().Dx())

	data, err = qrcode.Generate("x", 0)
	require.NoError(t, err)
	img, err = png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, qrcode.DefaultSize, img.Bounds().Dx())

	_, err = qrcode.Generate("  ", 128)
	assert.ErrorIs(t, err, qrcode.ErrEmptyContent)
}

func TestGenerateBase64Image(t *testing.T) {
	t.Parallel()

	url, err := qrcode.GenerateBase64Image("otpauth://totp/MNO:a@b.c?secret=ABC", 64)
	require.NoError(t, err)

	encoded, ok := strings.CutPrefix(url, "data:image/png;base64,")
	require.True(t, ok)
	raw, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(raw))
	assert.NoError(t, err)

	_, err = qrcode.GenerateBase64Image("", 64)
	assert.ErrorIs(t, err, qrcode.ErrEmptyContent)
}
