package qrcode

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"strings"
	"testing"

	"github.com/skip2/go-qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==================== 生成器测试 ====================

func TestNewGenerator_Options(t *testing.T) {
	g := NewGenerator()
	assert.Equal(t, 256, g.size)
	assert.Equal(t, qrcode.Medium, g.level)

	g = NewGenerator(WithSize(128), WithRecoveryLevel(qrcode.High))
	assert.Equal(t, 128, g.size)
	assert.Equal(t, qrcode.High, g.level)
}

func TestGenerator_PNG(t *testing.T) {
	data, err := NewGenerator(WithSize(200)).PNG("https://t.me/grocy_bot?start=STORE-1")
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, img.Bounds().Dx(), img.Bounds().Dy())

	_, err = NewGenerator().PNG("")
	assert.ErrorIs(t, err, ErrEmptyContent)
}

func TestGenerator_DataURL(t *testing.T) {
	u, err := NewGenerator(WithRecoveryLevel(qrcode.Low)).DataURL("hello")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(u, dataURLPrefix))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(u, dataURLPrefix))
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(raw))
	assert.NoError(t, err)
}

// ==================== 深链接测试 ====================

func TestTelegramDeepLink(t *testing.T) {
	assert.Equal(t, "https://t.me/grocy_bot?start=STORE-1", TelegramDeepLink("grocy_bot", "STORE-1"))
	assert.Equal(t, "https://t.me/grocy_bot?start=a+b", TelegramDeepLink("grocy_bot", "a b"))
}
