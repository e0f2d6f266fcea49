package lnaddress

import (
	"strings"
	"testing"

	"github.com/btcsuite/btcutil/bech32"
	"github.com/stretchr/testify/require"
)

func TestEncodeURL(t *testing.T) {
	url := "https://service.com/api?q=3fc3645b439ce8e7f2553a69e5267081d9" +
		"6dcd340693afabe04be7b0ccd178df"

	lnurl, err := EncodeURL(url)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(lnurl, "LNURL1"))
	require.Equal(t, strings.ToUpper(lnurl), lnurl)

	decoded, err := DecodeURL(lnurl)
	require.NoError(t, err)
	require.Equal(t, url, decoded)

	// Lower case works just as well.
	decoded, err = DecodeURL(strings.ToLower(lnurl))
	require.NoError(t, err)
	require.Equal(t, url, decoded)
}

func TestDecodeURLWrongHRP(t *testing.T) {
	data, err := bech32.ConvertBits([]byte("https://example.com"), 8, 5,
		true)
	require.NoError(t, err)

	encoded, err := bech32.Encode("lnbc", data)
	require.NoError(t, err)

	_, err = DecodeURL(encoded)
	require.Error(t, err)

	_, err = DecodeURL("LNURL1notvalid")
	require.Error(t, err)
}
