package lnaddress

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcutil/bech32"
)

const humanReadablePart = "lnurl"

// DecodeURL decodes a bech32 LNURL back into the url it wraps.
func DecodeURL(lnurl string) (string, error) {
	hrp, data, err := bech32.DecodeNoLimit(lnurl)
	if err != nil {
		return "", err
	}

	if hrp != humanReadablePart {
		return "", fmt.Errorf("incorrect hrp for LNURL. Expected "+
			"'%s', got '%s'", humanReadablePart, hrp)
	}

	data, err = bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return "", err
	}

	return string(data), nil
}

// EncodeURL bech32 encodes url into an upper case LNURL.
func EncodeURL(url string) (string, error) {
	converted, err := bech32.ConvertBits([]byte(url), 8, 5, true)
	if err != nil {
		return "", err
	}

	str, err := bech32.Encode(humanReadablePart, converted)
	if err != nil {
		return "", err
	}

	return strings.ToUpper(str), nil
}
