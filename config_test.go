package lnaddress

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestConfigValidate(t *testing.T) {
	cfg := testConfig()
	require.NoError(t, cfg.Validate())

	cfg.Usernames = nil
	require.ErrorIs(t, cfg.Validate(), ErrNoUsernames)

	cfg = testConfig()
	cfg.VerifyInvoices = true
	require.ErrorIs(t, cfg.Validate(), ErrNoChainParams)

	cfg.ChainParams = &chaincfg.MainNetParams
	require.NoError(t, cfg.Validate())

	// An inverted range is only worth a warning.
	cfg = testConfig()
	cfg.MinSendable, cfg.MaxSendable = cfg.MaxSendable, cfg.MinSendable
	require.NoError(t, cfg.Validate())
}

func TestConfigAuthorized(t *testing.T) {
	cfg := &Config{Usernames: []string{"alice", "bob"}}
	require.True(t, cfg.Authorized("alice"))
	require.True(t, cfg.Authorized("bob"))
	require.False(t, cfg.Authorized("Alice"))
	require.False(t, cfg.Authorized("alice "))
	require.False(t, cfg.Authorized(""))
	require.False(t, cfg.Authorized("*"))

	cfg.Usernames = append(cfg.Usernames, Wildcard)
	require.True(t, cfg.Authorized("Alice"))
	require.True(t, cfg.Authorized(""))
}

// TestConfigAuthorizedProperty checks that a username is accepted iff it is
// configured or a wildcard is.
func TestConfigAuthorizedProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		usernames := rapid.SliceOfN(
			rapid.StringMatching(`[a-c*]{1,2}`), 1, 5,
		).Draw(t, "usernames")
		username := rapid.StringMatching(`[a-c]{1,2}`).Draw(
			t, "username",
		)

		var expected bool
		for _, u := range usernames {
			if u == username || u == Wildcard {
				expected = true
			}
		}

		cfg := &Config{Usernames: usernames}
		if cfg.Authorized(username) != expected {
			t.Fatalf("authorized(%q) with %v: expected %v",
				username, usernames, expected)
		}
	})
}
