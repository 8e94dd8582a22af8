package server

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendermint/tendermint/libs/log"
)

const tmGenesis = `{
  "genesis_time": "2019-04-01T10:00:00Z",
  "chain_id": "test-chain-xyz",
  "validators": []
}`

// setupHome creates a home directory with a genesis file as written by
// tendermint init.
func setupHome(t *testing.T, genesis string) (string, func()) {
	home, err := ioutil.TempDir("", "escrowd-home")
	require.NoError(t, err)
	require.NoError(t, os.Mkdir(filepath.Join(home, "config"), 0755))
	if genesis != "" {
		require.NoError(t, ioutil.WriteFile(GenesisPath(home), []byte(genesis), 0600))
	}
	return home, func() { os.RemoveAll(home) }
}

func readGenesis(t *testing.T, home string) GenesisDoc {
	raw, err := ioutil.ReadFile(GenesisPath(home))
	require.NoError(t, err)
	var doc GenesisDoc
	require.NoError(t, json.Unmarshal(raw, &doc))
	return doc
}

func staticOptions(state string) GenOptions {
	return func(args []string) (json.RawMessage, error) {
		return json.RawMessage(state), nil
	}
}

func TestInitAddsAppState(t *testing.T) {
	home, cleanup := setupHome(t, tmGenesis)
	defer cleanup()

	err := InitCmd(staticOptions(`{"cash":[]}`), log.NewNopLogger(), home, nil)
	require.NoError(t, err)

	doc := readGenesis(t, home)
	assert.JSONEq(t, `{"cash":[]}`, string(doc["app_state"]))
	assert.JSONEq(t, `"test-chain-xyz"`, string(doc["chain_id"]))

	// A second init must not silently drop the existing state.
	err = InitCmd(staticOptions(`{"cash":[1]}`), log.NewNopLogger(), home, nil)
	require.Error(t, err)
	assert.True(t, errors.ErrState.Is(err))

	err = InitCmd(staticOptions(`{"cash":[1]}`), log.NewNopLogger(), home, []string{"-f"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"cash":[1]}`, string(readGenesis(t, home)["app_state"]))
}

func TestInitPassesArguments(t *testing.T) {
	home, cleanup := setupHome(t, tmGenesis)
	defer cleanup()

	var got []string
	gen := func(args []string) (json.RawMessage, error) {
		got = args
		return json.RawMessage(`{}`), nil
	}
	err := InitCmd(gen, log.NewNopLogger(), home, []string{"-f", "one", "two"})
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, got)
}

func TestInitWithoutGenesis(t *testing.T) {
	home, cleanup := setupHome(t, "")
	defer cleanup()

	err := InitCmd(staticOptions(`{}`), log.NewNopLogger(), home, nil)
	require.Error(t, err)
	assert.True(t, errors.ErrNotFound.Is(err))
}

type recordingInit struct {
	opts custody.Options
	err  error
}

func (r *recordingInit) FromGenesis(opts custody.Options, db custody.KVStore) error {
	r.opts = opts
	return r.err
}

func TestValidateGenesis(t *testing.T) {
	home, cleanup := setupHome(t, tmGenesis)
	defer cleanup()
	require.NoError(t, InitCmd(staticOptions(`{"conf":{"escrow":{}}}`), log.NewNopLogger(), home, nil))

	ini := &recordingInit{}
	require.NoError(t, ValidateGenesis(ini, []string{GenesisPath(home)}))
	assert.JSONEq(t, `{"escrow":{}}`, string(ini.opts["conf"]))

	ini.err = errors.Wrap(errors.ErrInput, "bad payer")
	err := ValidateGenesis(ini, []string{GenesisPath(home)})
	require.Error(t, err)
	assert.True(t, errors.ErrInput.Is(err))

	err = ValidateGenesis(ini, []string{filepath.Join(home, "missing.json")})
	require.Error(t, err)

	err = ValidateGenesis(ini, nil)
	assert.True(t, errors.ErrInput.Is(err))
}

func TestParseStartFlags(t *testing.T) {
	opts, err := parseFlags(nil)
	require.NoError(t, err)
	assert.Equal(t, StartArgs{Bind: DefaultBind}, opts)

	opts, err = parseFlags([]string{"-bind", "tcp://0.0.0.0:1234", "-debug"})
	require.NoError(t, err)
	assert.Equal(t, StartArgs{Bind: "tcp://0.0.0.0:1234", Debug: true}, opts)

	_, err = parseFlags([]string{"extra"})
	assert.True(t, errors.ErrInput.Is(err))
}
