package app

import (
	"encoding/json"
	"flag"
	"fmt"
	"path/filepath"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/coin"
	"github.com/iov-one/custody/crypto"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/x/cash"
	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/libs/log"
)

// DefaultFunds is the balance of the payer account created by init.
const DefaultFunds = "123456789u"

type genesis struct {
	Cash []cash.GenesisAccount  `json:"cash"`
	Conf map[string]interface{} `json:"conf,omitempty"`
}

type escrowGenesis struct {
	Payer      custody.Address   `json:"payer"`
	Registries []custody.Address `json:"registries"`
}

// GenInitOptions produces the app_state with one funded payer account, to
// use for dev mode.
//
//   init [-funds 100u] [payer address] [trusted registry address...]
//
// Without an address a new key is generated and printed. The escrow is
// configured in genesis only when at least one registry is given,
// otherwise the payer must send an InstantiateMsg.
func GenInitOptions(args []string) (json.RawMessage, error) {
	var funds string
	fl := flag.NewFlagSet("init", flag.ContinueOnError)
	fl.StringVar(&funds, "funds", DefaultFunds, "initial payer balance")
	if err := fl.Parse(args); err != nil {
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	balance, err := coin.ParseCoin(funds)
	if err != nil {
		return nil, errors.Wrap(err, "funds")
	}
	args = fl.Args()

	var payer custody.Address
	if len(args) > 0 {
		payer, err = custody.ParseAddress(args[0])
		if err != nil {
			return nil, errors.Wrap(err, "payer")
		}
		args = args[1:]
	} else {
		// if no address provided, auto-generate one
		// and print out the keys
		addr, keys, err := GenerateCoinKey()
		if err != nil {
			return nil, err
		}
		payer = addr
		fmt.Println(keys)
	}

	state := genesis{
		Cash: []cash.GenesisAccount{
			{Address: payer, Coins: []coin.Coin{balance}},
		},
	}
	if len(args) > 0 {
		regs := make([]custody.Address, len(args))
		for i, a := range args {
			if regs[i], err = custody.ParseAddress(a); err != nil {
				return nil, errors.Wrapf(err, "registry %d", i)
			}
		}
		state.Conf = map[string]interface{}{
			"escrow": escrowGenesis{Payer: payer, Registries: regs},
		}
	}

	raw, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	return raw, nil
}

// GenerateApp is used to create a stub for server/start.go command
func GenerateApp(home string, logger log.Logger, debug bool) (abci.Application, error) {
	// db goes in a subdir, but "" -> "" for memdb
	var dbPath string
	if home != "" {
		dbPath = filepath.Join(home, "escrow.db")
	}

	application, err := Application("escrowd", Stack(), TxDecoder, dbPath, debug)
	if err != nil {
		return nil, err
	}
	application.WithInit(Initializers())

	// set the logger and return
	application.WithLogger(logger)
	return application, nil
}

type output struct {
	Pubkey *crypto.PublicKey  `json:"pub_key"`
	Secret *crypto.PrivateKey `json:"secret"`
}

// GenerateCoinKey returns the address of a public key,
// along with a json representation of the keys.
// You can give coins to this address and
// import the keys in a client to use them
func GenerateCoinKey() (custody.Address, string, error) {
	privKey := crypto.GenPrivKeyEd25519()
	pubKey := privKey.PublicKey()
	addr := pubKey.Address()

	out := output{Pubkey: pubKey, Secret: privKey}
	keys, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, "", errors.Wrap(errors.ErrInput, err.Error())
	}
	return addr, string(keys), nil
}
