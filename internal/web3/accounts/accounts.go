// Package accounts loads named signing credentials from the environment.
package accounts

import (
	"crypto/ecdsa"
	"os"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	chainerrors "ChainKit/internal/errors"
)

// DefaultAccount is the account name used when none is given.
const DefaultAccount = "dev"

// DefaultVariables maps account names to the environment variable holding
// their private key.
var DefaultVariables = map[string]string{
	DefaultAccount: "PRIVATE_KEY_DEV",
}

// Account is a named credential.
type Account struct {
	Name    string
	Address common.Address
	key     *ecdsa.PrivateKey
}

// PrivateKey returns the signing key.
func (a Account) PrivateKey() *ecdsa.PrivateKey {
	return a.key
}

// Keyring holds the accounts resolved at startup. Accounts whose variable is
// missing or malformed are remembered so the failure surfaces on first use.
type Keyring struct {
	accounts map[string]Account
	invalid  map[string]error
}

// FromEnv resolves every name in vars through getenv. A nil getenv uses os.Getenv.
func FromEnv(vars map[string]string, getenv func(string) string) *Keyring {
	if getenv == nil {
		getenv = os.Getenv
	}
	k := &Keyring{
		accounts: make(map[string]Account, len(vars)),
		invalid:  make(map[string]error),
	}
	for name, variable := range vars {
		raw := strings.TrimSpace(getenv(variable))
		if raw == "" {
			k.invalid[name] = chainerrors.Newf(chainerrors.CodeAccountNotFound, "account %s: %s is not set", name, variable)
			continue
		}
		key, err := crypto.HexToECDSA(strings.TrimPrefix(raw, "0x"))
		if err != nil {
			k.invalid[name] = chainerrors.Wrap(chainerrors.CodeAccountNotFound, err,
				"account "+name+": "+variable+" is not a valid private key")
			continue
		}
		k.accounts[name] = Account{Name: name, Address: crypto.PubkeyToAddress(key.PublicKey), key: key}
	}
	return k
}

// NewKeyring builds a keyring from already parsed keys.
func NewKeyring(keys map[string]*ecdsa.PrivateKey) *Keyring {
	k := &Keyring{accounts: make(map[string]Account, len(keys)), invalid: map[string]error{}}
	for name, key := range keys {
		k.accounts[name] = Account{Name: name, Address: crypto.PubkeyToAddress(key.PublicKey), key: key}
	}
	return k
}

// Get returns the named account or an AccountNotFound error.
func (k *Keyring) Get(name string) (Account, error) {
	if k == nil {
		return Account{}, chainerrors.Newf(chainerrors.CodeAccountNotFound, "account %s not found", name)
	}
	if acc, ok := k.accounts[name]; ok {
		return acc, nil
	}
	if err, ok := k.invalid[name]; ok {
		return Account{}, err
	}
	return Account{}, chainerrors.Newf(chainerrors.CodeAccountNotFound, "account %s not found", name)
}

// Names lists the usable account names.
func (k *Keyring) Names() []string {
	if k == nil {
		return nil
	}
	names := make([]string, 0, len(k.accounts))
	for name := range k.accounts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
