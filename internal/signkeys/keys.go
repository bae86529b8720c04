package signkeys

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"flash-alliance/internal/addressing"
	"flash-alliance/internal/model"

	"github.com/btcsuite/btcd/btcec"
	"github.com/hyperledger/sawtooth-sdk-go/signing"
)

type UserKeys struct {
	PrivateKey signing.PrivateKey
	PublicKey  signing.PublicKey
}

func (u UserKeys) GetSigner() *signing.Signer {
	cryptoFactory := signing.NewCryptoFactory(signing.NewSecp256k1Context())
	return cryptoFactory.NewSigner(u.PrivateKey)
}

func (u UserKeys) Valid() bool {
	return u.PrivateKey != nil && u.PublicKey != nil && len(u.PrivateKey.AsBytes()) == 32
}

// Address is the ledger account controlled by these keys.
func (u UserKeys) Address() model.Address {
	return addressing.AccountAddress(u.PublicKey.AsHex())
}

// Verify checks a signature produced by GetSigner over message.
func (u UserKeys) Verify(signature []byte, message []byte) bool {
	return signing.NewSecp256k1Context().Verify(signature, message, u.PublicKey)
}

// source: https://github.com/ethereum/go-ethereum/blob/86d547707965685cef732aa28c15e6811ea98408/crypto/secp256k1/secp256_test.go#L19
func GenerateKeys() (UserKeys, error) {
	key, err := ecdsa.GenerateKey(btcec.S256(), rand.Reader)
	if err != nil {
		return UserKeys{}, errors.New("failed to generate the keys: " + err.Error())
	}
	pubkey := elliptic.Marshal(btcec.S256(), key.X, key.Y)

	privkey := make([]byte, 32)
	blob := key.D.Bytes()
	copy(privkey[32-len(blob):], blob)

	keys := UserKeys{
		PublicKey:  signing.NewSecp256k1PublicKey(pubkey),
		PrivateKey: signing.NewSecp256k1PrivateKey(privkey),
	}

	return keys, nil
}

// Account is a named local signer, used to seed development environments.
type Account struct {
	Name string
	Keys UserKeys
}

// NewAccount generates keys for name and checks they sign and verify before
// handing them out.
func NewAccount(name string) (Account, error) {
	keys, err := GenerateKeys()
	if err != nil {
		return Account{}, errors.New("account " + name + ": " + err.Error())
	}
	if err := CheckKeys(keys); err != nil {
		return Account{}, errors.New("account " + name + ": " + err.Error())
	}
	return Account{Name: name, Keys: keys}, nil
}

// CheckKeys signs a message with the private key and verifies it with the public one.
func CheckKeys(keys UserKeys) error {
	if !keys.Valid() {
		return errors.New("incomplete key pair")
	}
	message := []byte(keys.PublicKey.AsHex())
	if !keys.Verify(keys.GetSigner().Sign(message), message) {
		return errors.New("public key does not match the private key")
	}
	return nil
}

func (a Account) Address() model.Address {
	return a.Keys.Address()
}
