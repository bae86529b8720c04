package addressing

import (
	"flash-alliance/internal/hashing"
	"flash-alliance/internal/model"
	"strconv"
	"sync"
)

const (
	FamilyName string = "flash-alliance"

	alliancePrefix   = "alliance"
	factoryPrefix    = "factory"
	accountPrefix    = "account"
	faucetPrefix     = "faucet"
	tokenPrefix      = "token"
	collectionPrefix = "collection"
)

var (
	familyHash           = ""
	alliancePrefixHash   = ""
	factoryPrefixHash    = ""
	accountPrefixHash    = ""
	faucetPrefixHash     = ""
	tokenPrefixHash      = ""
	collectionPrefixHash = ""

	calcOnce sync.Once
)

func initHashVars() {
	calcOnce.Do(func() {
		familyHash = hashing.CalculateSHA512(FamilyName)
		alliancePrefixHash = hashing.CalculateSHA512(alliancePrefix)
		factoryPrefixHash = hashing.CalculateSHA512(factoryPrefix)
		accountPrefixHash = hashing.CalculateSHA512(accountPrefix)
		faucetPrefixHash = hashing.CalculateSHA512(faucetPrefix)
		tokenPrefixHash = hashing.CalculateSHA512(tokenPrefix)
		collectionPrefixHash = hashing.CalculateSHA512(collectionPrefix)
	})
}

// namespaced builds a 40 hex address: 6 chars of the family, 6 of the
// prefix and 28 of the seed digest.
func namespaced(prefixHash string, seed string) model.Address {
	seedHash := hashing.CalculateSHA512(seed)
	return model.AddressFromHash(familyHash[0:6] + prefixHash[0:6] + seedHash[0:28])
}

// AllianceAddress is the account of the index-th alliance created by factory.
func AllianceAddress(factory model.Address, index int) model.Address {
	initHashVars()
	return namespaced(alliancePrefixHash, factory.String()+"/"+strconv.Itoa(index))
}

func FactoryAddress(deployer model.Address) model.Address {
	initHashVars()
	return namespaced(factoryPrefixHash, deployer.String())
}

// AccountAddress derives a participant account from its hex public key.
func AccountAddress(publicKeyHex string) model.Address {
	initHashVars()
	return namespaced(accountPrefixHash, publicKeyHex)
}

func FaucetAddress(token model.Address, owner model.Address) model.Address {
	initHashVars()
	return namespaced(faucetPrefixHash, token.String()+"/"+owner.String())
}

func TokenAddress(symbol string) model.Address {
	initHashVars()
	return namespaced(tokenPrefixHash, symbol)
}

func CollectionAddress(symbol string) model.Address {
	initHashVars()
	return namespaced(collectionPrefixHash, symbol)
}
