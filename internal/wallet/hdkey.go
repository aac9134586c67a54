package wallet

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tyler-smith/go-bip32"

	"github.com/Klingon-tech/xecwallet/pkg/crypto"
)

const (
	// PurposeBIP44 is the hardened BIP-44 purpose index.
	PurposeBIP44 = bip32.FirstHardenedChild + 44

	// CoinTypeECash is the hardened SLIP-44 coin type of eCash.
	CoinTypeECash = bip32.FirstHardenedChild + 1899

	ChangeExternal = 0
	ChangeInternal = 1
)

// DerivationPath is the single path the wallet derives its key from.
const DerivationPath = "m/44'/1899'/0'/0/0"

// HDKey is a BIP-32 extended key.
type HDKey struct {
	key *bip32.Key
}

// NewMasterKey creates the master key of a 64-byte seed.
func NewMasterKey(seed []byte) (*HDKey, error) {
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("seed must be %d bytes, got %d", SeedSize, len(seed))
	}
	master, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("create master key: %w", err)
	}
	return &HDKey{key: master}, nil
}

// ParsePath parses a path such as "m/44'/1899'/0'/0/0" into child indices.
// A trailing ' or h marks a hardened index.
func ParsePath(path string) ([]uint32, error) {
	parts := strings.Split(strings.TrimSpace(path), "/")
	if len(parts) == 0 || parts[0] != "m" {
		return nil, fmt.Errorf("path %q: must start with m", path)
	}
	indices := make([]uint32, 0, len(parts)-1)
	for _, p := range parts[1:] {
		hardened := strings.HasSuffix(p, "'") || strings.HasSuffix(p, "h")
		if hardened {
			p = p[:len(p)-1]
		}
		n, err := strconv.ParseUint(p, 10, 32)
		if err != nil || n >= uint64(bip32.FirstHardenedChild) {
			return nil, fmt.Errorf("path %q: bad index %q", path, p)
		}
		idx := uint32(n)
		if hardened {
			idx += bip32.FirstHardenedChild
		}
		indices = append(indices, idx)
	}
	return indices, nil
}

// DeriveChild derives the child at index. Hardened indices include
// bip32.FirstHardenedChild.
func (k *HDKey) DeriveChild(index uint32) (*HDKey, error) {
	child, err := k.key.NewChildKey(index)
	if err != nil {
		return nil, fmt.Errorf("derive child %d: %w", index, err)
	}
	return &HDKey{key: child}, nil
}

// DerivePath derives along indices in order.
func (k *HDKey) DerivePath(indices ...uint32) (*HDKey, error) {
	cur := k
	for _, idx := range indices {
		next, err := cur.DeriveChild(idx)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

// Derive derives the key at a textual path.
func (k *HDKey) Derive(path string) (*HDKey, error) {
	indices, err := ParsePath(path)
	if err != nil {
		return nil, err
	}
	return k.DerivePath(indices...)
}

// DeriveAddress derives m/44'/1899'/account'/change/index.
func (k *HDKey) DeriveAddress(account, change, index uint32) (*HDKey, error) {
	return k.DerivePath(PurposeBIP44, CoinTypeECash, bip32.FirstHardenedChild+account, change, index)
}

// PrivateKeyBytes returns the 32-byte private scalar, or nil for a public key.
func (k *HDKey) PrivateKeyBytes() []byte {
	if !k.key.IsPrivate {
		return nil
	}
	raw := k.key.Key
	// go-bip32 may keep a leading zero byte on private keys.
	if len(raw) == 33 && raw[0] == 0 {
		return raw[1:]
	}
	return raw
}

// PublicKeyBytes returns the compressed public key.
func (k *HDKey) PublicKeyBytes() []byte {
	return k.key.PublicKey().Key
}

// Signer returns the ECDSA signer of the private key.
func (k *HDKey) Signer() (*crypto.PrivateKey, error) {
	priv := k.PrivateKeyBytes()
	if priv == nil {
		return nil, fmt.Errorf("cannot create signer from public key")
	}
	return crypto.PrivateKeyFromBytes(priv)
}

// PubKeyHash returns HASH160 of the compressed public key.
func (k *HDKey) PubKeyHash() [20]byte {
	return crypto.PubKeyHash(k.PublicKeyBytes())
}

// Neuter returns the public half of the key.
func (k *HDKey) Neuter() *HDKey {
	return &HDKey{key: k.key.PublicKey()}
}
