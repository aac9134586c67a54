package wallet

import (
	"encoding/hex"
	"fmt"

	"github.com/Klingon-tech/xecwallet/pkg/crypto"
	"github.com/Klingon-tech/xecwallet/pkg/types"
)

// KeyMaterial is the signing identity derived from a seed phrase at
// DerivationPath. It is never persisted.
type KeyMaterial struct {
	priv    *crypto.PrivateKey
	pubKey  []byte
	pkh     [20]byte
	script  []byte
	address types.Address
}

// NewKeyMaterial validates mnemonic and derives the wallet key. The address
// is encoded with prefix, e.g. types.MainnetPrefix.
func NewKeyMaterial(mnemonic, prefix string) (*KeyMaterial, error) {
	if prefix == "" {
		prefix = types.MainnetPrefix
	}
	seed, err := SeedFromMnemonic(mnemonic, "")
	if err != nil {
		return nil, err
	}
	master, err := NewMasterKey(seed)
	if err != nil {
		return nil, err
	}
	child, err := master.Derive(DerivationPath)
	if err != nil {
		return nil, fmt.Errorf("derive %s: %w", DerivationPath, err)
	}
	priv, err := child.Signer()
	if err != nil {
		return nil, err
	}

	pkh := child.PubKeyHash()
	addr := types.NewP2PKHAddress(prefix, pkh)
	return &KeyMaterial{
		priv:    priv,
		pubKey:  child.PublicKeyBytes(),
		pkh:     pkh,
		script:  addr.Script(),
		address: addr,
	}, nil
}

// Signer returns the signer used for every wallet input.
func (k *KeyMaterial) Signer() crypto.Signer { return k.priv }

// PublicKey returns the compressed public key.
func (k *KeyMaterial) PublicKey() []byte { return append([]byte(nil), k.pubKey...) }

// PubKeyHash returns the 20-byte public-key hash.
func (k *KeyMaterial) PubKeyHash() [20]byte { return k.pkh }

// Script returns the wallet's P2PKH locking script.
func (k *KeyMaterial) Script() []byte { return append([]byte(nil), k.script...) }

// Address returns the wallet's receiving address.
func (k *KeyMaterial) Address() types.Address { return k.address }

// ExportPrivateKeyHex returns the private scalar as hex.
func (k *KeyMaterial) ExportPrivateKeyHex() string {
	return hex.EncodeToString(k.priv.Serialize())
}
