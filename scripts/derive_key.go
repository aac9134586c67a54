// derive_key.go prints the pubkey and eCash address for a hex-encoded private key file.
// Usage: go run scripts/derive_key.go <keyfile> [prefix]
package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/Klingon-tech/xecwallet/pkg/crypto"
	"github.com/Klingon-tech/xecwallet/pkg/types"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: derive_key <keyfile> [prefix]")
		os.Exit(1)
	}
	prefix := types.MainnetPrefix
	if len(os.Args) > 2 {
		prefix = os.Args[2]
	}
	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	keyHex := strings.TrimSpace(string(data))
	keyBytes, err := hex.DecodeString(keyHex)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	key, err := crypto.PrivateKeyFromBytes(keyBytes)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	pub := key.PublicKey()
	addr := types.NewP2PKHAddress(prefix, crypto.PubKeyHash(pub))
	fmt.Printf("pubkey=%s\n", hex.EncodeToString(pub))
	fmt.Printf("address=%s\n", addr.String())
}
