package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/urfave/cli/v2"

	"github.com/Klingon-tech/xecwallet/internal/wallet"
	"github.com/Klingon-tech/xecwallet/pkg/types"
)

func tokenCommand() *cli.Command {
	messageFlag := &cli.StringFlag{Name: "message", Usage: "attach an OP_RETURN message"}
	return &cli.Command{
		Name:  "token",
		Usage: "ALP token operations",
		Subcommands: []*cli.Command{
			{Name: "list", Usage: "List tokens held by the wallet", Action: cmdTokenList},
			{Name: "balance", Usage: "Show the balance of one token", ArgsUsage: "<token-id>", Action: cmdTokenBalance},
			{Name: "info", Usage: "Show token metadata and supply", ArgsUsage: "<token-id>", Action: cmdTokenInfo},
			{Name: "batons", Usage: "List mint batons held by the wallet", Action: cmdTokenBatons},
			{
				Name:      "send",
				Usage:     "Send tokens to one address",
				ArgsUsage: "<token-id> <address> <amount>",
				Action:    cmdTokenSend,
				Flags:     []cli.Flag{messageFlag},
			},
			{
				Name:      "sendmany",
				Usage:     "Send tokens to several addresses",
				ArgsUsage: "<token-id> <address=amount>...",
				Action:    cmdTokenSendMany,
				Flags:     []cli.Flag{messageFlag},
			},
			{
				Name:   "create",
				Usage:  "Issue a new token",
				Action: cmdTokenCreate,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "ticker", Required: true},
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringFlag{Name: "url"},
					&cli.UintFlag{Name: "decimals"},
					&cli.StringFlag{Name: "quantity", Usage: "initial supply"},
					&cli.BoolFlag{Name: "fixed", Usage: "fixed supply, no mint baton"},
				},
			},
			{Name: "mint", Usage: "Mint more of a token", ArgsUsage: "<token-id> <amount>", Action: cmdTokenMint},
			{Name: "burn", Usage: "Destroy tokens", ArgsUsage: "<token-id> <amount>", Action: cmdTokenBurn},
			{
				Name:      "holders",
				Usage:     "List the holders of a token",
				ArgsUsage: "<token-id>",
				Action:    cmdTokenHolders,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "min", Usage: "minimum token balance"},
					&cli.BoolFlag{Name: "ignore-creator", Usage: "exclude the token creator"},
				},
			},
		},
	}
}

// tokenArg parses the first positional argument as a token id and checks
// the argument count.
func tokenArg(c *cli.Context, want int, usage string) (chainhash.Hash, error) {
	if c.NArg() < want {
		return chainhash.Hash{}, fmt.Errorf("usage: xecwallet-cli token %s", usage)
	}
	id, err := types.ParseHash(c.Args().First())
	if err != nil {
		return chainhash.Hash{}, fmt.Errorf("invalid token id: %w", err)
	}
	return id, nil
}

// tokenDecimals looks up the decimals needed to parse display amounts.
func tokenDecimals(ctx context.Context, w *wallet.Wallet, id chainhash.Hash) (uint32, error) {
	info, err := w.TokenInfo(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("token %s: %w", id, err)
	}
	return info.Decimals, nil
}

var cmdTokenList = withWallet(func(ctx context.Context, _ *cli.Context, s *session) error {
	holdings, err := s.wallet.ListTokens(ctx)
	if err != nil {
		return err
	}
	if len(holdings) == 0 {
		fmt.Println("No tokens.")
		return nil
	}
	for _, h := range holdings {
		info, _ := s.wallet.TokenInfoOrUnknown(ctx, h.TokenID)
		fmt.Printf("%-10s %20s  %s\n", info.Ticker, wallet.FormatAmount(h.Atoms, info.Decimals), h.TokenID)
	}
	return nil
})

var cmdTokenBalance = withWallet(func(ctx context.Context, c *cli.Context, s *session) error {
	id, err := tokenArg(c, 1, "balance <token-id>")
	if err != nil {
		return err
	}
	bal, err := s.wallet.TokenBalance(ctx, id)
	if err != nil {
		return err
	}
	info, _ := s.wallet.TokenInfoOrUnknown(ctx, id)
	fmt.Printf("%s %s (%d UTXOs)\n", wallet.FormatAmount(bal.Atoms, info.Decimals), info.Ticker, len(bal.Utxos))
	return nil
})

var cmdTokenInfo = withWallet(func(ctx context.Context, c *cli.Context, s *session) error {
	id, err := tokenArg(c, 1, "info <token-id>")
	if err != nil {
		return err
	}
	info, err := s.wallet.TokenInfo(ctx, id)
	if err != nil {
		return err
	}
	fmt.Printf("Token ID:     %s\n", info.TokenID)
	fmt.Printf("Ticker:       %s\n", info.Ticker)
	fmt.Printf("Name:         %s\n", info.Name)
	fmt.Printf("Decimals:     %d\n", info.Decimals)
	if info.URL != "" {
		fmt.Printf("URL:          %s\n", info.URL)
	}
	fmt.Printf("Genesis:      %s\n", wallet.FormatAmount(info.GenesisSupply, info.Decimals))
	fmt.Printf("Circulating:  %s\n", wallet.FormatAmount(info.CirculatingSupply, info.Decimals))
	return nil
})

var cmdTokenBatons = withWallet(func(ctx context.Context, _ *cli.Context, s *session) error {
	batons, err := s.wallet.MintBatons(ctx)
	if err != nil {
		return err
	}
	if len(batons) == 0 {
		fmt.Println("No mint batons.")
		return nil
	}
	for _, b := range batons {
		fmt.Printf("%s  %s\n", b.TokenID, b.Utxo.Outpoint)
	}
	return nil
})

var cmdTokenSend = withWallet(func(ctx context.Context, c *cli.Context, s *session) error {
	id, err := tokenArg(c, 3, "send <token-id> <address> <amount>")
	if err != nil {
		return err
	}
	dec, err := tokenDecimals(ctx, s.wallet, id)
	if err != nil {
		return err
	}
	txid, err := s.wallet.SendToken(ctx, id, c.Args().Get(1), c.Args().Get(2), dec, c.String("message"))
	if err != nil {
		return err
	}
	fmt.Printf("Submitted: %s\n", txid)
	return nil
})

var cmdTokenSendMany = withWallet(func(ctx context.Context, c *cli.Context, s *session) error {
	id, err := tokenArg(c, 2, "sendmany <token-id> <address=amount>...")
	if err != nil {
		return err
	}
	var recipients []wallet.Recipient
	for _, arg := range c.Args().Tail() {
		addr, amount, ok := strings.Cut(arg, "=")
		if !ok {
			return fmt.Errorf("recipient %q: want address=amount", arg)
		}
		recipients = append(recipients, wallet.Recipient{Address: addr, Amount: amount})
	}
	dec, err := tokenDecimals(ctx, s.wallet, id)
	if err != nil {
		return err
	}
	res, err := s.wallet.SendTokenToMany(ctx, id, recipients, dec, c.String("message"))
	if err != nil {
		return err
	}
	fmt.Printf("Submitted: %s (%d recipients)\n", res.TxID, res.RecipientsCount)
	return nil
})

var cmdTokenCreate = withWallet(func(ctx context.Context, c *cli.Context, s *session) error {
	res, err := s.wallet.CreateToken(ctx, wallet.GenesisParams{
		Ticker:      c.String("ticker"),
		Name:        c.String("name"),
		URL:         c.String("url"),
		Decimals:    uint32(c.Uint("decimals")),
		Quantity:    c.String("quantity"),
		FixedSupply: c.Bool("fixed"),
	})
	if err != nil {
		return err
	}
	fmt.Printf("Token %s created\n", res.Ticker)
	fmt.Printf("Token ID: %s\n", res.TokenID)
	return nil
})

var cmdTokenMint = withWallet(func(ctx context.Context, c *cli.Context, s *session) error {
	id, err := tokenArg(c, 2, "mint <token-id> <amount>")
	if err != nil {
		return err
	}
	dec, err := tokenDecimals(ctx, s.wallet, id)
	if err != nil {
		return err
	}
	txid, err := s.wallet.MintToken(ctx, id, c.Args().Get(1), dec)
	if err != nil {
		return err
	}
	fmt.Printf("Submitted: %s\n", txid)
	return nil
})

var cmdTokenBurn = withWallet(func(ctx context.Context, c *cli.Context, s *session) error {
	id, err := tokenArg(c, 2, "burn <token-id> <amount>")
	if err != nil {
		return err
	}
	dec, err := tokenDecimals(ctx, s.wallet, id)
	if err != nil {
		return err
	}
	txid, err := s.wallet.BurnToken(ctx, id, c.Args().Get(1), dec)
	if err != nil {
		return err
	}
	fmt.Printf("Submitted: %s\n", txid)
	return nil
})

var cmdTokenHolders = withWallet(func(ctx context.Context, c *cli.Context, s *session) error {
	id, err := tokenArg(c, 1, "holders <token-id>")
	if err != nil {
		return err
	}
	dec, err := tokenDecimals(ctx, s.wallet, id)
	if err != nil {
		return err
	}
	set, err := s.wallet.CalculateAirdropHolders(ctx, id, c.String("min"), c.Bool("ignore-creator"), dec)
	if err != nil {
		return err
	}
	printHolders(set, dec)
	return nil
})

func printHolders(set *wallet.HolderSet, decimals uint32) {
	for _, h := range set.Holders {
		fmt.Printf("%-56s %s\n", h.Address, wallet.FormatAmount(h.Atoms, decimals))
	}
	fmt.Printf("%d holders, supply %s\n", len(set.Holders), wallet.FormatAmount(set.TotalSupply, decimals))
}

var cmdAirdrop = withWallet(func(ctx context.Context, c *cli.Context, s *session) error {
	if c.NArg() != 2 {
		return fmt.Errorf("usage: xecwallet-cli airdrop <token-id> <amount>")
	}
	id, err := types.ParseHash(c.Args().First())
	if err != nil {
		return fmt.Errorf("invalid token id: %w", err)
	}
	mode, err := wallet.ParseAirdropMode(c.String("mode"))
	if err != nil {
		return err
	}
	dec, err := tokenDecimals(ctx, s.wallet, id)
	if err != nil {
		return err
	}

	if c.Bool("dry-run") {
		set, err := s.wallet.CalculateAirdropHolders(ctx, id, c.String("min"), c.Bool("ignore-creator"), dec)
		if err != nil {
			return err
		}
		printHolders(set, dec)
		return nil
	}

	res, err := s.wallet.Airdrop(ctx, wallet.AirdropRequest{
		TokenID:       id,
		Pool:          c.Args().Get(1),
		Mode:          mode,
		IgnoreCreator: c.Bool("ignore-creator"),
		MinEligible:   c.String("min"),
		Decimals:      dec,
		Message:       c.String("message"),
	})
	if err != nil {
		return err
	}
	fmt.Printf("Submitted: %s\n", res.TxID)
	fmt.Printf("Mode: %s, paid %d of %d holders, %s XEC distributed\n",
		res.Mode, res.RecipientsCount, res.HoldersCount, xec(res.Distributed))
	return nil
})
