// Command xecwallet-cli is a single-key eCash wallet backed by Chronik.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/Klingon-tech/xecwallet/config"
	"github.com/Klingon-tech/xecwallet/internal/chronik"
	"github.com/Klingon-tech/xecwallet/internal/log"
	"github.com/Klingon-tech/xecwallet/internal/storage"
	"github.com/Klingon-tech/xecwallet/internal/token"
	"github.com/Klingon-tech/xecwallet/internal/wallet"
)

// mnemonicEnv holds the seed phrase when set, skipping the prompt.
const mnemonicEnv = "XECWALLET_MNEMONIC"

func main() {
	app := &cli.App{
		Name:  "xecwallet-cli",
		Usage: "eCash (XEC) and ALP token wallet",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "config file path"},
			&cli.StringFlag{Name: "datadir", Usage: "data directory"},
			&cli.StringFlag{Name: "network", Usage: "mainnet or testnet"},
			&cli.StringSliceFlag{Name: "chronik", Usage: "Chronik endpoint URL (repeatable)"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
			&cli.BoolFlag{Name: "log-json", Usage: "log as JSON"},
			&cli.StringFlag{Name: "metrics-addr", Usage: "serve Prometheus metrics on host:port"},
		},
		Commands: []*cli.Command{
			{
				Name:   "mnemonic",
				Usage:  "Generate a new 12-word seed phrase",
				Action: cmdMnemonic,
			},
			{
				Name:   "address",
				Usage:  "Show the wallet address",
				Action: cmdAddress,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "show-key", Usage: "also print the private key hex"},
				},
			},
			{
				Name:   "balance",
				Usage:  "Show the XEC balance",
				Action: cmdBalance,
			},
			{
				Name:   "max",
				Usage:  "Show the largest amount a single send can move",
				Action: cmdMax,
			},
			{
				Name:      "send",
				Usage:     "Send XEC",
				ArgsUsage: "<address> <amount>",
				Action:    cmdSend,
			},
			{
				Name:      "message",
				Usage:     "Post an OP_RETURN message",
				ArgsUsage: "<text>",
				Action:    cmdMessage,
			},
			tokenCommand(),
			{
				Name:      "airdrop",
				Usage:     "Distribute XEC to the holders of a token",
				ArgsUsage: "<token-id> <amount>",
				Action:    cmdAirdrop,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "mode", Value: "proportional", Usage: "proportional or equal"},
					&cli.BoolFlag{Name: "ignore-creator", Usage: "exclude the token creator"},
					&cli.StringFlag{Name: "min", Usage: "minimum token balance to qualify"},
					&cli.StringFlag{Name: "message", Usage: "attach an OP_RETURN message"},
					&cli.BoolFlag{Name: "dry-run", Usage: "list eligible holders without sending"},
				},
			},
			{
				Name:   "status",
				Usage:  "Show the Chronik endpoint and chain tip",
				Action: cmdStatus,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fatal("%v", err)
	}
}

// session is the per-command runtime: loaded config, client and wallet.
type session struct {
	cfg    *config.Config
	client *chronik.Client
	wallet *wallet.Wallet
	tokens *storage.BadgerDB
}

func (s *session) Close() {
	if s.tokens != nil {
		if err := s.tokens.Close(); err != nil {
			log.Storage.Warn().Err(err).Msg("Closing token cache failed")
		}
	}
}

// loadConfig resolves the global flags into a validated Config and
// initializes logging.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(&config.Flags{
		Network:     c.String("network"),
		DataDir:     c.String("datadir"),
		Config:      c.String("config"),
		ChronikURLs: c.StringSlice("chronik"),
		LogLevel:    c.String("log-level"),
		LogJSON:     c.Bool("log-json"),
		MetricsAddr: c.String("metrics-addr"),
		SetLogJSON:  c.IsSet("log-json"),
	})
	if err != nil {
		return nil, err
	}
	if err := log.Init(cfg.Log.Level, cfg.Log.JSON, cfg.Log.File); err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}
	return cfg, nil
}

// openSession loads config, connects to Chronik and unlocks the wallet.
func openSession(c *cli.Context) (*session, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}

	if cfg.Metrics.Addr != "" {
		startMetrics(cfg.Metrics.Addr)
	}

	client, err := chronik.New(chronik.Config{
		URLs:    cfg.Chronik.URLs,
		Timeout: cfg.Chronik.Timeout,
		RPS:     cfg.Chronik.RPS,
		InfoTTL: cfg.Chronik.InfoTTL,
	})
	if err != nil {
		return nil, err
	}

	s := &session{cfg: cfg, client: client}

	var wcfg wallet.Config
	if cfg.Cache.Enabled {
		db, err := storage.NewBadger(cfg.TokenCacheDir())
		if err != nil {
			// The cache is an optimisation; run without it.
			log.Storage.Warn().Err(err).Str("dir", cfg.TokenCacheDir()).Msg("Token cache unavailable")
		} else {
			s.tokens = db
			// cache.dir may be shared between networks.
			wcfg.Tokens = token.NewStore(storage.NewPrefixDB(db, []byte(string(cfg.Network)+"/")))
		}
	}

	phrase, err := readMnemonic()
	if err != nil {
		s.Close()
		return nil, err
	}
	keys, err := wallet.NewKeyMaterial(phrase, cfg.Address.Prefix)
	if err != nil {
		s.Close()
		return nil, err
	}
	w, err := wallet.New(keys, client, wcfg)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.wallet = w

	log.CLI.Debug().
		Str("network", string(cfg.Network)).
		Str("address", keys.Address().String()).
		Strs("chronik", cfg.Chronik.URLs).
		Msg("Wallet opened")
	return s, nil
}

// withWallet runs fn against an unlocked wallet.
func withWallet(fn func(ctx context.Context, c *cli.Context, s *session) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		s, err := openSession(c)
		if err != nil {
			return err
		}
		defer s.Close()
		return fn(c.Context, c, s)
	}
}

func startMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.CLI.Info().Str("addr", addr).Msg("Serving metrics")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.CLI.Error().Err(err).Msg("Metrics server stopped")
		}
	}()
}

// readMnemonic takes the phrase from the environment, else prompts for it
// without echo.
func readMnemonic() (string, error) {
	if m := os.Getenv(mnemonicEnv); m != "" {
		return m, nil
	}
	b, err := readPassword("Enter seed phrase: ")
	if err != nil {
		return "", fmt.Errorf("read seed phrase: %w", err)
	}
	return string(b), nil
}

func cmdMnemonic(c *cli.Context) error {
	m, err := wallet.GenerateMnemonic()
	if err != nil {
		return err
	}
	fmt.Println(m)
	fmt.Fprintln(os.Stderr, "Write these words down and keep them offline. Anyone with them controls the funds.")
	return nil
}

var cmdAddress = withWallet(func(_ context.Context, c *cli.Context, s *session) error {
	keys := s.wallet.Keys()
	fmt.Println(keys.Address().String())
	if c.Bool("show-key") {
		fmt.Printf("Private key: %s\n", keys.ExportPrivateKeyHex())
	}
	return nil
})

var cmdBalance = withWallet(func(ctx context.Context, _ *cli.Context, s *session) error {
	snap, err := s.wallet.Balance(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Spendable:    %s XEC (%d UTXOs)\n", xec(snap.SpendableValue), snap.PureValueCount)
	fmt.Printf("Token locked: %s XEC (%d UTXOs)\n", xec(snap.TokenLockedValue), snap.TokenUtxoCount)
	fmt.Printf("Total:        %s XEC\n", xec(snap.TotalValue))
	return nil
})

var cmdMax = withWallet(func(ctx context.Context, _ *cli.Context, s *session) error {
	sats, err := s.wallet.MaxSendAmount(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s XEC\n", xec(sats))
	return nil
})

var cmdSend = withWallet(func(ctx context.Context, c *cli.Context, s *session) error {
	if c.NArg() != 2 {
		return fmt.Errorf("usage: xecwallet-cli send <address> <amount>")
	}
	txid, err := s.wallet.SendXec(ctx, c.Args().Get(0), c.Args().Get(1))
	if err != nil {
		return err
	}
	fmt.Printf("Submitted: %s\n", txid)
	return nil
})

var cmdMessage = withWallet(func(ctx context.Context, c *cli.Context, s *session) error {
	if c.NArg() == 0 {
		return fmt.Errorf("usage: xecwallet-cli message <text>")
	}
	txid, err := s.wallet.SendMessage(ctx, strings.Join(c.Args().Slice(), " "))
	if err != nil {
		return err
	}
	fmt.Printf("Submitted: %s\n", txid)
	return nil
})

var cmdStatus = withWallet(func(ctx context.Context, _ *cli.Context, s *session) error {
	if err := s.client.CheckConnection(ctx); err != nil {
		return err
	}
	info, err := s.client.BlockchainInfo(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Network:  %s\n", s.cfg.Network)
	fmt.Printf("Chronik:  %s\n", strings.Join(s.client.URLs(), ", "))
	fmt.Printf("Height:   %d\n", info.TipHeight)
	fmt.Printf("Tip:      %s\n", info.TipHash)
	fmt.Printf("Address:  %s\n", s.wallet.Keys().Address())
	return nil
})

func xec(sats uint64) string {
	return wallet.FormatAmount(sats, wallet.XECDecimals)
}

func readPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
