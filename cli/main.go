package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/rs/zerolog"
	"github.com/urfave/cli"

	helloworld "github.com/bitspv/helloworld-token"
	"github.com/bitspv/helloworld-token/overlay"
	"github.com/bitspv/helloworld-token/wallet"
)

var log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
	With().Timestamp().Str("component", "cli").Logger()

func main() {
	app := cli.NewApp()
	app.Name = "helloworld"
	app.Usage = "issue, update, redeem and query helloworld tokens"

	app.Commands = []cli.Command{
		{
			Name:  "issue",
			Usage: "lock a message into a new token output",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "message, m", Usage: "message to embed"},
			},
			Action: issueCommand,
		},
		{
			Name:  "update",
			Usage: "replace a token's message",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "find, f", Usage: "current message of the token to spend"},
				cli.StringFlag{Name: "message, m", Usage: "replacement message"},
			},
			Action: updateCommand,
		},
		{
			Name:  "redeem",
			Usage: "spend a token with no replacement",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "find, f", Usage: "message of the token to redeem"},
			},
			Action: redeemCommand,
		},
		{
			Name:  "query",
			Usage: "list tokens from the lookup service",
			Flags: []cli.Flag{
				cli.IntFlag{Name: "limit, l", Value: 10},
				cli.IntFlag{Name: "skip, s", Value: 0},
				cli.StringFlag{Name: "sort", Value: "desc"},
				cli.StringFlag{Name: "message, m"},
				cli.StringFlag{Name: "start", Usage: "start date YYYY-MM-DD"},
				cli.StringFlag{Name: "end", Usage: "end date YYYY-MM-DD"},
			},
			Action: queryCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}

func buildClient() (*helloworld.Client, error) {
	cfg := helloworld.ConfigFromEnv()

	var w *wallet.Wallet
	var err error
	if cfg.WalletSeed != "" {
		w, err = wallet.FromMnemonic(cfg.WalletSeed, cfg.Network)
	} else {
		var priv *ec.PrivateKey
		priv, err = ec.NewPrivateKey()
		if err == nil {
			w, err = wallet.New(priv, cfg.Network)
		}
	}
	if err != nil {
		return nil, err
	}
	if cfg.FundingUTXOs != "" {
		utxos, err := wallet.LoadUTXOs(cfg.FundingUTXOs)
		if err != nil {
			return nil, err
		}
		for _, u := range utxos {
			w.AddUTXO(u)
		}
	}

	b, err := overlay.NewBroadcaster([]string{helloworld.BroadcastTopic}, cfg.Network, cfg.OverlayHosts...)
	if err != nil {
		return nil, err
	}
	resolver, err := overlay.NewResolver(cfg.Network, cfg.OverlayHosts...)
	if err != nil {
		return nil, err
	}
	return helloworld.NewClient(w, b, resolver)
}

func issueCommand(c *cli.Context) error {
	message := c.String("message")
	if message == "" {
		return fmt.Errorf("--message is required")
	}
	client, err := buildClient()
	if err != nil {
		return err
	}
	result, err := client.Issue(context.Background(), message)
	if err != nil {
		return err
	}
	return printBroadcast(result)
}

func updateCommand(c *cli.Context) error {
	find, message := c.String("find"), c.String("message")
	if find == "" || message == "" {
		return fmt.Errorf("--find and --message are required")
	}
	client, err := buildClient()
	if err != nil {
		return err
	}
	ctx := context.Background()
	prior, err := loadSpendable(ctx, client, find)
	if err != nil {
		return err
	}
	result, err := client.Update(ctx, prior, message)
	if err != nil {
		return err
	}
	return printBroadcast(result)
}

func redeemCommand(c *cli.Context) error {
	find := c.String("find")
	if find == "" {
		return fmt.Errorf("--find is required")
	}
	client, err := buildClient()
	if err != nil {
		return err
	}
	ctx := context.Background()
	prior, err := loadSpendable(ctx, client, find)
	if err != nil {
		return err
	}
	result, err := client.Redeem(ctx, prior)
	if err != nil {
		return err
	}
	return printBroadcast(result)
}

func queryCommand(c *cli.Context) error {
	client, err := buildClient()
	if err != nil {
		return err
	}
	tokens, err := client.Query(context.Background(), helloworld.QueryParams{
		Limit:     c.Int("limit"),
		Skip:      c.Int("skip"),
		SortOrder: helloworld.SortOrder(c.String("sort")),
		Message:   c.String("message"),
		StartDate: c.String("start"),
		EndDate:   c.String("end"),
	})
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(tokens, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// loadSpendable fetches the newest token carrying message, with its proof
// bundle attached so it can be spent.
func loadSpendable(ctx context.Context, client *helloworld.Client, message string) (*helloworld.Token, error) {
	tokens, err := client.Query(ctx, helloworld.QueryParams{
		Limit:       1,
		SortOrder:   helloworld.SortDescending,
		Message:     message,
		IncludeBeef: true,
	})
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("no token found with message %q", message)
	}
	return tokens[0], nil
}

func printBroadcast(result *helloworld.BroadcastResult) error {
	if result.Ok() {
		log.Info().Str("txid", result.Success.Txid).Msg(result.Success.Message)
		return nil
	}
	return result.Failure
}
