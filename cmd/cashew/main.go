package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/cashewlabs/cashew/wallet"
	"github.com/cashewlabs/cashew/wallet/storage"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

var cashew *wallet.Wallet

func walletPath() string {
	homedir, err := os.UserHomeDir()
	if err != nil {
		log.Fatal(err)
	}

	path := filepath.Join(homedir, ".cashew", "wallet")
	err = os.MkdirAll(path, 0700)
	if err != nil {
		log.Fatal(err)
	}
	return path
}

func setupWallet(ctx *cli.Context) error {
	path := walletPath()

	envPath := filepath.Join(path, ".env")
	if _, err := os.Stat(envPath); err != nil {
		wd, err := os.Getwd()
		if err == nil {
			envPath = filepath.Join(wd, ".env")
		}
	}
	godotenv.Load(envPath)

	var db storage.DB
	var err error
	if os.Getenv("CASHEW_STORAGE") == "sqlite" {
		db, err = storage.InitSQLite(path)
	} else {
		db, err = storage.InitBolt(path)
	}
	if err != nil {
		printErr(err)
	}

	config := wallet.Config{WalletPath: path}
	if verbose, _ := strconv.ParseBool(os.Getenv("CASHEW_DEBUG")); verbose {
		logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
		config.Logger = &logger
	}

	cashew, err = wallet.NewWallet(db, config)
	if err != nil {
		printErr(err)
	}
	return nil
}

func main() {
	app := &cli.App{
		Name:  "cashew",
		Usage: "cashu ecash wallet",
		Commands: []*cli.Command{
			balanceCmd,
			mintCmd,
			sendCmd,
			receiveCmd,
			payCmd,
			mintsCmd,
			historyCmd,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 1*time.Minute)
}

var balanceCmd = &cli.Command{
	Name:   "balance",
	Before: setupWallet,
	Action: getBalance,
}

func getBalance(ctx *cli.Context) error {
	c, cancel := opCtx()
	defer cancel()

	// reconcile with each mint before trusting local proofs
	mints, err := cashew.Mints()
	if err != nil {
		printErr(err)
	}
	for _, mint := range mints {
		if _, err := cashew.SweepSpent(c, mint.URL); err != nil {
			fmt.Fprintf(os.Stderr, "could not check proofs with %v: %v\n", mint.URL, err)
		}
	}

	balances, err := cashew.Balances()
	if err != nil {
		printErr(err)
	}
	if len(balances) == 0 {
		fmt.Println("0 sats")
		return nil
	}
	for unit, balance := range balances {
		fmt.Printf("%v %v\n", balance, unit)
	}
	return nil
}

const quoteFlag = "quote"

var mintCmd = &cli.Command{
	Name:   "mint",
	Usage:  "request a mint quote, or check one and claim the ecash",
	Before: setupWallet,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  quoteFlag,
			Usage: "check a previously created quote and mint ecash if paid",
		},
	},
	Action: mint,
}

func mint(ctx *cli.Context) error {
	c, cancel := opCtx()
	defer cancel()

	if ctx.IsSet(quoteFlag) {
		invoice, err := cashew.CheckQuote(c, ctx.String(quoteFlag))
		if err != nil {
			printErr(err)
		}
		fmt.Printf("quote state: %v\n", invoice.State)
		return nil
	}

	args := ctx.Args()
	if args.Len() < 1 {
		printErr(errors.New("specify an amount to mint"))
	}
	amount, err := strconv.ParseUint(args.First(), 10, 64)
	if err != nil {
		printErr(errors.New("invalid amount"))
	}

	invoice, err := cashew.RequestMint(c, amount, "", "")
	if err != nil {
		printErr(err)
	}

	fmt.Printf("invoice: %v\n\n", invoice.Bolt11)
	fmt.Printf("after paying the invoice, run 'cashew mint --quote %v' to claim the ecash\n",
		invoice.QuoteId)
	return nil
}

var sendCmd = &cli.Command{
	Name:   "send",
	Before: setupWallet,
	Action: send,
}

func send(ctx *cli.Context) error {
	c, cancel := opCtx()
	defer cancel()

	args := ctx.Args()
	if args.Len() < 1 {
		printErr(errors.New("specify an amount to send"))
	}
	amount, err := strconv.ParseUint(args.First(), 10, 64)
	if err != nil {
		printErr(errors.New("invalid amount"))
	}

	token, err := cashew.Send(c, amount, "", "")
	if err != nil {
		printErr(err)
	}
	fmt.Println(token)
	return nil
}

var receiveCmd = &cli.Command{
	Name:   "receive",
	Before: setupWallet,
	Action: receive,
}

func receive(ctx *cli.Context) error {
	c, cancel := opCtx()
	defer cancel()

	args := ctx.Args()
	if args.Len() < 1 {
		printErr(errors.New("cashu token not provided"))
	}

	amount, err := cashew.Receive(c, args.First())
	if err != nil {
		printErr(err)
	}
	fmt.Printf("%v received\n", amount)
	return nil
}

var payCmd = &cli.Command{
	Name:   "pay",
	Usage:  "pay a bolt11 invoice with ecash",
	Before: setupWallet,
	Action: pay,
}

func pay(ctx *cli.Context) error {
	c, cancel := opCtx()
	defer cancel()

	args := ctx.Args()
	if args.Len() < 1 {
		printErr(errors.New("specify a bolt11 invoice to pay"))
	}

	meltResponse, err := cashew.Melt(c, args.First(), "", "")
	if err != nil {
		printErr(err)
	}
	fmt.Printf("payment state: %v\n", meltResponse.State)
	if meltResponse.Preimage != "" {
		fmt.Printf("preimage: %v\n", meltResponse.Preimage)
	}
	return nil
}

var mintsCmd = &cli.Command{
	Name:   "mints",
	Usage:  "manage configured mints",
	Before: setupWallet,
	Subcommands: []*cli.Command{
		{
			Name:   "add",
			Action: addMint,
		},
		{
			Name:   "remove",
			Action: removeMint,
		},
		{
			Name:   "list",
			Action: listMints,
		},
		{
			Name:   "use",
			Usage:  "set the active mint",
			Action: useMint,
		},
	},
}

func addMint(ctx *cli.Context) error {
	c, cancel := opCtx()
	defer cancel()

	args := ctx.Args()
	if args.Len() < 1 {
		printErr(errors.New("specify a mint url"))
	}
	alias := args.Get(1)

	mint, err := cashew.AddMint(c, args.First(), alias)
	if err != nil {
		printErr(err)
	}
	fmt.Printf("added mint %v (units: %v)\n", mint.URL, mint.Units)
	return nil
}

func removeMint(ctx *cli.Context) error {
	args := ctx.Args()
	if args.Len() < 1 {
		printErr(errors.New("specify a mint url"))
	}
	if err := cashew.RemoveMint(args.First()); err != nil {
		printErr(err)
	}
	return nil
}

func listMints(ctx *cli.Context) error {
	mints, err := cashew.Mints()
	if err != nil {
		printErr(err)
	}

	activeMint, _, err := cashew.ActiveSelection()
	if err != nil {
		printErr(err)
	}

	for _, mint := range mints {
		marker := " "
		if mint.URL == activeMint {
			marker = "*"
		}
		fmt.Printf("%v %v", marker, mint.URL)
		if mint.Alias != "" {
			fmt.Printf(" (%v)", mint.Alias)
		}
		fmt.Println()
	}
	return nil
}

func useMint(ctx *cli.Context) error {
	args := ctx.Args()
	if args.Len() < 1 {
		printErr(errors.New("specify a mint url"))
	}
	if err := cashew.SetActiveMint(args.First(), args.Get(1)); err != nil {
		printErr(err)
	}
	return nil
}

var historyCmd = &cli.Command{
	Name:   "history",
	Before: setupWallet,
	Action: history,
}

func history(ctx *cli.Context) error {
	transactions, err := cashew.History("", "")
	if err != nil {
		printErr(err)
	}

	for _, tx := range transactions {
		direction := "received"
		if tx.Direction == storage.Out {
			direction = "sent"
		}
		timestamp := time.Unix(tx.Timestamp, 0).Format("2006-01-02 15:04")
		fmt.Printf("%v  %v %v %v  %v\n", timestamp, direction, tx.Amount, tx.Unit, tx.State)
	}
	return nil
}

func printErr(msg error) {
	fmt.Println(msg.Error())
	os.Exit(1)
}
