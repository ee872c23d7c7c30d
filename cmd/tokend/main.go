package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/iov-one/tokenflow"
	"github.com/iov-one/tokenflow/errors"
	"github.com/tendermint/tendermint/libs/log"
)

var (
	flagHome  = "home"
	flagDebug = "debug"
	varHome   *string
	varDebug  *bool
)

func init() {
	defaultHome := filepath.Join(os.ExpandEnv("$HOME"), ".tokend")
	varHome = flag.String(flagHome, defaultHome, "directory to store files under")
	varDebug = flag.Bool(flagDebug, false, "print debug logs")
}

func helpMessage() {
	fmt.Println("tokend")
	fmt.Println("        Two party token ledger")
	fmt.Println("")
	fmt.Println("help                            Print this message")
	fmt.Println("init                            Write a genesis file with new keys")
	fmt.Println("issue <issuer> <owner> <amount> Issue a token")
	fmt.Println("swap <amount> <owner> <new>     Move a token to a new owner")
	fmt.Println("query <account>                 Describe a token of an account")
	fmt.Println("version                         Print the app version")
	fmt.Println("")
	flag.PrintDefaults()
}

func main() {
	flag.Parse()
	logger := log.NewTMLogger(log.NewSyncWriter(os.Stdout)).
		With("module", "tokend")
	if *varDebug {
		logger = log.NewFilter(logger, log.AllowDebug())
	} else {
		logger = log.NewFilter(logger, log.AllowInfo())
	}

	if flag.NArg() == 0 {
		fmt.Println("Missing command:")
		helpMessage()
		os.Exit(1)
	}

	cmd := flag.Arg(0)
	rest := flag.Args()[1:]
	ctx := tokenflow.WithLogger(context.Background(), logger)

	var (
		out string
		err error
	)
	switch cmd {
	case "help":
		helpMessage()
		return
	case "version":
		fmt.Println(tokenflow.Version())
		return
	case "init":
		out, err = initCmd(*varHome)
	case "issue", "swap", "query":
		out, err = flowCmd(ctx, *varHome, cmd, rest)
	default:
		fmt.Printf("Unknown command: %s\n", cmd)
		helpMessage()
		os.Exit(1)
	}
	if err != nil {
		logger.Error("command failed", "cmd", cmd, "err", err)
		if out != "" {
			fmt.Println(out)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	fmt.Println(out)
}

func initCmd(home string) (string, error) {
	opts, err := genOptions()
	if err != nil {
		return "", err
	}
	path, err := writeGenesis(home, opts)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Genesis written to %s", path), nil
}

func flowCmd(ctx context.Context, home, cmd string, args []string) (string, error) {
	c, err := openCluster(ctx, home)
	if err != nil {
		return "", err
	}
	defer c.Close()

	switch cmd {
	case "issue":
		if len(args) != 3 {
			return "", errors.Wrap(errors.ErrInvalidInput, "usage: issue <issuer> <owner> <amount>")
		}
		amount, err := parseAmount(args[2])
		if err != nil {
			return "", err
		}
		n, err := c.hostOf(args[0])
		if err != nil {
			return "", err
		}
		return n.Issue(ctx, args[0], args[1], amount)
	case "swap":
		if len(args) != 3 {
			return "", errors.Wrap(errors.ErrInvalidInput, "usage: swap <amount> <owner> <newOwner>")
		}
		amount, err := parseAmount(args[0])
		if err != nil {
			return "", err
		}
		n, err := c.hostOf(args[1])
		if err != nil {
			return "", err
		}
		return n.Swap(ctx, amount, args[1], args[2])
	default:
		if len(args) != 1 {
			return "", errors.Wrap(errors.ErrInvalidInput, "usage: query <account>")
		}
		n, err := c.hostOf(args[0])
		if err != nil {
			return "", err
		}
		return n.QueryByAccount(ctx, args[0])
	}
}

func parseAmount(s string) (int64, error) {
	amount, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrInvalidAmount, "amount %q", s)
	}
	return amount, nil
}
