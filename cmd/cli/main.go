package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/amirasaad/ledger/infra/initializer"
	"github.com/amirasaad/ledger/pkg/app"
	"github.com/amirasaad/ledger/pkg/config"
	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/amirasaad/ledger/pkg/domain/money"
	accountsvc "github.com/amirasaad/ledger/pkg/service/account"
	log "github.com/charmbracelet/log"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"golang.org/x/term"
)

const usage = `Usage: cli <command> [arguments]
Commands:
  open [CHECKING|SAVINGS] [initial_balance] [owner_ref]
  deposit <account_id> <amount>
  withdraw <account_id> <amount>
  transfer <source_id> <destination_id> <amount>
  balance <account_id>
  history <account_id> [since RFC3339]
  status <account_id> <ACTIVE|BLOCKED|CLOSED>`

var errUsage = errors.New("invalid usage")

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	errColor  = color.New(color.FgRed, color.Bold)
	keyColor  = color.New(color.FgCyan)
	kindColor = map[account.Kind]*color.Color{
		account.KindDeposit:  color.New(color.FgGreen),
		account.KindWithdraw: color.New(color.FgYellow),
		account.KindTransfer: color.New(color.FgMagenta),
	}
)

func main() {
	color.NoColor = color.NoColor || !term.IsTerminal(int(os.Stdout.Fd()))

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(2)
	}
	if err := run(os.Args[1:]); err != nil {
		errColor.Fprintln(os.Stderr, "Error:", err) //nolint: errcheck
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, usage)
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("failed to load application configuration: %w", err)
	}
	cfg.Log.Level = int(log.WarnLevel)

	deps, err := initializer.InitializeDependencies(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	a := app.New(deps, cfg)
	defer a.Close() //nolint: errcheck

	return execute(context.Background(), a, args, os.Stdout)
}

// execute runs one command against a.
func execute(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, args := args[0], args[1:]

	switch cmd {
	case "open":
		req := accountsvc.OpenRequest{OwnerRef: uuid.New(), Type: account.TypeChecking}
		var err error
		if len(args) > 0 {
			if req.Type, err = account.ParseType(args[0]); err != nil {
				return err
			}
		}
		if len(args) > 1 {
			if req.InitialBalance, err = money.Parse(args[1]); err != nil {
				return err
			}
		}
		if len(args) > 2 {
			if req.OwnerRef, err = uuid.Parse(args[2]); err != nil {
				return fmt.Errorf("%w: owner_ref must be a UUID", errUsage)
			}
		}
		acc, err := a.AccountService.Open(ctx, req)
		if err != nil {
			return err
		}
		okColor.Fprint(out, "Account opened: ") //nolint: errcheck
		fmt.Fprintf(out, "%s %s %s balance=%s\n", keyColor.Sprint(acc.ID), acc.Type, acc.Status, acc.Balance)

	case "deposit", "withdraw":
		if len(args) != 2 {
			return errUsage
		}
		id, amount, err := idAndAmount(args[0], args[1])
		if err != nil {
			return err
		}
		op := a.LedgerService.Deposit
		if cmd == "withdraw" {
			op = a.LedgerService.Withdraw
		}
		res, err := op(ctx, id, amount)
		if err != nil {
			return err
		}
		printTransaction(out, res.Transaction)
		fmt.Fprintf(out, "New balance: %s\n", okColor.Sprint(res.Balance))

	case "transfer":
		if len(args) != 3 {
			return errUsage
		}
		src, err := parseID(args[0])
		if err != nil {
			return err
		}
		dst, amount, err := idAndAmount(args[1], args[2])
		if err != nil {
			return err
		}
		res, err := a.LedgerService.Transfer(ctx, src, dst, amount)
		if err != nil {
			return err
		}
		printTransaction(out, res.Transaction)
		fmt.Fprintf(out, "Source balance: %s\nDestination balance: %s\n",
			okColor.Sprint(res.SourceBalance), okColor.Sprint(res.DestinationBalance))

	case "balance":
		if len(args) != 1 {
			return errUsage
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		balance, err := a.LedgerService.GetBalance(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Account %s balance: %s\n", keyColor.Sprint(id), okColor.Sprint(balance))

	case "history":
		if len(args) < 1 || len(args) > 2 {
			return errUsage
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		var since time.Time
		if len(args) == 2 {
			if since, err = time.Parse(time.RFC3339Nano, args[1]); err != nil {
				return fmt.Errorf("%w: since must be RFC 3339", errUsage)
			}
		}
		txs, err := a.LedgerService.GetHistory(ctx, id, since)
		if err != nil {
			return err
		}
		if len(txs) == 0 {
			fmt.Fprintln(out, "No transactions")
		}
		for _, tx := range txs {
			printTransaction(out, tx)
		}

	case "status":
		if len(args) != 2 {
			return errUsage
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		status, err := account.ParseStatus(args[1])
		if err != nil {
			return err
		}
		acc, err := a.LedgerService.SetStatus(ctx, id, status)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Account %s is now %s\n", keyColor.Sprint(acc.ID), okColor.Sprint(acc.Status))

	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
	return nil
}

func parseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: account id must be a UUID", errUsage)
	}
	return id, nil
}

func idAndAmount(rawID, rawAmount string) (uuid.UUID, money.Amount, error) {
	id, err := parseID(rawID)
	if err != nil {
		return uuid.Nil, money.Zero, err
	}
	amount, err := money.Parse(rawAmount)
	if err != nil {
		return uuid.Nil, money.Zero, err
	}
	return id, amount, nil
}

func printTransaction(out io.Writer, tx *account.Transaction) {
	c, ok := kindColor[tx.Kind]
	if !ok {
		c = color.New(color.Reset)
	}
	fmt.Fprintf(out, "%s %-8s %10s %s",
		tx.Timestamp.Format(time.RFC3339Nano), c.Sprint(tx.Kind), tx.Amount, tx.Status)
	if tx.SourceAccountID != nil {
		fmt.Fprintf(out, " from=%s", *tx.SourceAccountID)
	}
	if tx.DestinationAccountID != nil {
		fmt.Fprintf(out, " to=%s", *tx.DestinationAccountID)
	}
	fmt.Fprintf(out, " id=%s\n", keyColor.Sprint(tx.ID))
}
