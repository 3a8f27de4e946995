package account

import (
	"time"

	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/amirasaad/ledger/pkg/domain/money"
	accountsvc "github.com/amirasaad/ledger/pkg/service/account"
	"github.com/amirasaad/ledger/pkg/service/ledger"
	"github.com/amirasaad/ledger/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

// Routes registers HTTP routes for account and ledger operations.
//
// Routes:
//   - POST   /accounts                   : Open an account.
//   - GET    /accounts/:id               : Account snapshot.
//   - GET    /accounts/:id/balance       : Last committed balance.
//   - GET    /accounts/:id/transactions  : History, optionally ?since=RFC3339Nano.
//   - POST   /accounts/:id/deposit       : Deposit funds.
//   - POST   /accounts/:id/withdraw      : Withdraw funds.
//   - PATCH  /accounts/:id/status        : Block, unblock or close.
//   - POST   /transfers                  : Move funds between two accounts.
func Routes(app *fiber.App, ledgerSvc *ledger.Service, accountSvc *accountsvc.Service) {
	app.Post("/accounts", OpenAccount(accountSvc))
	app.Get("/accounts/:id", GetAccount(ledgerSvc))
	app.Get("/accounts/:id/balance", GetBalance(ledgerSvc))
	app.Get("/accounts/:id/transactions", GetTransactions(ledgerSvc))
	app.Post("/accounts/:id/deposit", Deposit(ledgerSvc))
	app.Post("/accounts/:id/withdraw", Withdraw(ledgerSvc))
	app.Patch("/accounts/:id/status", SetStatus(ledgerSvc))
	app.Post("/transfers", Transfer(ledgerSvc))
}

// OpenAccount returns a Fiber handler that provisions an account.
func OpenAccount(accountSvc *accountsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[OpenAccountRequest](c)
		if input == nil {
			return err // error response already written
		}
		typ := account.TypeChecking
		if input.Type != "" {
			if typ, err = account.ParseType(input.Type); err != nil {
				return common.ProblemDetailsJSON(c, "Invalid account type", err)
			}
		}
		initial := money.Zero
		if input.InitialBalance != "" {
			if initial, err = money.Parse(input.InitialBalance); err != nil {
				return common.ProblemDetailsJSON(c, "Invalid initial balance", err)
			}
		}
		a, err := accountSvc.Open(c.UserContext(), accountsvc.OpenRequest{
			OwnerRef:       uuid.MustParse(input.OwnerRef),
			Type:           typ,
			InitialBalance: initial,
		})
		if err != nil {
			log.Errorf("Failed to open account: %v", err)
			return common.ProblemDetailsJSON(c, "Failed to open account", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Account created", toAccountDTO(a))
	}
}

// GetAccount returns a Fiber handler for an account snapshot.
func GetAccount(ledgerSvc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok, err := common.ParseIDParam(c, "id")
		if !ok {
			return err
		}
		a, err := ledgerSvc.GetAccount(c.UserContext(), id)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to get account", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Account fetched", toAccountDTO(a))
	}
}

// GetBalance returns a Fiber handler for the account balance.
func GetBalance(ledgerSvc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok, err := common.ParseIDParam(c, "id")
		if !ok {
			return err
		}
		balance, err := ledgerSvc.GetBalance(c.UserContext(), id)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to get balance", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Balance fetched", BalanceDTO{
			AccountID: id.String(),
			Balance:   balance.String(),
		})
	}
}

// GetTransactions returns a Fiber handler listing an account's history.
func GetTransactions(ledgerSvc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok, err := common.ParseIDParam(c, "id")
		if !ok {
			return err
		}
		var since time.Time
		if raw := c.Query("since"); raw != "" {
			if since, err = time.Parse(time.RFC3339Nano, raw); err != nil {
				return common.ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid since", "since must be an RFC 3339 timestamp")
			}
		}
		txs, err := ledgerSvc.GetHistory(c.UserContext(), id, since)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to list transactions", err)
		}
		if txs == nil {
			txs = []*account.Transaction{}
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Transactions fetched", txs)
	}
}

// Deposit returns a Fiber handler for depositing funds.
func Deposit(ledgerSvc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok, err := common.ParseIDParam(c, "id")
		if !ok {
			return err
		}
		amount, ok, err := bindAmount(c)
		if !ok {
			return err
		}
		res, err := ledgerSvc.Deposit(c.UserContext(), id, amount)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to deposit", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Deposit successful", MutationDTO{
			Transaction: res.Transaction,
			Balance:     res.Balance.String(),
		})
	}
}

// Withdraw returns a Fiber handler for withdrawing funds.
func Withdraw(ledgerSvc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok, err := common.ParseIDParam(c, "id")
		if !ok {
			return err
		}
		amount, ok, err := bindAmount(c)
		if !ok {
			return err
		}
		res, err := ledgerSvc.Withdraw(c.UserContext(), id, amount)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to withdraw", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Withdrawal successful", MutationDTO{
			Transaction: res.Transaction,
			Balance:     res.Balance.String(),
		})
	}
}

// Transfer returns a Fiber handler for moving funds between accounts.
func Transfer(ledgerSvc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[TransferRequest](c)
		if input == nil {
			return err // error response already written
		}
		amount, err := money.Parse(input.Amount)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid amount", err)
		}
		res, err := ledgerSvc.Transfer(
			c.UserContext(),
			uuid.MustParse(input.SourceAccountID),
			uuid.MustParse(input.DestinationAccountID),
			amount,
		)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to transfer", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Transfer successful", TransferDTO{
			Transaction:        res.Transaction,
			SourceBalance:      res.SourceBalance.String(),
			DestinationBalance: res.DestinationBalance.String(),
		})
	}
}

// SetStatus returns a Fiber handler for account lifecycle changes.
func SetStatus(ledgerSvc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok, err := common.ParseIDParam(c, "id")
		if !ok {
			return err
		}
		input, err := common.BindAndValidate[StatusRequest](c)
		if input == nil {
			return err // error response already written
		}
		status, err := account.ParseStatus(input.Status)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid status", err)
		}
		a, err := ledgerSvc.SetStatus(c.UserContext(), id, status)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to change status", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Status changed", toAccountDTO(a))
	}
}

func bindAmount(c *fiber.Ctx) (money.Amount, bool, error) {
	input, err := common.BindAndValidate[AmountRequest](c)
	if input == nil {
		return money.Zero, false, err
	}
	amount, err := money.Parse(input.Amount)
	if err != nil {
		return money.Zero, false, common.ProblemDetailsJSON(c, "Invalid amount", err)
	}
	return amount, true, nil
}
