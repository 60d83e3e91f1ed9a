package wallet

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/params"
	"github.com/fatih/color"
	ui "github.com/manifoldco/promptui"
	"golang.org/x/term"
)

var (
	keysPrint   = color.New(color.FgCyan, color.Bold)
	valuesPrint = color.New(color.FgMagenta)
)

// TerminalPrompter prompts the wallet owner on a terminal.
type TerminalPrompter struct {
	Stdin  *os.File
	Stdout io.Writer
	// Password, if set, is used instead of asking for the passphrase
	Password string
	// AutoConfirm signs every transaction without asking
	AutoConfirm bool
}

// NewTerminalPrompter returns a prompter using the process standard input and output.
func NewTerminalPrompter() *TerminalPrompter {
	return &TerminalPrompter{Stdin: os.Stdin, Stdout: os.Stdout}
}

// SelectAccount shows the account list and returns the chosen index.
func (p *TerminalPrompter) SelectAccount(accounts []common.Address) (int, error) {
	if len(accounts) == 1 {
		return 0, nil
	}
	items := make([]string, len(accounts))
	for i, a := range accounts {
		items[i] = a.Hex()
	}
	sel := ui.Select{
		Label: "Select an account",
		Items: items,
		Stdin: p.Stdin,
	}
	idx, _, err := sel.Run()
	if err != nil {
		return 0, uiError(err)
	}
	return idx, nil
}

// Passphrase reads the account passphrase without echo when stdin is a terminal.
func (p *TerminalPrompter) Passphrase(account common.Address) (string, error) {
	if p.Password != "" {
		return p.Password, nil
	}
	fmt.Fprintf(p.Stdout, "Passphrase for %s: ", account.Hex())
	if term.IsTerminal(int(p.Stdin.Fd())) {
		pass, err := term.ReadPassword(int(p.Stdin.Fd()))
		fmt.Fprintln(p.Stdout, "")
		if err != nil {
			return "", err
		}
		return string(pass), nil
	}
	// stdin is not a terminal (piped or tests), read a line
	line, err := bufio.NewReader(p.Stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	if errors.Is(err, io.EOF) && line == "" {
		return "", ErrAborted
	}
	return strings.TrimSpace(line), nil
}

// ConfirmTx prints the transaction and asks for confirmation.
func (p *TerminalPrompter) ConfirmTx(account common.Address, tx *ethtypes.Transaction, chainID *big.Int) (bool, error) {
	keysPrint.Fprint(p.Stdout, "from: ")
	valuesPrint.Fprintln(p.Stdout, account.Hex())
	if tx.To() != nil {
		keysPrint.Fprint(p.Stdout, "to: ")
		valuesPrint.Fprintln(p.Stdout, tx.To().Hex())
	}
	keysPrint.Fprint(p.Stdout, "chain: ")
	valuesPrint.Fprintln(p.Stdout, chainID)
	keysPrint.Fprint(p.Stdout, "gas limit: ")
	valuesPrint.Fprintln(p.Stdout, tx.Gas())
	keysPrint.Fprint(p.Stdout, "max fee (gwei): ")
	valuesPrint.Fprintln(p.Stdout, new(big.Int).Div(maxFee(tx), big.NewInt(params.GWei)))
	if p.AutoConfirm {
		return true, nil
	}
	confirm := ui.Prompt{
		Label:     "Sign and send this transaction",
		IsConfirm: true,
		Stdin:     p.Stdin,
	}
	if _, err := confirm.Run(); err != nil {
		if errors.Is(err, ui.ErrAbort) {
			return false, nil
		}
		return false, uiError(err)
	}
	return true, nil
}

func maxFee(tx *ethtypes.Transaction) *big.Int {
	return new(big.Int).Mul(tx.GasFeeCap(), new(big.Int).SetUint64(tx.Gas()))
}

func uiError(err error) error {
	if errors.Is(err, ui.ErrInterrupt) || errors.Is(err, ui.ErrAbort) || errors.Is(err, ui.ErrEOF) {
		return fmt.Errorf("%w: %v", ErrAborted, err)
	}
	return err
}
