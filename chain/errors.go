package chain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core"
	"github.com/ethereum/go-ethereum/rpc"

	"go.vocdoni.io/ballot/types"
)

// userRejectedCode is the EIP-1193 code returned by wallets when the user denies a request.
const userRejectedCode = 4001

const revertPrefix = "execution reverted"

// ClassifyError maps an error returned by the node or the wallet to the error taxonomy.
// Errors already classified are returned untouched.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}
	switch types.Kind(err) {
	case types.KindUnknown, types.KindTransientNetworkError:
	default:
		return err
	}

	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == userRejectedCode {
		return fmt.Errorf("%w: %v", types.ErrUserRejected, err)
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "user rejected"), strings.Contains(msg, "user denied"):
		return fmt.Errorf("%w: %v", types.ErrUserRejected, err)
	case errors.Is(err, core.ErrInsufficientFunds),
		errors.Is(err, core.ErrInsufficientFundsForTransfer),
		strings.Contains(msg, "insufficient funds"):
		return fmt.Errorf("%w: %v", types.ErrInsufficientFunds, err)
	}
	if reason, ok := revertReason(err); ok {
		return &types.ContractRejectedError{Reason: reason}
	}
	if errors.Is(err, types.ErrTransientNetwork) {
		return err
	}
	// context deadlines, dropped connections and anything else the node reports
	return fmt.Errorf("%w: %v", types.ErrTransientNetwork, err)
}

// revertReason extracts the revert reason of err, if err is a revert.
func revertReason(err error) (string, bool) {
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if s, ok := dataErr.ErrorData().(string); ok {
			if data, derr := hexutil.Decode(s); derr == nil {
				if reason, uerr := abi.UnpackRevert(data); uerr == nil {
					return reason, true
				}
				if len(data) > 0 {
					return reasonFromMessage(dataErr.Error()), true
				}
			}
		}
	}
	msg := err.Error()
	if i := strings.Index(strings.ToLower(msg), revertPrefix); i >= 0 {
		return reasonFromMessage(msg[i:]), true
	}
	return "", false
}

// reasonFromMessage turns "... execution reverted: reason" into "reason".
func reasonFromMessage(msg string) string {
	i := strings.Index(strings.ToLower(msg), revertPrefix)
	if i < 0 {
		return ""
	}
	reason := strings.TrimSpace(msg[i+len(revertPrefix):])
	return strings.TrimSpace(strings.TrimPrefix(reason, ":"))
}
