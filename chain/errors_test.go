package chain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core"
	qt "github.com/frankban/quicktest"

	"go.vocdoni.io/ballot/chain/chaintest"
	"go.vocdoni.io/ballot/types"
)

type codedError struct {
	code int
	msg  string
}

func (e *codedError) Error() string  { return e.msg }
func (e *codedError) ErrorCode() int { return e.code }

type dataError struct {
	msg  string
	data interface{}
}

func (e *dataError) Error() string          { return e.msg }
func (e *dataError) ErrorCode() int         { return 3 }
func (e *dataError) ErrorData() interface{} { return e.data }

func TestClassifyError(t *testing.T) {
	rejected := &types.ContractRejectedError{Reason: "kept"}
	tests := []struct {
		name   string
		err    error
		kind   string
		reason string
	}{
		{"nil", nil, "", ""},
		{"wallet code", &codedError{code: 4001, msg: "denied"}, types.KindUserRejected, ""},
		{"wallet message", errors.New("MetaMask Tx Signature: User denied transaction signature."), types.KindUserRejected, ""},
		{"insufficient funds sentinel", fmt.Errorf("wrapped: %w", core.ErrInsufficientFunds), types.KindInsufficientFunds, ""},
		{"insufficient funds message", errors.New("err: insufficient funds for gas * price + value"), types.KindInsufficientFunds, ""},
		{"revert data", &dataError{
			msg:  "execution reverted: candidate exists",
			data: hexutil.Encode(chaintest.RevertData("candidate exists")),
		}, types.KindContractRejected, "candidate exists"},
		{"revert message", errors.New("execution reverted: too young"), types.KindContractRejected, "too young"},
		{"plain revert", errors.New("execution reverted"), types.KindContractRejected, ""},
		{"already classified", rejected, types.KindContractRejected, "kept"},
		{"deadline", context.DeadlineExceeded, types.KindTransientNetworkError, ""},
		{"connection", errors.New("dial tcp: connection refused"), types.KindTransientNetworkError, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ClassifyError(tt.err)
			qt.Assert(t, types.Kind(err), qt.Equals, tt.kind)
			if tt.kind == types.KindContractRejected {
				var cr *types.ContractRejectedError
				qt.Assert(t, errors.As(err, &cr), qt.IsTrue)
				qt.Assert(t, cr.Reason, qt.Equals, tt.reason)
			}
		})
	}
}

func TestClassifyErrorKeepsSentinels(t *testing.T) {
	err := ClassifyError(fmt.Errorf("signing: %w", types.ErrUserRejected))
	qt.Assert(t, errors.Is(err, types.ErrUserRejected), qt.IsTrue)
	err = ClassifyError(types.ErrWalletUnavailable)
	qt.Assert(t, err, qt.Equals, types.ErrWalletUnavailable)
}
