package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestKind(t *testing.T) {
	c := qt.New(t)
	for _, tc := range []struct {
		err  error
		want string
	}{
		{nil, ""},
		{fmt.Errorf("resolve: %w", ErrInvalidIdentityFormat), KindInvalidIdentityFormat},
		{ErrIdentityUnresolved, KindIdentityUnresolved},
		{NewValidationError("age", "must be at least 18"), KindValidationError},
		{fmt.Errorf("submit: %w", &ContractRejectedError{Reason: "already voted"}), KindContractRejected},
		{&UploadFailedError{Err: errors.New("connection refused")}, KindUploadFailed},
		{&GasEstimationFailedError{Err: ErrTransientNetwork}, KindGasEstimationFailed},
		{fmt.Errorf("sign: %w", ErrUserRejected), KindUserRejected},
		{ErrConfirmationTimeout, KindConfirmationTimeout},
		{errors.New("boom"), KindUnknown},
	} {
		c.Check(Kind(tc.err), qt.Equals, tc.want, qt.Commentf("%v", tc.err))
	}
}

func TestValidationErrorAs(t *testing.T) {
	err := fmt.Errorf("validate: %w", NewValidationError("age", ""))
	var verr *ValidationError
	qt.Assert(t, errors.As(err, &verr), qt.IsTrue)
	qt.Assert(t, verr.Field, qt.Equals, "age")
	qt.Assert(t, IsUserError(err), qt.IsTrue)
	qt.Assert(t, IsUserError(ErrTransientNetwork), qt.IsFalse)
}

func TestOperationAffects(t *testing.T) {
	qt.Assert(t, RegisterCandidate.Affects(), qt.DeepEquals, []Collection{Candidates})
	qt.Assert(t, RegisterVoter.Affects(), qt.DeepEquals, []Collection{Voters})
	qt.Assert(t, CastVote.Affects(), qt.DeepEquals, []Collection{Candidates, Voters})
}

func TestBigInt(t *testing.T) {
	a := NewBigInt(big.NewInt(300))
	j, err := a.MarshalText()
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, string(j), qt.Equals, "300")

	c := new(BigInt)
	qt.Assert(t, c.UnmarshalText([]byte("123")), qt.IsNil)
	qt.Assert(t, c.String(), qt.Equals, "123")
	qt.Assert(t, c.Cmp(a), qt.Equals, -1)
	qt.Assert(t, (*BigInt)(nil).Cmp(new(BigInt)), qt.Equals, 0)

	data, err := json.Marshal(Candidate{VoteCount: new(BigInt).SetUint64(12312312312312312312)})
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, string(data), qt.Contains, `"voteCount":"12312312312312312312"`)
}

func TestTextEnums(t *testing.T) {
	var s ConnectionState
	qt.Assert(t, json.Unmarshal([]byte(`"connected"`), &s), qt.IsNil)
	qt.Assert(t, s, qt.Equals, Connected)
	qt.Assert(t, json.Unmarshal([]byte(`"gone"`), &s), qt.ErrorMatches, `unknown connection state "gone"`)

	var p PendingTransaction
	qt.Assert(t, json.Unmarshal([]byte(`{"kind":"castVote"}`), &p), qt.IsNil)
	qt.Assert(t, p.Kind, qt.Equals, CastVote)
}
