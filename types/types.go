package types

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ConnectionState is the state of the wallet session.
type ConnectionState int

const (
	Disconnected ConnectionState = iota
	Connecting
	Connected
)

func (s ConnectionState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	}
	return fmt.Sprintf("ConnectionState(%d)", int(s))
}

// MarshalText makes the state readable on JSON responses.
func (s ConnectionState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *ConnectionState) UnmarshalText(data []byte) error {
	for _, st := range []ConnectionState{Disconnected, Connecting, Connected} {
		if st.String() == string(data) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown connection state %q", data)
}

// Operation is a state changing call against the voting contract.
type Operation int

const (
	RegisterCandidate Operation = iota
	RegisterVoter
	CastVote
)

func (o Operation) String() string {
	switch o {
	case RegisterCandidate:
		return "registerCandidate"
	case RegisterVoter:
		return "registerVoter"
	case CastVote:
		return "castVote"
	}
	return fmt.Sprintf("Operation(%d)", int(o))
}

// MarshalText makes the operation readable on JSON responses.
func (o Operation) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

func (o *Operation) UnmarshalText(data []byte) error {
	for _, op := range []Operation{RegisterCandidate, RegisterVoter, CastVote} {
		if op.String() == string(data) {
			*o = op
			return nil
		}
	}
	return fmt.Errorf("unknown operation %q", data)
}

// Collection identifies one of the cached entity sets.
type Collection int

const (
	Candidates Collection = iota
	Voters
)

func (c Collection) String() string {
	switch c {
	case Candidates:
		return "candidates"
	case Voters:
		return "voters"
	}
	return fmt.Sprintf("Collection(%d)", int(c))
}

// ParseCollection returns the collection named s.
func ParseCollection(s string) (Collection, error) {
	switch s {
	case "candidates":
		return Candidates, nil
	case "voters":
		return Voters, nil
	}
	return 0, fmt.Errorf("unknown collection %q", s)
}

// Affects returns the collections whose on-chain state is changed by the operation.
func (o Operation) Affects() []Collection {
	switch o {
	case RegisterCandidate:
		return []Collection{Candidates}
	case RegisterVoter:
		return []Collection{Voters}
	case CastVote:
		return []Collection{Candidates, Voters}
	}
	return nil
}

// Session is the connected account as seen by the session manager.
type Session struct {
	Address *common.Address `json:"address,omitempty"`
	State   ConnectionState `json:"state"`
}

// Candidate mirrors a registered candidate. VoteCount only changes with confirmed votes.
type Candidate struct {
	ID          *BigInt        `json:"id"`
	Address     common.Address `json:"address"`
	Name        string         `json:"name"`
	Age         *BigInt        `json:"age"`
	ImageURL    string         `json:"image"`
	VoteCount   *BigInt        `json:"voteCount"`
	MetadataURL string         `json:"metadata"`
}

// Voter mirrors an authorized voter.
type Voter struct {
	ID          *BigInt        `json:"id"`
	Name        string         `json:"name"`
	Address     common.Address `json:"address"`
	ImageURL    string         `json:"image"`
	MetadataURL string         `json:"metadata"`
	Allowed     bool           `json:"allowed"`
	HasVoted    bool           `json:"hasVoted"`
}

// Stats aggregates the voter participation of the election.
type Stats struct {
	CandidateCount uint64  `json:"candidateCount"`
	VoterCount     uint64  `json:"voterCount"`
	Voted          uint64  `json:"voted"`
	NotVoted       uint64  `json:"notVoted"`
	Progress       float64 `json:"progress"`
}

// UploadResult is the opaque locator returned by the content storage.
type UploadResult struct {
	Locator string `json:"locator"`
}

// PendingTransaction is a submitted transaction still waiting for its receipt.
type PendingTransaction struct {
	ID          string      `json:"id"`
	Kind        Operation   `json:"kind"`
	SubmittedAt time.Time   `json:"submittedAt"`
	TxHash      common.Hash `json:"txHash"`
}

// EntityMetadata is the off-chain document uploaded along with a registration.
type EntityMetadata struct {
	Kind      string         `json:"kind"`
	Name      string         `json:"name"`
	Address   common.Address `json:"address"`
	Age       int            `json:"age,omitempty"`
	Image     string         `json:"image"`
	CreatedAt time.Time      `json:"createdAt"`
}
