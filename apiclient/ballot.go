package apiclient

import (
	"math/big"

	"go.vocdoni.io/ballot/api"
	"go.vocdoni.io/ballot/transaction"
	"go.vocdoni.io/ballot/types"
)

// Candidates returns the cached candidates.
func (c *HTTPclient) Candidates() (*api.Candidates, error) {
	resp := &api.Candidates{}
	return resp, c.do(HTTPGET, nil, resp, "candidates")
}

// Voters returns the cached voters, only those that voted if voted is true.
func (c *HTTPclient) Voters(voted bool) (*api.Voters, error) {
	resp := &api.Voters{}
	p := []string{"voters"}
	if voted {
		p = append(p, "voted")
	}
	return resp, c.do(HTTPGET, nil, resp, p...)
}

// Stats returns the participation figures.
func (c *HTTPclient) Stats() (*types.Stats, error) {
	resp := &types.Stats{}
	return resp, c.do(HTTPGET, nil, resp, "stats")
}

// Pending returns the transactions waiting to be mined.
func (c *HTTPclient) Pending() ([]types.PendingTransaction, error) {
	resp := struct {
		Pending []types.PendingTransaction `json:"pending"`
	}{}
	return resp.Pending, c.do(HTTPGET, nil, &resp, "pending")
}

// Session returns the wallet session of the node.
func (c *HTTPclient) Session() (*api.SessionResponse, error) {
	resp := &api.SessionResponse{}
	return resp, c.do(HTTPGET, nil, resp, "session")
}

// Connect asks the node wallet to authorize an account.
func (c *HTTPclient) Connect() (*api.SessionResponse, error) {
	resp := &api.SessionResponse{}
	return resp, c.do(HTTPPOST, nil, resp, "session", "connect")
}

// RegisterCandidate submits a candidate registration and waits for it to be mined.
func (c *HTTPclient) RegisterCandidate(name, address string, age int, image []byte) (*api.Receipt, error) {
	resp := &api.Receipt{}
	return resp, c.do(HTTPPOST, transaction.Params{
		Name:    name,
		Address: address,
		Age:     age,
		Image:   image,
	}, resp, "candidates")
}

// RegisterVoter submits a voter authorization and waits for it to be mined.
func (c *HTTPclient) RegisterVoter(name, address string, image []byte) (*api.Receipt, error) {
	resp := &api.Receipt{}
	return resp, c.do(HTTPPOST, transaction.Params{
		Name:    name,
		Address: address,
		Image:   image,
	}, resp, "voters")
}

// Vote casts a vote for the candidate and waits for it to be mined.
func (c *HTTPclient) Vote(candidateAddress string, candidateID *big.Int) (*api.Receipt, error) {
	resp := &api.Receipt{}
	return resp, c.do(HTTPPOST, transaction.Params{
		CandidateAddress: candidateAddress,
		CandidateID:      candidateID,
	}, resp, "votes")
}

// Refresh asks the node to reload a collection.
func (c *HTTPclient) Refresh(collection types.Collection) error {
	return c.do(HTTPPOST, nil, nil, "refresh", collection.String())
}
