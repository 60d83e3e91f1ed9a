package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	psload "github.com/shirou/gopsutil/load"
	psmem "github.com/shirou/gopsutil/mem"
	psnet "github.com/shirou/gopsutil/net"

	"go.vocdoni.io/ballot/httprouter"
	"go.vocdoni.io/ballot/log"
	"go.vocdoni.io/ballot/transaction"
	"go.vocdoni.io/ballot/types"
)

const (
	healthMemMax   = 100
	healthLoadMax  = 10
	healthSocksMax = 10000
)

// Candidates is the response of GET /candidates
type Candidates struct {
	Candidates []types.Candidate `json:"candidates"`
	Count      uint64            `json:"count"`
	Loading    bool              `json:"loading"`
	Error      *Error            `json:"error,omitempty"`
}

// Voters is the response of GET /voters and GET /voters/voted
type Voters struct {
	Voters  []types.Voter `json:"voters"`
	Count   uint64        `json:"count"`
	Loading bool          `json:"loading"`
	Error   *Error        `json:"error,omitempty"`
}

// SessionResponse is the response of GET /session and POST /session/connect
type SessionResponse struct {
	types.Session
	VotingTitle string `json:"votingTitle"`
}

// Receipt is the response of a confirmed submission
type Receipt struct {
	TxHash      common.Hash `json:"txHash"`
	BlockNumber uint64      `json:"blockNumber"`
	GasUsed     uint64      `json:"gasUsed"`
}

// Health is the response of GET /health
type Health struct {
	Health int32 `json:"health"`
}

func collectionError(err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: types.Kind(err), Message: err.Error()}
}

func (a *API) candidatesHandler(w http.ResponseWriter, r *http.Request) {
	ctx := httprouter.NewHTTPContext(w, r)
	list := a.cache.Candidates()
	if list == nil {
		list = []types.Candidate{}
	}
	_ = ctx.SendJSON(Candidates{
		Candidates: list,
		Count:      a.cache.CandidateCount(),
		Loading:    a.cache.IsLoading(types.Candidates),
		Error:      collectionError(a.cache.Err(types.Candidates)),
	}, http.StatusOK)
}

func (a *API) votersHandler(w http.ResponseWriter, r *http.Request) {
	a.sendVoters(httprouter.NewHTTPContext(w, r), a.cache.Voters())
}

func (a *API) votedVotersHandler(w http.ResponseWriter, r *http.Request) {
	a.sendVoters(httprouter.NewHTTPContext(w, r), a.cache.VotedVoters())
}

func (a *API) sendVoters(ctx *httprouter.HTTPContext, list []types.Voter) {
	if list == nil {
		list = []types.Voter{}
	}
	_ = ctx.SendJSON(Voters{
		Voters:  list,
		Count:   a.cache.VoterCount(),
		Loading: a.cache.IsLoading(types.Voters),
		Error:   collectionError(a.cache.Err(types.Voters)),
	}, http.StatusOK)
}

func (a *API) statsHandler(w http.ResponseWriter, r *http.Request) {
	_ = httprouter.NewHTTPContext(w, r).SendJSON(a.cache.Stats(), http.StatusOK)
}

func (a *API) pendingHandler(w http.ResponseWriter, r *http.Request) {
	_ = httprouter.NewHTTPContext(w, r).SendJSON(struct {
		Pending []types.PendingTransaction `json:"pending"`
	}{a.submitter.Pending()}, http.StatusOK)
}

func (a *API) sessionHandler(w http.ResponseWriter, r *http.Request) {
	_ = httprouter.NewHTTPContext(w, r).SendJSON(SessionResponse{
		Session:     a.session.State(),
		VotingTitle: a.votingTitle,
	}, http.StatusOK)
}

func (a *API) connectHandler(w http.ResponseWriter, r *http.Request) {
	ctx := httprouter.NewHTTPContext(w, r)
	if _, err := a.session.Connect(r.Context()); err != nil {
		sendError(ctx, err)
		return
	}
	_ = ctx.SendJSON(SessionResponse{Session: a.session.State(), VotingTitle: a.votingTitle}, http.StatusOK)
}

func (a *API) submitHandler(op types.Operation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := httprouter.NewHTTPContext(w, r)
		body, err := io.ReadAll(io.LimitReader(r.Body, MaxRequestBodySize+1))
		if err != nil {
			sendError(ctx, fmt.Errorf("%w: %v", errMalformedBody, err))
			return
		}
		if len(body) > MaxRequestBodySize {
			sendError(ctx, types.NewValidationError("body",
				fmt.Sprintf("request body exceeds the %d bytes limit", MaxRequestBodySize)))
			return
		}
		var params transaction.Params
		if err := json.Unmarshal(body, &params); err != nil {
			sendError(ctx, fmt.Errorf("%w: %v", errMalformedBody, err))
			return
		}
		receipt, err := a.submitter.Submit(r.Context(), op, params)
		if err != nil {
			sendError(ctx, err)
			return
		}
		resp := Receipt{TxHash: receipt.TxHash, GasUsed: receipt.GasUsed}
		if receipt.BlockNumber != nil {
			resp.BlockNumber = receipt.BlockNumber.Uint64()
		}
		_ = ctx.SendJSON(resp, http.StatusOK)
	}
}

func (a *API) refreshHandler(w http.ResponseWriter, r *http.Request) {
	ctx := httprouter.NewHTTPContext(w, r)
	collection, err := types.ParseCollection(ctx.URLParam("collection"))
	if err != nil {
		sendError(ctx, fmt.Errorf("%w: %v", errUnknownCollection, err))
		return
	}
	if err := a.cache.Refresh(r.Context(), collection); err != nil {
		sendError(ctx, err)
		return
	}
	_ = ctx.Send(nil, http.StatusNoContent)
}

func (a *API) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx := httprouter.NewHTTPContext(w, r)
	health, err := getHealth()
	if err != nil {
		log.Warnf("cannot get health status: %v", err)
		_ = ctx.SendJSON(Health{Health: -1}, http.StatusServiceUnavailable)
		return
	}
	_ = ctx.SendJSON(Health{Health: health}, http.StatusOK)
}

// getHealth returns a number between 0 and 99 that represents the status of the
// host, as bigger the better. It weights equally the used memory, the 15 minutes
// load average and the open TCP sockets, each normalized by its maximum.
func getHealth() (int32, error) {
	v, err := psmem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	memUsed := v.UsedPercent
	l, err := psload.Avg()
	if err != nil {
		return 0, err
	}
	load15 := l.Load15
	n, err := psnet.Connections("tcp")
	if err != nil {
		return 0, err
	}
	sockets := float64(len(n))

	if memUsed > healthMemMax {
		memUsed = healthMemMax
	}
	if load15 > healthLoadMax {
		load15 = healthLoadMax
	}
	if sockets > healthSocksMax {
		sockets = healthSocksMax
	}
	result := int32((1 - (0.33*(memUsed/healthMemMax) +
		0.33*(load15/healthLoadMax) +
		0.33*(sockets/healthSocksMax))) * 100)
	if result < 0 || result >= 100 {
		return 0, fmt.Errorf("expected health to be between 0 and 99: %d", result)
	}
	return result, nil
}
