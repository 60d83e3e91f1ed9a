// Package api exposes the read model, the session and the transaction
// submissions over HTTP.
package api

import (
	"context"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/go-chi/chi"

	"go.vocdoni.io/ballot/log"
	"go.vocdoni.io/ballot/transaction"
	"go.vocdoni.io/ballot/types"
)

// MaxRequestBodySize bounds the request bodies, enough for a base64 encoded 5MB image.
const MaxRequestBodySize = 8 << 20

// ReadModel is the cached view of the contract state.
type ReadModel interface {
	Candidates() []types.Candidate
	Voters() []types.Voter
	VotedVoters() []types.Voter
	CandidateCount() uint64
	VoterCount() uint64
	Stats() types.Stats
	IsLoading(types.Collection) bool
	Err(types.Collection) error
	Refresh(ctx context.Context, collection types.Collection) error
}

// Submitter sends the registrations and votes.
type Submitter interface {
	Submit(ctx context.Context, op types.Operation, p transaction.Params) (*ethtypes.Receipt, error)
	Pending() []types.PendingTransaction
}

// Session is the wallet session.
type Session interface {
	State() types.Session
	Connect(ctx context.Context) (common.Address, error)
}

// API holds the HTTP handlers.
type API struct {
	cache       ReadModel
	submitter   Submitter
	session     Session
	votingTitle string
}

// NewAPI returns an API serving the given components.
func NewAPI(cache ReadModel, submitter Submitter, session Session, votingTitle string) *API {
	return &API{
		cache:       cache,
		submitter:   submitter,
		session:     session,
		votingTitle: votingTitle,
	}
}

// Attach mounts the handlers on router under route.
func (a *API) Attach(router chi.Router, route string) {
	if route == "" {
		route = "/"
	}
	router.Route(route, func(r chi.Router) {
		r.Get("/candidates", a.candidatesHandler)
		r.Post("/candidates", a.submitHandler(types.RegisterCandidate))
		r.Get("/voters", a.votersHandler)
		r.Get("/voters/voted", a.votedVotersHandler)
		r.Post("/voters", a.submitHandler(types.RegisterVoter))
		r.Post("/votes", a.submitHandler(types.CastVote))
		r.Get("/stats", a.statsHandler)
		r.Get("/pending", a.pendingHandler)
		r.Get("/session", a.sessionHandler)
		r.Post("/session/connect", a.connectHandler)
		r.Post("/refresh/{collection}", a.refreshHandler)
		r.Get("/health", a.healthHandler)
	})
	log.Infow("api handlers attached", "route", route)
}

// Handler returns a router serving only the API, mainly for tests.
func (a *API) Handler() http.Handler {
	r := chi.NewRouter()
	a.Attach(r, "/")
	return r
}
