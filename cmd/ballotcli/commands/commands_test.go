package commands

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestGatewayPath(t *testing.T) {
	qt.Assert(t, gatewayPath("https://ipfs.io/ipfs/bafyabc"), qt.Equals, "/ipfs/bafyabc")
	qt.Assert(t, gatewayPath("ipfs://bafyabc"), qt.Equals, "ipfs://bafyabc")
	qt.Assert(t, gatewayPath("https://example.com/x"), qt.Equals, "https://example.com/x")
}

func TestStatsCommand(t *testing.T) {
	c := qt.New(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/session":
			w.Write([]byte(`{"state":"disconnected","votingTitle":"Student council"}`))
		case "/stats":
			w.Write([]byte(`{"candidateCount":2,"voterCount":4,"voted":1,"notVoted":3,"progress":25}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	out := &bytes.Buffer{}
	Stdout, Stderr = out, out
	SetupLogPackage = false
	RootCmd.SetArgs([]string{"stats", "--color=false", "--host", srv.URL})
	c.Assert(RootCmd.Execute(), qt.IsNil)
	c.Assert(out.String(), qt.Contains, "Student council")
	c.Assert(out.String(), qt.Contains, "progress: 25.00%")
}
