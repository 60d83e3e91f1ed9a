package data

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	files "github.com/ipfs/go-ipfs-files"
	httpapi "github.com/ipfs/go-ipfs-http-client"
	ipfslog "github.com/ipfs/go-log"
	coreiface "github.com/ipfs/interface-go-ipfs-core"
	"github.com/ipfs/interface-go-ipfs-core/options"
	corepath "github.com/ipfs/interface-go-ipfs-core/path"

	"go.vocdoni.io/ballot/ipfs"
	"go.vocdoni.io/ballot/log"
	"go.vocdoni.io/ballot/metrics"
)

// IPFSHandle is the IPFS storage backend. It talks to any CoreAPI implementation:
// a remote node through its HTTP RPC API or an in-process node.
type IPFSHandle struct {
	CoreAPI  coreiface.CoreAPI
	LogLevel string

	closer func() error
}

// NewIPFSHTTP returns an IPFSHandle using the RPC API of the node listening at url
// (e.g. http://127.0.0.1:5001).
func NewIPFSHTTP(url, logLevel string, timeout time.Duration) (*IPFSHandle, error) {
	if logLevel == "" {
		logLevel = "ERROR"
	}
	if err := ipfslog.SetLogLevel("*", logLevel); err != nil {
		log.Warnf("cannot set ipfs log level: %v", err)
	}
	api, err := httpapi.NewURLApiWithClient(url, &http.Client{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("cannot create ipfs http client for %s: %w", url, err)
	}
	log.Infof("using IPFS node API at %s", url)
	return &IPFSHandle{CoreAPI: api, LogLevel: logLevel}, nil
}

// URIprefix returns the URI prefix which identifies the protocol
func (i *IPFSHandle) URIprefix() string {
	return ipfs.ProtocolPrefix
}

// Publish adds data as a CIDv1 UnixFS file, pins it and returns its ipfs:// locator.
func (i *IPFSHandle) Publish(ctx context.Context, data []byte) (string, error) {
	rpath, err := i.CoreAPI.Unixfs().Add(ctx, files.NewBytesFile(data),
		options.Unixfs.CidVersion(1),
		options.Unixfs.Pin(true))
	if err != nil {
		return "", fmt.Errorf("could not add file: %w", err)
	}
	log.Debugw("published file", "cid", rpath.Cid().String(), "size", len(data))
	return i.URIprefix() + rpath.Cid().String(), nil
}

// Retrieve gets the file identified by id (cid, ipfs:// or /ipfs/ locator), reading
// at most maxSize bytes when maxSize is positive.
func (i *IPFSHandle) Retrieve(ctx context.Context, id string, maxSize int64) ([]byte, error) {
	node, err := i.CoreAPI.Unixfs().Get(ctx, ipfsPath(id))
	if err != nil {
		return nil, fmt.Errorf("could not get %s: %w", id, err)
	}
	defer node.Close()
	file := files.ToFile(node)
	if file == nil {
		return nil, fmt.Errorf("%s is a directory", id)
	}
	var r io.Reader = file
	if maxSize > 0 {
		r = io.LimitReader(file, maxSize+1)
	}
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", id, err)
	}
	if maxSize > 0 && int64(len(content)) > maxSize {
		return nil, fmt.Errorf("%s is larger than %d bytes", id, maxSize)
	}
	return content, nil
}

// Pin pins the content at path.
func (i *IPFSHandle) Pin(ctx context.Context, path string) error {
	return i.CoreAPI.Pin().Add(ctx, ipfsPath(path))
}

// ListPins returns the pinned paths and their pin type.
func (i *IPFSHandle) ListPins(ctx context.Context) (map[string]string, error) {
	ch, err := i.CoreAPI.Pin().Ls(ctx)
	if err != nil {
		return nil, err
	}
	pins := make(map[string]string)
	for pin := range ch {
		if err := pin.Err(); err != nil {
			return nil, err
		}
		pins[pin.Path().String()] = pin.Type()
	}
	return pins, nil
}

// CollectMetrics updates the file gauges every period until ctx is done.
func (i *IPFSHandle) CollectMetrics(ctx context.Context, ma *metrics.Agent, period time.Duration) {
	registerMetrics(ma)
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tctx, cancel := context.WithTimeout(ctx, period)
			if pins, err := i.ListPins(tctx); err == nil {
				FilePins.Set(float64(len(pins)))
			} else {
				log.Debugw("cannot list pins", "error", err)
			}
			if peers, err := i.CoreAPI.Swarm().Peers(tctx); err == nil {
				FilePeers.Set(float64(len(peers)))
			}
			cancel()
		}
	}
}

// Stop closes the underlying node, if any.
func (i *IPFSHandle) Stop() error {
	if i.closer != nil {
		return i.closer()
	}
	return nil
}

func ipfsPath(id string) corepath.Path {
	return corepath.New(ipfs.PathPrefix + ipfs.TrimPrefix(id))
}
