// Package httprouter serves the ballot API over a go-chi router.
package httprouter

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	chiprometheus "github.com/766b/chi-prometheus"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	reuse "github.com/libp2p/go-reuseport"
	"go.uber.org/zap"
	"golang.org/x/crypto/acme"
	"golang.org/x/crypto/acme/autocert"
	"golang.org/x/net/http2"

	"go.vocdoni.io/ballot/log"
)

const (
	desiredSoMaxConn = 4096

	// WriteTimeout covers a submission waiting for its transaction to be mined.
	WriteTimeout = 10 * time.Minute
	// ShutdownTimeout bounds the wait for in-flight requests on Shutdown.
	ShutdownTimeout = 5 * time.Second
)

// HTTProuter is a http(s) router using go-chi and autocert with a set of
// preconfigured options.
type HTTProuter struct {
	Mux *chi.Mux
	// TLSdomain enables HTTPS with a letsencrypt certificate for the domain
	TLSdomain string
	// TLSdirCert is the directory where the certificates are cached
	TLSdirCert string
	// AllowedOrigins for CORS requests, empty or "*" allows any
	AllowedOrigins []string

	address net.Addr
	server  *http.Server
}

// Init creates the router, unless Mux is already set, and starts serving on host:port.
func (r *HTTProuter) Init(host string, port int) error {
	ln, err := reuse.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return fmt.Errorf("cannot listen on %s:%d: %w", host, port, err)
	}
	if n := somaxconn(); n < desiredSoMaxConn {
		log.Warnf("operating system SOMAXCONN is smaller than recommended (%d). "+
			"Consider increasing it: echo %d | sudo tee /proc/sys/net/core/somaxconn", n, desiredSoMaxConn)
	}

	if r.Mux == nil {
		r.Mux = NewMux(r.AllowedOrigins)
	}
	r.server = &http.Server{
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       10 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		Handler:           r.Mux,
	}
	var m *autocert.Manager
	if r.TLSdomain != "" {
		m = r.autocertManager()
		r.server.TLSConfig = &tls.Config{
			MinVersion:     tls.VersionTLS13,
			GetCertificate: m.GetCertificate,
			NextProtos:     []string{acme.ALPNProto},
		}
	}
	if err := http2.ConfigureServer(r.server, nil); err != nil {
		return err
	}
	r.address = ln.Addr()

	go func() {
		var err error
		if m != nil {
			err = r.server.ServeTLS(ln, "", "")
		} else {
			err = r.server.Serve(ln)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	if m == nil {
		log.Infof("router ready at http://%s", ln.Addr())
		return nil
	}
	log.Infof("fetching letsencrypt TLS certificate for %s", r.TLSdomain)
	if certs, err := r.getCertificates(m); len(certs) == 0 || err != nil {
		log.Warnf(`letsencrypt TLS certificate cannot be obtained. Maybe port 443 is not accessible or domain name is wrong.
							You might want to redirect port 443 with iptables using the following command:
							sudo iptables -t nat -I PREROUTING -p tcp --dport 443 -j REDIRECT --to-ports %d`, port)
		return fmt.Errorf("cannot get letsencrypt TLS certificate: (%v)", err)
	}
	log.Infof("router ready at https://%s", ln.Addr())
	return nil
}

// NewMux returns a chi router with the logging, recovery, throttling and CORS
// middlewares. An empty origins list allows every origin.
func NewMux(origins []string) *chi.Mux {
	mux := chi.NewRouter()
	mux.Use(middleware.RealIP)
	mux.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  stdLogger{log.Logger()},
		NoColor: true,
	}))
	mux.Use(middleware.Recoverer)
	mux.Use(middleware.Heartbeat("/ping"))
	mux.Use(middleware.ThrottleBacklog(100, 5000, 30*time.Second))

	opts := cors.Options{
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		opts.AllowOriginFunc = func(r *http.Request, origin string) bool { return true }
	} else {
		opts.AllowedOrigins = origins
	}
	mux.Use(cors.New(opts).Handler)
	return mux
}

// EnablePrometheusMetrics enables go-chi prometheus metrics under specified ID.
// If ID empty, the default "gochi_http" is used. Must be called before any
// route is added.
func (r *HTTProuter) EnablePrometheusMetrics(prometheusID string) {
	if prometheusID == "" {
		prometheusID = "gochi_http"
	}
	r.Mux.Use(chiprometheus.NewMiddleware(prometheusID))
}

// Address return the current network address used by the HTTP router
func (r *HTTProuter) Address() net.Addr {
	return r.address
}

// Shutdown stops accepting requests and waits up to ShutdownTimeout for the
// in-flight ones.
func (r *HTTProuter) Shutdown() error {
	if r.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := r.server.Shutdown(ctx); err != nil {
		return r.server.Close()
	}
	return nil
}

func (r *HTTProuter) autocertManager() *autocert.Manager {
	return &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(r.TLSdomain),
		Cache:      autocert.DirCache(r.TLSdirCert),
	}
}

func (r *HTTProuter) getCertificates(m *autocert.Manager) ([][]byte, error) {
	hello := &tls.ClientHelloInfo{
		ServerName: r.TLSdomain,
		CipherSuites: []uint16{
			tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305,
			tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305,
		},
	}
	cert, err := m.GetCertificate(hello)
	if err != nil {
		return nil, err
	}
	return cert.Certificate, nil
}

func somaxconn() int {
	content, err := os.ReadFile("/proc/sys/net/core/somaxconn")
	if err != nil {
		return syscall.SOMAXCONN
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(content)))
	if err != nil {
		return syscall.SOMAXCONN
	}
	return n
}

// stdLogger adapts the zap logger to the chi request logger.
type stdLogger struct {
	log *zap.SugaredLogger
}

func (l stdLogger) Print(v ...interface{}) { l.log.Debug(fmt.Sprint(v...)) }
