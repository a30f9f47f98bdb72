// Command panel-sim is a reference panel device: it serves the same
// HTTP pairing surface and WebSocket session surface a real panel
// would, so the coordinator binary can be dialed and exercised
// end-to-end without physical hardware.
//
// Grounded on agent/agent.go's goroutine-per-concern shape (one task
// per long-lived responsibility, a shared done channel for shutdown),
// applied here to a device simulator instead of a monitoring agent.
package main

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/trestlehq/coordinator/internal/frame"
)

func main() {
	var (
		deviceID = flag.String("device-id", "", "Device id this panel reports (random if empty)")
		addr     = flag.String("listen", ":9443", "HTTPS listen address")
		secret   = flag.String("secret", "", "Pre-provisioned pairing secret (unpaired if empty)")
		debug    = flag.Bool("debug", false, "Enable debug logging")
	)
	flag.Parse()

	id := *deviceID
	if id == "" {
		id = uuid.NewString()
	}

	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})).With("device_id", id)

	p := newPanel(id, *secret, logger)

	cert, err := selfSignedCert()
	if err != nil {
		logger.Error("generating self-signed certificate", "error", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:      *addr,
		Handler:   p.routes(),
		TLSConfig: &tls.Config{Certificates: []tls.Certificate{cert}},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = server.Shutdown(shutdownCtx)
		cancel()
	}()

	logger.Info("panel-sim listening", "addr", *addr)
	if err := server.ListenAndServeTLS("", ""); err != nil && err != http.ErrServerClosed {
		logger.Error("panel-sim exited with error", "error", err)
		os.Exit(1)
	}
	<-ctx.Done()
}

// panel holds one simulated panel's pairing and session state.
type panel struct {
	id     string
	logger *slog.Logger

	mu     sync.Mutex
	secret string
}

func newPanel(id, secret string, logger *slog.Logger) *panel {
	return &panel{id: id, secret: secret, logger: logger}
}

func (p *panel) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/info", p.handleInfo)
	mux.HandleFunc("/api/unpair", p.handleUnpair)
	mux.HandleFunc("/pair", p.handlePair)
	mux.HandleFunc("/ws", p.handleWS)
	return mux
}

func (p *panel) handleInfo(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	stored := p.secret
	p.mu.Unlock()

	if stored != "" {
		bearer := r.Header.Get("Authorization")
		if bearer != "Bearer "+stored {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"id": p.id})
}

func (p *panel) handleUnpair(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	p.secret = ""
	p.mu.Unlock()
	p.logger.Info("panel unpaired")
	w.WriteHeader(http.StatusOK)
}

func (p *panel) handlePair(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Secret string `json:"secret"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Secret == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	p.mu.Lock()
	p.secret = body.Secret
	p.mu.Unlock()
	p.logger.Info("panel paired")
	w.WriteHeader(http.StatusOK)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleWS speaks the coordinator-dials-panel session protocol from
// the panel side: it expects "auth" first, replies auth_ok or
// auth_invalid, then answers pings and logs every other inbound
// envelope (alert, state_update, layout) it receives.
func (p *panel) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		p.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	if !p.authenticate(conn) {
		return
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			p.logger.Debug("session ended", "error", err)
			return
		}
		var env frame.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		switch env.Type {
		case "ping":
			p.send(conn, "pong", map[string]any{"id": env.Body["id"]})
		case "alert":
			p.logger.Info("alert received", "alert_id", env.Body["alert_id"], "level", env.Body["level"])
		case "state_update", "delta":
			p.logger.Debug("state update received", "body", env.Body)
		case "layout":
			p.logger.Info("layout received", "layout_id", env.Body["layout_id"])
			p.send(conn, "layout_applied", map[string]any{"layout_id": env.Body["layout_id"]})
		default:
			p.logger.Debug("unhandled inbound envelope", "type", env.Type)
		}
	}
}

func (p *panel) authenticate(conn *websocket.Conn) bool {
	_, data, err := conn.ReadMessage()
	if err != nil {
		return false
	}
	var env frame.Envelope
	if err := json.Unmarshal(data, &env); err != nil || env.Type != "auth" {
		return false
	}
	presented, _ := env.Body["secret"].(string)

	p.mu.Lock()
	stored := p.secret
	p.mu.Unlock()

	if stored == "" || presented != stored {
		body, _ := frame.BuildAuthInvalid(p.id, "secret mismatch")
		p.send(conn, "auth_invalid", body)
		return false
	}

	body, err := frame.BuildAuthOK(p.id, []int{1})
	if err != nil {
		return false
	}
	p.send(conn, "auth_ok", body)
	return true
}

func (p *panel) send(conn *websocket.Conn, msgType string, body map[string]any) {
	env := frame.BuildEnvelope(msgType, p.id, "", time.Now(), body)
	data, err := json.Marshal(env)
	if err != nil {
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		p.logger.Debug("write failed", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// selfSignedCert generates an ephemeral self-signed certificate for
// local testing; panel-sim has no real PKI to participate in.
func selfSignedCert() (tls.Certificate, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return tls.Certificate{}, err
	}
	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "panel-sim"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("creating certificate: %w", err)
	}
	return tls.Certificate{
		Certificate: [][]byte{der},
		PrivateKey:  key,
	}, nil
}
