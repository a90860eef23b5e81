// Command ilpd wires the core packages into a runnable ILP-over-HTTP node.
// It is a thin example, not a production bootstrap: stores are in-memory,
// there is no configuration file format, and a single built-in demo account
// is seeded at startup; command-line flags set only the listen addresses
// and the node's own ILP address. Process supervision, config loading, and real
// persistence are left to whoever embeds these packages.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dora-gt/interledger-go/echoproto"
	"github.com/dora-gt/interledger-go/ildcp"
	"github.com/dora-gt/interledger-go/ilphttp"
	"github.com/dora-gt/interledger-go/ilpmetrics"
	"github.com/dora-gt/interledger-go/ilppacket"
	"github.com/dora-gt/interledger-go/ilpservice"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"net/http"
)

func main() {
	var (
		bindAddr    = flag.String("bind", "127.0.0.1:7768", "address to bind the ILP-over-HTTP server on")
		metricsAddr = flag.String("metrics-bind", "127.0.0.1:9090", "address to bind the Prometheus metrics endpoint on")
		ownAddress  = flag.String("address", "g.local.node", "this node's own ILP address")
	)
	flag.Parse()

	if err := run(*bindAddr, *metricsAddr, *ownAddress); err != nil {
		fmt.Fprintln(os.Stderr, "ilpd:", err)
		os.Exit(1)
	}
}

func run(bindAddr, metricsAddr, ownAddress string) error {
	address, err := ilppacket.NewAddress(ownAddress)
	if err != nil {
		return fmt.Errorf("invalid -address: %w", err)
	}

	addressStore := ilpservice.NewMemoryAddressStore(address)
	accounts := newMemoryAccountStore()

	metrics := ilpmetrics.NewMetrics()
	reg := prometheus.NewRegistry()
	if err := metrics.Register(reg); err != nil {
		return fmt.Errorf("registering metrics: %w", err)
	}

	var incoming ilpservice.IncomingService[*memAccount] = noRouteService{}
	incoming = ildcp.NewResponderService[*memAccount](incoming, accounts)
	incoming = echoproto.NewService[*memAccount](incoming)
	incoming = ilpmetrics.WrapIncoming[*memAccount](incoming, metrics)

	server := ilphttp.NewServer[*memAccount](bindAddr, accounts, addressStore, incoming)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.Serve(gCtx, nil)
	})

	metricsServer := &http.Server{
		Addr:    metricsAddr,
		Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}
	g.Go(func() error {
		<-gCtx.Done()
		return metricsServer.Shutdown(context.Background())
	})
	g.Go(func() error {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	return g.Wait()
}

// noRouteService is the terminal incoming handler this example installs:
// anything that reaches it was neither self-addressed (Echo/ILDCP) nor
// resolvable by any routing stage, because this example wires none in.
type noRouteService struct{}

func (noRouteService) HandleRequest(
	ctx context.Context,
	request ilpservice.IncomingRequest[*memAccount],
	reqCtx ilpservice.RequestContext,
) (*ilppacket.Fulfill, error) {

	reject, err := ilppacket.RejectBuilder{
		Code:        ilppacket.CodeF02Unreachable,
		TriggeredBy: reqCtx.ILPAddress,
		Message:     fmt.Sprintf("no route to %s", request.Prepare.Destination()),
	}.Build()
	if err != nil {
		panic(err)
	}

	return nil, ilpservice.NewRejectError(reject)
}

// memAccount is the Account implementation this example's in-memory store
// holds.
type memAccount struct {
	id         string
	username   string
	password   string
	ilpAddress ilppacket.Address
	assetCode  string
	assetScale uint8
	relation   ilpservice.RoutingRelation
}

func (a *memAccount) ID() string                                    { return a.id }
func (a *memAccount) Username() string                              { return a.username }
func (a *memAccount) ILPAddress() ilppacket.Address                 { return a.ilpAddress }
func (a *memAccount) AssetCode() string                             { return a.assetCode }
func (a *memAccount) AssetScale() uint8                             { return a.assetScale }
func (a *memAccount) RoutingRelation() ilpservice.RoutingRelation   { return a.relation }

// memoryAccountStore is a sync.RWMutex-guarded in-memory AccountStore,
// HttpStore, and ildcp.ChildConfigStore all at once, since this example has
// no reason to split them across backends.
type memoryAccountStore struct {
	mu       sync.RWMutex
	byID     map[string]*memAccount
	byUser   map[string]*memAccount
}

func newMemoryAccountStore() *memoryAccountStore {
	store := &memoryAccountStore{
		byID:   make(map[string]*memAccount),
		byUser: make(map[string]*memAccount),
	}

	// Seed a single demo child account so the server has something to
	// authenticate against out of the box.
	demo := &memAccount{
		id:         uuid.New().String(),
		username:   "demo",
		password:   "demo",
		ilpAddress: "g.local.node.demo",
		assetCode:  "USD",
		assetScale: 2,
		relation:   ilpservice.RelationChild,
	}
	store.byID[demo.id] = demo
	store.byUser[demo.username] = demo

	return store
}

func (s *memoryAccountStore) Get(id string) (*memAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acct, ok := s.byID[id]
	if !ok {
		return nil, &ilpservice.ErrAccountNotFound{Key: id}
	}
	return acct, nil
}

func (s *memoryAccountStore) GetByUsername(username string) (*memAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acct, ok := s.byUser[username]
	if !ok {
		return nil, &ilpservice.ErrAccountNotFound{Key: username}
	}
	return acct, nil
}

func (s *memoryAccountStore) GetAccountFromHttpAuth(username, password string) (*memAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acct, ok := s.byUser[username]
	if !ok || acct.password != password {
		return nil, &ilpservice.ErrAccountNotFound{Key: username}
	}
	return acct, nil
}

func (s *memoryAccountStore) ConfigFor(account *memAccount) (*ildcp.Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acct, ok := s.byID[account.id]
	if !ok {
		return nil, &ilpservice.ErrAccountNotFound{Key: account.id}
	}

	return &ildcp.Response{
		ILPAddress: acct.ilpAddress,
		AssetScale: acct.assetScale,
		AssetCode:  acct.assetCode,
	}, nil
}
