package provider

import (
	"context"
	"log/slog"
	"sync"

	chainerrors "ChainKit/internal/errors"
	"ChainKit/internal/web3"
	"ChainKit/internal/web3/accounts"
	"ChainKit/internal/web3/ethereum"
	"ChainKit/internal/web3/networks"
	"ChainKit/pkg/logger"

	"github.com/ethereum/go-ethereum/common"
)

// DialFunc constructs a client for a network.
type DialFunc func(ctx context.Context, cfg ethereum.Config) (*ethereum.Client, error)

// Factory hands out read-only and signing clients per chain. Read-only
// clients are cached per chain id.
type Factory struct {
	registry *networks.Registry
	keyring  *accounts.Keyring
	dial     DialFunc
	log      *slog.Logger

	mu      sync.Mutex
	clients map[networks.ChainID]*ethereum.Client
}

// Option customises a Factory.
type Option func(*Factory)

// WithDialer replaces the RPC dialer, mainly for tests.
func WithDialer(dial DialFunc) Option {
	return func(f *Factory) { f.dial = dial }
}

// WithLogger sets the logger used by the factory.
func WithLogger(log *slog.Logger) Option {
	return func(f *Factory) { f.log = log }
}

// NewFactory creates a factory over the given registry and keyring.
func NewFactory(registry *networks.Registry, keyring *accounts.Keyring, opts ...Option) *Factory {
	f := &Factory{
		registry: registry,
		keyring:  keyring,
		dial:     ethereum.NewClient,
		clients:  make(map[networks.ChainID]*ethereum.Client),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.log == nil {
		f.log = logger.Named("provider")
	}
	return f
}

// Network returns the configuration of chainID.
func (f *Factory) Network(chainID networks.ChainID) (networks.NetworkConfig, error) {
	if f == nil || f.registry == nil {
		return networks.NetworkConfig{}, chainerrors.New(chainerrors.CodeConfigNotFound, "network registry is not initialised")
	}
	return f.registry.Get(chainID)
}

// Registry exposes the underlying network registry.
func (f *Factory) Registry() *networks.Registry {
	return f.registry
}

// ReadOnlyClient returns the cached client for chainID, dialing it on first use.
func (f *Factory) ReadOnlyClient(ctx context.Context, chainID networks.ChainID) (*ethereum.Client, error) {
	cfg, err := f.Network(chainID)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if client, ok := f.clients[chainID]; ok {
		return client, nil
	}

	client, err := f.dial(ctx, ethereum.Config{
		Name:    cfg.Key,
		RPCURL:  cfg.RPCURL,
		ChainID: chainID.BigInt(),
	})
	if err != nil {
		return nil, err
	}
	f.clients[chainID] = client
	f.log.Debug("rpc client created", "chain", cfg.Key)
	return client, nil
}

// Caller returns the eth_call view of the read-only client.
func (f *Factory) Caller(ctx context.Context, chainID networks.ChainID) (web3.ContractCaller, error) {
	return f.ReadOnlyClient(ctx, chainID)
}

// SigningClient binds the named account to the read-only client of chainID.
func (f *Factory) SigningClient(ctx context.Context, chainID networks.ChainID, account string) (*SigningClient, error) {
	client, err := f.ReadOnlyClient(ctx, chainID)
	if err != nil {
		return nil, err
	}
	acc, err := f.keyring.Get(account)
	if err != nil {
		return nil, err
	}
	return &SigningClient{Client: client, chainID: chainID, account: acc}, nil
}

// SignMessage signs message with the named account as an EIP-191 personal message.
func (f *Factory) SignMessage(ctx context.Context, chainID networks.ChainID, account string, message []byte) ([]byte, error) {
	signer, err := f.SigningClient(ctx, chainID, account)
	if err != nil {
		return nil, err
	}
	sig, err := signer.SignMessage(message)
	if err != nil {
		return nil, err
	}
	logger.Audit().Info("message signed",
		"chain", chainID.String(),
		"account", account,
		"address", signer.Address().Hex(),
		"message_len", len(message),
	)
	return sig, nil
}

// Address returns the address of the named account.
func (f *Factory) Address(ctx context.Context, chainID networks.ChainID, account string) (common.Address, error) {
	signer, err := f.SigningClient(ctx, chainID, account)
	if err != nil {
		return common.Address{}, err
	}
	return signer.Address(), nil
}

// Close releases all cached clients.
func (f *Factory) Close() {
	if f == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, client := range f.clients {
		client.Close()
		delete(f.clients, id)
	}
}
