package cmd

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/jhttp"
	"github.com/spf13/afero"
	"github.com/urfave/cli"

	"github.com/muezzin/muezzin/cmd/common"
	"github.com/muezzin/muezzin/internal/config"
	"github.com/muezzin/muezzin/internal/secret"
)

const callTimeout = 30 * time.Second

// rpcClient talks to the daemon's JSON-RPC endpoint over HTTP.
type rpcClient struct {
	cli *jrpc2.Client
}

// bearerDoer adds the daemon's bearer token to every request.
type bearerDoer struct {
	token string
	c     *http.Client
}

func (b bearerDoer) Do(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+b.token)
	return b.c.Do(req)
}

// newRPCClient is a var so tests can point commands at a fake daemon.
var newRPCClient = func(cfg *config.Config) (*rpcClient, error) {
	token, err := clientToken(cfg)
	if err != nil {
		return nil, err
	}
	ch := jhttp.NewChannel(endpoint(cfg.Addr), &jhttp.ChannelOptions{
		Client: bearerDoer{token: token, c: &http.Client{Timeout: callTimeout}},
	})
	return &rpcClient{cli: jrpc2.NewClient(ch, nil)}, nil
}

// clientToken returns the configured secret, else the one the daemon
// stored in the keyring or its fallback file.
func clientToken(cfg *config.Config) (string, error) {
	if cfg.RPCSecret != "" {
		return cfg.RPCSecret, nil
	}
	tok, err := secret.NewStore(afero.NewOsFs(), cfg.SecretPath()).Token()
	if err != nil {
		return "", fmt.Errorf("loading RPC token: %w", err)
	}
	return tok, nil
}

// endpoint returns the JSON-RPC URL for the daemon listening on addr.
// Wildcard listen addresses are dialed on loopback.
func endpoint(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr + "/jsonrpc"
	}
	if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port) + "/jsonrpc"
}

// Call invokes method and decodes its result into result. A nil result
// discards the reply.
func (c *rpcClient) Call(ctx context.Context, method string, params, result any) error {
	var err error
	if result == nil {
		_, err = c.cli.Call(ctx, method, params)
	} else {
		err = c.cli.CallResult(ctx, method, params, result)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	return nil
}

func (c *rpcClient) Close() error {
	return c.cli.Close()
}

// loadConfig reads the configuration, merging the env file named by the
// global --env flag.
func loadConfig(ctx *cli.Context) (*config.Config, error) {
	if f := ctx.GlobalString("env"); f != "" {
		return config.Load(f)
	}
	return config.Load()
}

// withClient connects to the daemon and runs fn with a context canceled
// on SIGINT or SIGTERM. Failures are printed as "<cmd>[<action>]: err".
func withClient(ctx *cli.Context, name string, fn func(context.Context, *rpcClient) error) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		common.PrintRuntimeErr(ctx, name, "config", err)
		return nil
	}
	client, err := newRPCClient(cfg)
	if err != nil {
		common.PrintRuntimeErr(ctx, name, "connect", err)
		return nil
	}
	defer client.Close()

	sctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := fn(sctx, client); err != nil {
		common.PrintRuntimeErr(ctx, name, "rpc", err)
	}
	return nil
}
