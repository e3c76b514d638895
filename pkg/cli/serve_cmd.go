package cli

import (
	"context"
	"errors"

	"github.com/jlrickert/cli-toolkit/mylog"
	"github.com/jlrickert/contammap/pkg/mcpserver"
	"github.com/jlrickert/contammap/pkg/project"
	"github.com/jlrickert/contammap/pkg/server"
	"github.com/spf13/cobra"
)

// NewServeCmd constructs the `serve` subcommand.
//
// Usage examples:
//
//	contammap serve --addr :8080 triage/ other/project.yaml
func NewServeCmd(deps *Deps) *cobra.Command {
	var (
		addr  string
		noMCP bool
	)

	cmd := &cobra.Command{
		Use:   "serve [PROJECT...]",
		Short: "serve the HTTP API for the given projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			mgr, err := deps.loadManager(ctx, args)
			if err != nil {
				return err
			}
			defer func() {
				if err := mgr.CloseAll(); err != nil {
					mylog.LoggerFromContext(ctx).Warn("close projects", "err", err)
				}
			}()

			srv := server.New(mgr, server.Options{Version: Version, DisableMCP: noMCP})
			err = srv.ListenAndServe(ctx, addr)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().BoolVar(&noMCP, "no-mcp", false, "do not mount the MCP endpoint at /mcp")
	return cmd
}

// NewMCPCmd constructs the `mcp` subcommand, which serves the project tools
// over stdio.
func NewMCPCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp [PROJECT...]",
		Short: "serve the project tools to an MCP client over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			mgr, err := deps.loadManager(ctx, args)
			if err != nil {
				return err
			}
			defer func() {
				_ = mgr.CloseAll()
			}()
			err = mcpserver.RunStdio(ctx, mgr, Version)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	return cmd
}

// loadManager opens the projects named by paths, or the --project flag when
// it is set and no paths are given.
func (deps *Deps) loadManager(ctx context.Context, paths []string) (*project.Manager, error) {
	mgr := project.NewManager(deps.Runtime)
	if len(paths) == 0 && deps.ProjectPath != "" {
		paths = []string{deps.ProjectPath}
	}
	for _, path := range paths {
		abs, err := deps.absPath(path)
		if err != nil {
			return nil, errors.Join(err, mgr.CloseAll())
		}
		if _, err := mgr.Load(ctx, abs); err != nil {
			return nil, errors.Join(err, mgr.CloseAll())
		}
	}
	return mgr, nil
}
