package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jlrickert/cli-toolkit/mylog"
	"github.com/jlrickert/cli-toolkit/toolkit"
	"github.com/jlrickert/contammap/pkg/project"
	"github.com/spf13/cobra"
)

// Version is the build-time version. Override with:
//
//	-ldflags "-X github.com/jlrickert/contammap/pkg/cli.Version=v1.2.3"
var Version = "dev"

type shutdownKey struct{}

// Deps carries the runtime and global flag values shared by every command.
type Deps struct {
	Shutdown func()
	Runtime  *toolkit.Runtime

	// ProjectPath is the project directory or project.yaml that single
	// project commands operate on. Empty means the working directory.
	ProjectPath string

	LogFile  string
	LogLevel string
	LogJSON  bool
}

// NewRootCmd builds the root cobra command, wires persistent flags, and
// installs the subcommands. PersistentPreRunE replaces the runtime logger
// only when a logging flag was given.
func NewRootCmd(deps *Deps) *cobra.Command {
	if deps == nil {
		deps = &Deps{}
	}
	if deps.Shutdown == nil {
		deps.Shutdown = func() {}
	}

	cmd := &cobra.Command{
		Use:           "contammap",
		Short:         "triage metagenomic bins for contamination using methylation patterns",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if deps.Runtime == nil {
				return fmt.Errorf("runtime is required")
			}

			flags := cmd.Flags()
			if flags.Changed("log-file") || flags.Changed("log-json") || flags.Changed("log-level") {
				out := os.Stderr
				if deps.LogFile != "" {
					f, err := os.OpenFile(deps.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
					if err != nil {
						return err
					}
					deps.Shutdown = func() { _ = f.Close() }
					out = f
				}
				deps.Runtime.Logger = mylog.NewLogger(mylog.LoggerConfig{
					Out:     out,
					Level:   mylog.ParseLevel(deps.LogLevel),
					JSON:    deps.LogJSON,
					Version: Version,
				})
			}

			ctx = mylog.WithLogger(ctx, deps.Runtime.Logger)
			ctx = context.WithValue(ctx, shutdownKey{}, deps.Shutdown)
			cmd.SetContext(ctx)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if v := cmd.Context().Value(shutdownKey{}); v != nil {
				if sd, ok := v.(func()); ok && sd != nil {
					sd()
				}
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&deps.LogFile, "log-file", "", "write logs to file (default stderr)")
	cmd.PersistentFlags().StringVar(&deps.LogLevel, "log-level", "info", "minimum log level")
	cmd.PersistentFlags().BoolVar(&deps.LogJSON, "log-json", false, "output logs as JSON")
	cmd.PersistentFlags().StringVarP(&deps.ProjectPath, "project", "p", "", "project directory or project.yaml (default working directory)")

	cmd.AddCommand(
		NewCreateCmd(deps),
		NewInfoCmd(deps),
		NewBinsCmd(deps),
		NewContigsCmd(deps),
		NewMotifsCmd(deps),
		NewHeatmapCmd(deps),
		NewAssignCmd(deps),
		NewReportCmd(deps),
		NewServeCmd(deps),
		NewMCPCmd(deps),
	)

	return cmd
}

// projectPath resolves the --project flag against the working directory.
func (deps *Deps) projectPath() (string, error) {
	path := strings.TrimSpace(deps.ProjectPath)
	if path != "" && filepath.IsAbs(path) {
		return path, nil
	}
	wd, err := deps.Runtime.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, path), nil
}

// openProject opens the project named by --project.
func (deps *Deps) openProject(ctx context.Context) (*project.Project, error) {
	path, err := deps.projectPath()
	if err != nil {
		return nil, err
	}
	return project.Open(ctx, deps.Runtime, path)
}

// absPath resolves a path argument against the working directory.
func (deps *Deps) absPath(path string) (string, error) {
	if path == "" || filepath.IsAbs(path) || strings.HasPrefix(path, "$") {
		return path, nil
	}
	wd, err := deps.Runtime.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, path), nil
}
