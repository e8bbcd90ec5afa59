package main

import (
	"fmt"

	"cs2mem/config"
	"cs2mem/convar"
	"cs2mem/cs2"
	"cs2mem/directscan"
	"cs2mem/schema"
	"cs2mem/session"
	"cs2mem/signature"
	"cs2mem/vmm/memprocfs"

	"github.com/spf13/cobra"
)

type globalFlags struct {
	configPath string
	backend    string
	mountPoint string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "cs2offsets",
		Short: "Resolve cs2 client offsets from a live process",
		Long: `Attach to cs2.exe through a MemProcFS mount (vmm) or by reading the
process directly (direct), then resolve signatures, schema field offsets
and convars into one offset table.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "YAML config overlaid on the built-in defaults")
	pf.StringVarP(&flags.backend, "backend", "b", "", "Backend: vmm or direct (overrides config)")
	pf.StringVar(&flags.mountPoint, "mount", "", "MemProcFS mount point (overrides config)")

	resolve := newResolveCmd(flags)
	root.RunE = resolve.RunE
	root.Flags().AddFlagSet(resolve.Flags())

	root.AddCommand(resolve)
	root.AddCommand(newModulesCmd(flags))
	root.AddCommand(newScanCmd(flags))
	root.AddCommand(newDumpCmd(flags))

	return root
}

// load applies command line overrides to the loaded config
func (f *globalFlags) load() (*config.Config, session.Backend, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, "", err
	}
	if f.backend != "" {
		cfg.Backend = f.backend
	}
	if f.mountPoint != "" {
		cfg.MemProcFS.MountPoint = f.mountPoint
	}
	backend, err := cfg.BackendKind()
	if err != nil {
		return nil, "", err
	}
	return cfg, backend, nil
}

func newFactory(cfg *config.Config) *session.Factory {
	return session.NewFactory(
		session.WithProcessName(cfg.ProcessName),
		session.WithIntrospectionDriver(memprocfs.New(cfg.MemProcFS.MountPoint)),
		session.WithDirectScanner(directscan.New()),
	)
}

func newGame(cfg *config.Config) (*cs2.Game, error) {
	scanner, err := signature.NewScanner(cfg.Signatures)
	if err != nil {
		return nil, fmt.Errorf("signatures: %w", err)
	}
	return cs2.New(
		newFactory(cfg),
		scanner,
		schema.NewDumper(cfg.Schema),
		convar.NewDumper(cfg.Convars),
		cs2.WithSchemaClasses(cfg.SchemaClasses),
	), nil
}

// attach opens a bare session for the inspection subcommands
func attach(flags *globalFlags) (*session.Session, error) {
	cfg, backend, err := flags.load()
	if err != nil {
		return nil, err
	}
	return newFactory(cfg).Attach(backend)
}
