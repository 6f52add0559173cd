// Package main is the seqctl maintenance CLI: schema migration, listing
// and state export against any supported backend without a running server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/spf13/cobra"

	"sequor/internal/config"
	"sequor/internal/domain/sequence"
	"sequor/internal/infrastructure/storage"
	"sequor/internal/infrastructure/storage/postgres"
)

// StoreOptions holds backend selection flags shared by all commands.
type StoreOptions struct {
	Backend    string
	Path       string
	DSN        string
	DocumentID string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &StoreOptions{}

	cmd := &cobra.Command{
		Use:           "seqctl",
		Short:         "sequor state maintenance",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.Backend, "backend", config.BackendFile, "state backend (memory|file|sqlite|postgres)")
	cmd.PersistentFlags().StringVar(&opts.Path, "path", "", "state file (file backend) or database file (sqlite)")
	cmd.PersistentFlags().StringVar(&opts.DSN, "dsn", "", "postgres connection string")
	cmd.PersistentFlags().StringVar(&opts.DocumentID, "document", "default", "document id (postgres backend)")

	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newListCommand(opts))
	cmd.AddCommand(newExportCommand(opts))

	return cmd
}

func newMigrateCommand(opts *StoreOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Upgrade persisted state to the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, closeFn, err := openStore(ctx, opts)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := store.Migrate(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "state at schema version %d\n", sequence.SchemaVersion)
			return nil
		},
	}
}

func newListCommand(opts *StoreOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List sequences",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, closeFn, err := openStore(ctx, opts)
			if err != nil {
				return err
			}
			defer closeFn()

			seqs, err := store.List(ctx)
			if err != nil {
				return err
			}
			for _, seq := range seqs {
				locked := " "
				if seq.Locked {
					locked = "L"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %-8s %-10s next=%s%s %s\n",
					seq.ID, locked, seq.Type, seq.Mode, seq.Prefix, seq.NextValue, seq.Name)
			}
			return nil
		},
	}
}

func newExportCommand(opts *StoreOptions) *cobra.Command {
	var compress bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export sequences as JSON to stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, closeFn, err := openStore(ctx, opts)
			if err != nil {
				return err
			}
			defer closeFn()

			seqs, err := store.List(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if compress {
				enc, err := zstd.NewWriter(out)
				if err != nil {
					return err
				}
				defer enc.Close()
				return json.NewEncoder(enc).Encode(seqs)
			}

			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(seqs)
		},
	}

	cmd.Flags().BoolVar(&compress, "zstd", false, "zstd-compress the output")
	return cmd
}

func openStore(ctx context.Context, opts *StoreOptions) (*sequence.Store, func(), error) {
	var (
		kv  storage.Store
		err error
	)
	switch opts.Backend {
	case config.BackendMemory:
		kv = storage.NewMemoryStore()
	case config.BackendFile:
		if opts.Path == "" {
			return nil, nil, fmt.Errorf("--path is required for the file backend")
		}
		kv, err = storage.NewFileStore(opts.Path)
	case config.BackendSQLite:
		if opts.Path == "" {
			return nil, nil, fmt.Errorf("--path is required for the sqlite backend")
		}
		kv, err = storage.NewSQLiteStore(opts.Path)
	case config.BackendPostgres:
		if opts.DSN == "" {
			return nil, nil, fmt.Errorf("--dsn is required for the postgres backend")
		}
		kv, err = postgres.NewKVStore(ctx, opts.DSN, opts.DocumentID)
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", opts.Backend)
	}
	if err != nil {
		return nil, nil, err
	}
	return sequence.NewStore(kv), func() { kv.Close() }, nil
}
