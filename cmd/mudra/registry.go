package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cheggaaa/pb/v3"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/signature"
	"github.com/ayusman/mudra/internal/store"
)

func newRegistryCommand(configFlag *string) *cobra.Command {
	registryCmd := &cobra.Command{
		Use:   "registry",
		Short: "Manage the concept registry",
	}

	registryCmd.AddCommand(newRegistryBuildCommand(configFlag))
	registryCmd.AddCommand(newRegistryListCommand(configFlag))
	registryCmd.AddCommand(newRegistryDeleteCommand(configFlag))

	return registryCmd
}

// openStore opens the registry database the configuration points at.
func openStore(cfg config.Config) (*store.Store, error) {
	dbPath, err := cfg.ExpandedDBPath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return store.New(dbPath)
}

func newRegistryBuildCommand(configFlag *string) *cobra.Command {
	var language string
	var conceptID string

	cmd := &cobra.Command{
		Use:   "build <file>...",
		Short: "Build reference embeddings from signature recordings",
		Long: `Build groups signature recordings by gloss and averages each group
into one reference embedding, written to the registry database. The
running daemon picks changes up after POST /api/registry/reload.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configFlag)
			if err != nil {
				return err
			}
			return runRegistryBuild(cmd, cfg, language, conceptID, args)
		},
	}

	cmd.Flags().StringVar(&language, "language", "", "Language the recordings belong to (defaults to the configured one)")
	cmd.Flags().StringVar(&conceptID, "id", "", "Concept ID to store under, single gloss only (defaults to C_<GLOSS>_001)")
	return cmd
}

func runRegistryBuild(cmd *cobra.Command, cfg config.Config, language, conceptID string, paths []string) error {
	if language == "" {
		language = cfg.Recognition.Language
	}

	var bar *pb.ProgressBar
	if isatty.IsTerminal(os.Stdout.Fd()) {
		bar = pb.StartNew(len(paths))
	}

	// Group recordings by normalized gloss; each group becomes one
	// reference embedding.
	groups := make(map[string][]*signature.File)
	var order []string
	for _, path := range paths {
		f, err := signature.Read(path)
		if err != nil {
			if bar != nil {
				bar.Finish()
			}
			return err
		}
		gloss := signature.NormalizeGloss(f.Gloss)
		if gloss == "" {
			if bar != nil {
				bar.Finish()
			}
			return fmt.Errorf("%s: recording has an empty gloss", path)
		}
		if _, seen := groups[gloss]; !seen {
			order = append(order, gloss)
		}
		groups[gloss] = append(groups[gloss], f)
		if bar != nil {
			bar.Increment()
		}
	}
	if bar != nil {
		bar.Finish()
	}

	if conceptID != "" && len(groups) > 1 {
		return fmt.Errorf("--id applies to a single gloss, recordings cover %d", len(groups))
	}

	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	out := cmd.OutOrStdout()
	builder := signature.NewBuilder(cfg.Recognition.VisibilityThreshold)

	for _, gloss := range order {
		files := groups[gloss]
		vec, report, err := builder.BuildReference(files)
		if err != nil {
			if errors.Is(err, signature.ErrNoUsableInstances) {
				return fmt.Errorf("%s: %w", gloss, err)
			}
			return fmt.Errorf("build %s: %w", gloss, err)
		}

		id := conceptID
		if id == "" {
			id = defaultConceptID(gloss)
		}

		concept := &store.Concept{
			ID:       id,
			Language: language,
			Name:     gloss,
			Vector:   vec,
			Samples:  report.Used,
		}
		if err := st.Concepts().Upsert(concept); err != nil {
			return fmt.Errorf("store %s: %w", id, err)
		}

		fmt.Fprintf(out, "%s (%s): %d/%d recordings used\n", id, gloss, report.Used, len(files))
		for _, inst := range report.Instances {
			if inst.Skipped {
				fmt.Fprintf(out, "  skipped: %s\n", inst.SkipReason)
			}
		}
	}

	fmt.Fprintln(out, "Reload the running daemon with POST /api/registry/reload.")
	return nil
}

// defaultConceptID derives the stored ID from a normalized gloss.
func defaultConceptID(gloss string) string {
	return "C_" + strings.ToUpper(gloss) + "_001"
}

func newRegistryListCommand(configFlag *string) *cobra.Command {
	var language string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored concepts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configFlag)
			if err != nil {
				return err
			}

			st, err := openStore(cfg)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			concepts, err := st.Concepts().List(language)
			if err != nil {
				return fmt.Errorf("list concepts: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(concepts) == 0 {
				fmt.Fprintln(out, "No concepts stored.")
				return nil
			}

			// Tab-separated when piped, a table on a terminal.
			if !isatty.IsTerminal(os.Stdout.Fd()) {
				for _, c := range concepts {
					fmt.Fprintf(out, "%s\t%s\t%s\t%d\t%d\n",
						c.ID, c.Language, c.Name, len(c.Vector), c.Samples)
				}
				return nil
			}

			tw := table.NewWriter()
			tw.SetStyle(table.StyleRounded)
			tw.AppendHeader(table.Row{"ID", "Language", "Name", "Dim", "Samples", "Updated"})
			for _, c := range concepts {
				tw.AppendRow(table.Row{
					c.ID, c.Language, c.Name, len(c.Vector), c.Samples,
					c.UpdatedAt.Format("2006-01-02 15:04"),
				})
			}
			tw.SetColumnConfigs([]table.ColumnConfig{
				{Number: 4, Align: text.AlignRight},
				{Number: 5, Align: text.AlignRight},
			})
			fmt.Fprintln(out, tw.Render())
			return nil
		},
	}

	cmd.Flags().StringVar(&language, "language", "", "Restrict the listing to one language")
	return cmd
}

func newRegistryDeleteCommand(configFlag *string) *cobra.Command {
	var language string

	cmd := &cobra.Command{
		Use:   "delete <concept-id>",
		Short: "Delete a concept from the registry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configFlag)
			if err != nil {
				return err
			}
			if language == "" {
				language = cfg.Recognition.Language
			}

			st, err := openStore(cfg)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			if err := st.Concepts().Delete(args[0], language); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("concept %s/%s not found", args[0], language)
				}
				return fmt.Errorf("delete concept: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s (%s)\n", args[0], language)
			return nil
		},
	}

	cmd.Flags().StringVar(&language, "language", "", "Language of the concept (defaults to the configured one)")
	return cmd
}
