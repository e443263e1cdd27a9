package main

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/OFFIS-RIT/kiwi-linker/internal/bootstrap"
	"github.com/OFFIS-RIT/kiwi-linker/internal/db"
	"github.com/OFFIS-RIT/kiwi-linker/internal/util"
	"github.com/OFFIS-RIT/kiwi-linker/pkg/annotate"
	"github.com/OFFIS-RIT/kiwi-linker/pkg/linker"
	"github.com/OFFIS-RIT/kiwi-linker/pkg/logger"
	"github.com/OFFIS-RIT/kiwi-linker/pkg/logger/console"

	"github.com/spf13/cobra"
)

type openFunc func(ctx context.Context, cfg bootstrap.Config) (*linker.Linker, func(), error)

func rootCmd(open openFunc) *cobra.Command {
	var (
		cfg   = bootstrap.ConfigFromEnv()
		debug bool
	)

	withLinker := func(run func(cmd *cobra.Command, l *linker.Linker, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			l, closeFn, err := open(cmd.Context(), cfg)
			defer closeFn()
			if err != nil {
				return err
			}
			return run(cmd, l, args)
		}
	}

	cmd := &cobra.Command{
		Use:           "linkctl",
		Short:         "Link mentions to knowledge-base entities",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{
				Debug:  debug,
				Output: cmd.ErrOrStderr(),
			}))
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&cfg.IndexDir, "index-dir", cfg.IndexDir, "Directory holding uriindex, typeindex and pathindex")
	flags.StringVar(&cfg.DatabaseURL, "database-url", cfg.DatabaseURL, "PostgreSQL URL of the lookup indexes (overrides --index-dir)")
	flags.StringVar(&cfg.RedirectsPath, "redirects", cfg.RedirectsPath, "Redirect file, local path or s3://bucket/key")
	flags.StringVar(&cfg.DisambiguationsPath, "disambiguations", cfg.DisambiguationsPath, "Disambiguation file, local path or s3://bucket/key")
	flags.BoolVar(&debug, "debug", util.GetEnvBool("DEBUG", false), "Enable debug logging")

	cmd.AddCommand(&cobra.Command{
		Use:   "link <mention>",
		Short: "Link a mention and print its entity, types and deepest type",
		Args:  cobra.MinimumNArgs(1),
		RunE: withLinker(func(cmd *cobra.Command, l *linker.Linker, args []string) error {
			return printLink(cmd.Context(), cmd.OutOrStdout(), l, strings.Join(args, " "))
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "types <uri>",
		Short: "Print every type of an entity",
		Args:  cobra.ExactArgs(1),
		RunE: withLinker(func(cmd *cobra.Command, l *linker.Linker, args []string) error {
			types, found, err := l.GetTypes(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("no types for %s", args[0])
			}
			for _, t := range types {
				fmt.Fprintln(cmd.OutOrStdout(), t)
			}
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "deepest <uri>",
		Short: "Print the most specific type of an entity",
		Args:  cobra.ExactArgs(1),
		RunE: withLinker(func(cmd *cobra.Command, l *linker.Linker, args []string) error {
			typ, found, err := l.GetDeepestType(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("no types for %s", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), typ)
			return nil
		}),
	})

	var parallel int
	annotateCmd := &cobra.Command{
		Use:   "annotate",
		Short: "Read one mention per line from stdin and write entity/type columns",
		Args:  cobra.NoArgs,
		RunE: withLinker(func(cmd *cobra.Command, l *linker.Linker, args []string) error {
			mentions, err := readMentions(cmd.InOrStdin())
			if err != nil {
				return err
			}
			annotations, err := annotate.NewAnnotator(l, parallel).Annotate(cmd.Context(), mentions)
			if err != nil {
				return err
			}
			return annotate.WriteColumns(cmd.OutOrStdout(), annotations)
		}),
	}
	annotateCmd.Flags().IntVar(&parallel, "parallel", util.GetEnvInt("ANNOTATE_PARALLEL", 8), "Concurrent lookups")
	cmd.AddCommand(annotateCmd)

	clustersCmd := &cobra.Command{
		Use:   "clusters",
		Short: "Read a tab-separated mention dump from stdin and write regrouped clusters",
		Long: "Each input row is cluster_id, mention_id, sentence, start, text and optionally\n" +
			"head_lemma, head_pos, ner_tag and ner_entity, separated by tabs.",
		Args: cobra.NoArgs,
		RunE: withLinker(func(cmd *cobra.Command, l *linker.Linker, args []string) error {
			mentions, err := readClusterMentions(cmd.InOrStdin())
			if err != nil {
				return err
			}
			clusters, err := annotate.NewAnnotator(l, parallel).AnnotateClusters(cmd.Context(), mentions)
			if err != nil {
				return err
			}
			return annotate.WriteClusters(cmd.OutOrStdout(), clusters)
		}),
	}
	clustersCmd.Flags().IntVar(&parallel, "parallel", util.GetEnvInt("ANNOTATE_PARALLEL", 8), "Concurrent lookups")
	cmd.AddCommand(clustersCmd)

	migrationsPath := util.GetEnvString("MIGRATIONS_PATH", "migrations")
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply lookup_documents schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("--database-url or DATABASE_URL is required")
			}
			// the database may still be starting when run next to it
			return util.RetryErrWithContext(cmd.Context(), 5, 2*time.Second, func(ctx context.Context) error {
				return db.Migrate(migrationsPath, cfg.DatabaseURL)
			})
		},
	}
	migrateCmd.Flags().StringVar(&migrationsPath, "path", migrationsPath, "Migrations directory")
	cmd.AddCommand(migrateCmd)

	return cmd
}

func printLink(ctx context.Context, w io.Writer, l *linker.Linker, mention string) error {
	entity, found, err := l.LinkMention(ctx, mention)
	if err != nil {
		return err
	}
	if !found {
		fmt.Fprintf(w, "%s\t(no entity)\n", mention)
		return nil
	}
	fmt.Fprintf(w, "entity:\t%s\n", entity)

	types, _, err := l.GetTypes(ctx, entity)
	if err != nil {
		return err
	}
	for _, t := range types {
		fmt.Fprintf(w, "type:\t%s\n", t)
	}

	deepest, found, err := l.GetDeepestType(ctx, entity)
	if err != nil {
		return err
	}
	if found {
		fmt.Fprintf(w, "deepest:\t%s\n", deepest)
	}
	return nil
}

func readMentions(r io.Reader) ([]annotate.Mention, error) {
	var mentions []annotate.Mention
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		mentions = append(mentions, annotate.Mention{Text: text})
	}
	return mentions, scanner.Err()
}

// readClusterMentions parses a tab-separated mention dump. Blank lines are
// skipped, the NER tag "O" counts as none.
func readClusterMentions(r io.Reader) ([]annotate.ClusterMention, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var mentions []annotate.ClusterMention
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return mentions, nil
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)
		if len(rec) < 5 {
			return nil, fmt.Errorf("line %d: expected at least 5 columns, got %d", line, len(rec))
		}

		var nums [4]int
		for i := range nums {
			if nums[i], err = strconv.Atoi(strings.TrimSpace(rec[i])); err != nil {
				return nil, fmt.Errorf("line %d: column %d: %w", line, i+1, err)
			}
		}

		m := annotate.ClusterMention{
			ClusterID: nums[0],
			ID:        nums[1],
			Sentence:  nums[2],
			Start:     nums[3],
		}
		m.Mention.Text = rec[4]
		if len(rec) >= 7 {
			m.Mention.Head = &annotate.Head{Lemma: rec[5], POS: rec[6]}
			if len(rec) >= 8 {
				m.Mention.Head.NERTag = rec[7]
			}
		}
		if len(rec) >= 9 {
			m.NEREntity = rec[8]
		}
		mentions = append(mentions, m)
	}
}
