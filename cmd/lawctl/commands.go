package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"statute-search/internal/app"
	"statute-search/internal/config"
	"statute-search/internal/contextutil"
	"statute-search/internal/searchengine"
)

// withApp loads configuration, wires the application and runs fn. Logs go
// to stderr so that command output on stdout stays machine readable.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := app.NewLogger(cfg, cmd.ErrOrStderr())
	slog.SetDefault(logger)
	ctx := contextutil.WithLogger(cmd.Context(), logger)

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close()
	}()
	return fn(ctx, a)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json|->",
		Short: "Import normalized statute JSON",
		Long: `Import statutes from a JSON file holding one statute object or an
array of them. Each statute replaces any stored revision with the same
title, together with all of its articles. Use "-" to read stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open %s: %w", args[0], err)
				}
				defer func() {
					_ = f.Close()
				}()
				r = f
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				stats, err := a.Pipeline.Import(ctx, r)
				if stats != nil {
					if perr := printJSON(cmd.OutOrStdout(), stats); perr != nil {
						return perr
					}
				}
				return err
			})
		},
	}
}

func embedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "embed",
		Short: "Embed articles that have no embedding yet",
		RunE: func(cmd *cobra.Command, args []string) error {
			batch, _ := cmd.Flags().GetInt("batch")
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				stats, err := a.Pipeline.BackfillEmbeddings(ctx, batch)
				if stats != nil {
					if perr := printJSON(cmd.OutOrStdout(), stats); perr != nil {
						return perr
					}
				}
				return err
			})
		},
	}
	cmd.Flags().Int("batch", 64, "articles fetched per page")
	return cmd
}

func reindexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the full-text search index",
		RunE: func(cmd *cobra.Command, args []string) error {
			recreate, _ := cmd.Flags().GetBool("recreate")
			analyzer, _ := cmd.Flags().GetString("analyzer")
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if analyzer == "" {
					analyzer = a.Config.SearchEngineAnalyzer
				}
				stats, err := a.Pipeline.Reindex(ctx, analyzer, recreate)
				if stats != nil {
					if perr := printJSON(cmd.OutOrStdout(), stats); perr != nil {
						return perr
					}
				}
				return err
			})
		},
	}
	cmd.Flags().Bool("recreate", false, "drop and recreate the index first")
	cmd.Flags().String("analyzer", "", "index analyzer (default SEARCH_ENGINE_ANALYZER, then "+searchengine.DefaultAnalyzer+")")
	return cmd
}

func resolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <citation>",
		Short: "Resolve a precise article citation such as 刑法第二十条",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				res, err := a.Engine.ResolveArticle(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
}

func searchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <text>",
		Short: "Search the corpus",
		Long: `Search the corpus. By default the whole corpus is searched and one page
of ranked articles is printed. --law restricts the search to one statute
named by title or alias; --semantic ranks by embedding similarity;
--knowledge prints the numbered context block built for answer generation.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			law, _ := cmd.Flags().GetString("law")
			semantic, _ := cmd.Flags().GetBool("semantic")
			knowledge, _ := cmd.Flags().GetBool("knowledge")
			page, _ := cmd.Flags().GetInt("page")
			pageSize, _ := cmd.Flags().GetInt("page-size")
			topK, _ := cmd.Flags().GetInt("top-k")

			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				var (
					out any
					err error
				)
				switch {
				case law != "":
					out, err = a.Engine.SearchByLaw(ctx, law, args[0], topK)
				case semantic:
					out, err = a.Engine.SemanticSearch(ctx, args[0], topK)
				case knowledge:
					out, err = a.Engine.Retrieve(ctx, args[0], topK)
				default:
					out, err = a.Engine.SearchGlobal(ctx, args[0], page, pageSize)
				}
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), out)
			})
		},
	}
	cmd.Flags().String("law", "", "search within this statute (title or alias)")
	cmd.Flags().Bool("semantic", false, "rank by embedding similarity")
	cmd.Flags().Bool("knowledge", false, "print the knowledge context")
	cmd.Flags().Int("page", 1, "page number")
	cmd.Flags().Int("page-size", 20, "results per page")
	cmd.Flags().Int("top-k", 0, "results for --law, --semantic and --knowledge (0 for the default)")
	cmd.MarkFlagsMutuallyExclusive("law", "semantic", "knowledge")
	return cmd
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print corpus and embedding coverage",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				stats, err := a.Pipeline.CoverageStats(ctx, a.Config.EmbeddingModel)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), stats)
			})
		},
	}
}
