package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"dream-oracle/internal/crawler"
	"dream-oracle/internal/keywords"
	"dream-oracle/internal/webpage"
)

var (
	crawlBase      string
	crawlOverwrite bool
	crawlDryRun    bool
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Build the keyword index from a dream dictionary home page",
	Long: `Fetch the dictionary home page and import every relative *.html link
whose text is non-empty as keyword -> absolute URL. Existing keywords are
kept unless --overwrite is given.`,
	RunE: runCrawl,
}

var addCmd = &cobra.Command{
	Use:   "add <keyword> <url>",
	Short: "Add or replace a keyword",
	Args:  cobra.ExactArgs(2),
	RunE:  runAdd,
}

var lookupCmd = &cobra.Command{
	Use:   "lookup <keyword>",
	Short: "Resolve a keyword, or list close matches",
	Args:  cobra.ExactArgs(1),
	RunE:  runLookup,
}

func init() {
	crawlCmd.Flags().StringVar(&crawlBase, "base", "", "dictionary home page (default: DICTIONARY_URL)")
	crawlCmd.Flags().BoolVar(&crawlOverwrite, "overwrite", false, "replace URLs of existing keywords")
	crawlCmd.Flags().BoolVar(&crawlDryRun, "dry-run", false, "print the links instead of saving them")
}

func openIndex() (*keywords.Index, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	repo, err := keywords.NewFileRepository(cfg.KeywordsPath)
	if err != nil {
		return nil, err
	}
	return keywords.NewIndex(repo, keywords.WithSuggestions(cfg.SuggestLimit, cfg.SuggestCutoff))
}

func runCrawl(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	base := crawlBase
	if base == "" {
		base = cfg.DictionaryURL
	}

	c := crawler.New(webpage.New(cfg.FetchTimeout, cfg.FetchUserAgent), newLogger())
	links, err := c.Crawl(ctx, base)
	if err != nil {
		return err
	}
	if crawlDryRun {
		for k, v := range links {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", k, v)
		}
		return nil
	}

	ix, err := openIndex()
	if err != nil {
		return err
	}
	added, err := ix.Merge(links, crawlOverwrite)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✅ %d links found, %d saved, index now has %d keywords\n", len(links), added, ix.Len())
	return nil
}

func runAdd(cmd *cobra.Command, args []string) error {
	ix, err := openIndex()
	if err != nil {
		return err
	}
	if err := ix.Add(args[0], args[1]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✅ 已新增：%s → %s\n", strings.TrimSpace(args[0]), args[1])
	return nil
}

func runLookup(cmd *cobra.Command, args []string) error {
	ix, err := openIndex()
	if err != nil {
		return err
	}
	url, err := ix.Resolve(args[0])
	if err == nil {
		fmt.Fprintln(cmd.OutOrStdout(), url)
		return nil
	}
	if !errors.Is(err, keywords.ErrNotFound) {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "🛑 %s not found\n", args[0])
	for _, s := range ix.Suggest(args[0]) {
		fmt.Fprintf(out, "  %s (%.2f)\n", s.Keyword, s.Score)
	}
	return nil
}
