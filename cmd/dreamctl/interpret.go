package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"dream-oracle/internal/app"
	"dream-oracle/internal/notify"
	"dream-oracle/internal/oracle"
)

var interpretRequester string

var interpretCmd = &cobra.Command{
	Use:   "interpret <keyword>",
	Short: "Run the full pipeline for one keyword and print the reply",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runInterpret,
}

func init() {
	interpretCmd.Flags().StringVar(&interpretRequester, "as", "cli", "requester id recorded with the result")
}

func runInterpret(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := app.Build(ctx, cfg, newLogger(), notify.Nop{})
	if err != nil {
		return err
	}
	defer a.Close()

	keyword := strings.Join(args, " ")
	res := a.Service.Interpret(ctx, oracle.Request{Keyword: keyword, RequesterID: interpretRequester})
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, oracle.FormatReply(res))
	if u := oracle.ImageURL(cfg.BaseURL, res.Image); u != "" {
		fmt.Fprintf(out, "🖼️ %s\n", u)
	}
	return nil
}
