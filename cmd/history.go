package main

import (
	"fmt"
	"io"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/sitebot/internal/model"
)

var (
	historyCompanyID string
	historyLimit     int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print recent chat history for a company",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if historyCompanyID == "" {
			return eris.New("--company-id is required")
		}
		if err := cfg.Validate("history"); err != nil {
			return err
		}

		st, err := initStore(ctx, cfg)
		if err != nil {
			return eris.Wrap(err, "open store")
		}
		defer st.Close()

		msgs, err := st.ListChatHistory(ctx, historyCompanyID, historyLimit)
		if err != nil {
			return eris.Wrap(err, "list chat history")
		}
		printHistory(cmd.OutOrStdout(), msgs)
		return nil
	},
}

func init() {
	historyCmd.Flags().StringVar(&historyCompanyID, "company-id", "", "company ID")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 50, "max messages to show")
	rootCmd.AddCommand(historyCmd)
}

func printHistory(w io.Writer, msgs []model.ChatMessage) {
	if len(msgs) == 0 {
		fmt.Fprintln(w, "no chat history")
		return
	}
	for _, m := range msgs {
		fmt.Fprintf(w, "[%s] (%s, %dms)\nQ: %s\nA: %s\n\n",
			m.CreatedAt.Format(time.RFC3339), m.Source, m.ResponseTimeMS, m.Question, m.Response)
	}
}
