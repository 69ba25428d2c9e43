package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	askName      string
	askURL       string
	askCompanyID string
)

var askCmd = &cobra.Command{
	Use:   "ask QUESTION...",
	Short: "Answer one question about a company website",
	Long:  "Builds a chatbot from --name/--url (or reuses a saved one via --company-id) and prints the answer to a single question.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if askCompanyID == "" && (askName == "" || askURL == "") {
			return eris.New("either --company-id or both --name and --url are required")
		}

		env, err := initApp(ctx, cfg, "ask")
		if err != nil {
			return err
		}
		defer env.Close()

		companyID := askCompanyID
		if companyID == "" {
			res, err := env.Service.CreateChatbot(ctx, askName, askURL)
			if err != nil {
				return eris.Wrap(err, "create chatbot")
			}
			companyID = res.Session.CompanyID
			zap.L().Info("chatbot ready",
				zap.String("company_id", companyID),
				zap.String("title", res.Title),
				zap.Int("services", res.ServicesCount),
			)
		}

		answer, err := env.Service.Ask(ctx, companyID, strings.Join(args, " "))
		if err != nil {
			return eris.Wrap(err, "ask")
		}

		fmt.Fprintln(cmd.OutOrStdout(), answer.Text)
		zap.L().Debug("answered",
			zap.String("source", string(answer.Source)),
			zap.Int64("response_time_ms", answer.ResponseTimeMS),
		)
		return nil
	},
}

func init() {
	askCmd.Flags().StringVar(&askName, "name", "", "company name")
	askCmd.Flags().StringVar(&askURL, "url", "", "company website URL")
	askCmd.Flags().StringVar(&askCompanyID, "company-id", "", "reuse a previously built chatbot")
	rootCmd.AddCommand(askCmd)
}
