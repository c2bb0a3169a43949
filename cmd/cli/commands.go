package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/iho/oilledger/internal/adapter/http/dto"
	"github.com/iho/oilledger/internal/domain"
	"github.com/iho/oilledger/internal/infrastructure/auth"
)

func verifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Verify every balance against its change log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := newAPIClient().do(cmd.Context(), http.MethodGet, "/api/v1/ledger/verify", nil, "")
			if err != nil {
				return err
			}

			if err := printJSON(cmd.OutOrStdout(), data); err != nil {
				return err
			}

			var report dto.ReconciliationResponse
			if err := json.Unmarshal(data, &report); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}
			if len(report.Discrepancies) > 0 {
				return fmt.Errorf("ledger verification FAILED: %d subject(s) out of balance", len(report.Discrepancies))
			}

			return nil
		},
	}
}

func nextIDCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "next <prefix>",
		Short: "Allocate the next identifier for a prefix, e.g. CL-",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := domain.ValidatePrefix(args[0]); err != nil {
				return err
			}

			path := "/api/v1/sequences/" + url.PathEscape(args[0]) + "/next"
			data, err := newAPIClient().do(cmd.Context(), http.MethodPost, path, nil, uuid.NewString())
			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), data)
		},
	}
}

func postCmd() *cobra.Command {
	var (
		source, txType, subject string
		amount, method, note    string
		date, idempotencyKey    string
	)

	cmd := &cobra.Command{
		Use:   "post",
		Short: "Post a treasury movement",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("invalid --amount %q: %w", amount, err)
			}

			req := dto.PostTreasuryRequest{
				Source:          domain.AccountSource(source),
				TransactionType: domain.TransactionType(txType),
				SubjectID:       subject,
				Amount:          value,
				PaymentMethod:   domain.PaymentMethod(method),
				Note:            note,
			}
			if date != "" {
				parsed, err := time.Parse(dto.DateLayout, date)
				if err != nil {
					return fmt.Errorf("invalid --date %q: %w", date, err)
				}
				req.Date = dto.NewDate(parsed)
			}

			if idempotencyKey == "" {
				idempotencyKey = uuid.NewString()
			}

			data, err := newAPIClient().do(cmd.Context(), http.MethodPost, "/api/v1/treasury/movements", req, idempotencyKey)
			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), data)
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "client, company, driver or direct")
	cmd.Flags().StringVar(&txType, "type", "", "income or expense")
	cmd.Flags().StringVar(&subject, "subject", "", "client or driver id")
	cmd.Flags().StringVar(&amount, "amount", "", "paid amount")
	cmd.Flags().StringVar(&method, "method", string(domain.PaymentCash), "cash, check, transfer or other")
	cmd.Flags().StringVar(&note, "note", "", "free text note")
	cmd.Flags().StringVar(&date, "date", "", "movement date (YYYY-MM-DD), defaults to today")
	cmd.Flags().StringVar(&idempotencyKey, "idempotency-key", "", "UUID to make the posting safe to retry")
	_ = cmd.MarkFlagRequired("source")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

// importResult reports one posting of a batch import.
type importResult struct {
	Index    int             `json:"index"`
	Movement json.RawMessage `json:"movement,omitempty"`
	Error    string          `json:"error,omitempty"`
}

func importCmd() *cobra.Command {
	var parallel int

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Post a JSON array of treasury movements",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			var batch []dto.PostTreasuryRequest
			if err := json.Unmarshal(raw, &batch); err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}

			client := newAPIClient()
			results := make([]importResult, len(batch))

			g := new(errgroup.Group)
			g.SetLimit(max(parallel, 1))
			for i, req := range batch {
				g.Go(func() error {
					results[i].Index = i
					data, err := client.do(cmd.Context(), http.MethodPost, "/api/v1/treasury/movements", req, uuid.NewString())
					if err != nil {
						results[i].Error = err.Error()
						return nil
					}
					results[i].Movement = data
					return nil
				})
			}
			_ = g.Wait()

			out, err := json.Marshal(results)
			if err != nil {
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), out); err != nil {
				return err
			}

			failed := 0
			for _, r := range results {
				if r.Error != "" {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d postings failed", failed, len(batch))
			}

			return nil
		},
	}

	cmd.Flags().IntVar(&parallel, "parallel", 4, "concurrent requests")

	return cmd
}

func statementCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "statement <id>",
		Short: "Print the account statement of a client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/clients/" + url.PathEscape(args[0]) + "/statement"
			data, err := newAPIClient().do(cmd.Context(), http.MethodGet, path, nil, "")
			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), data)
		},
	}
}

func activityCmd() *cobra.Command {
	var (
		actor, action string
		limit         int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent operator activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if actor != "" {
				q.Set("actor_id", actor)
			}
			if action != "" {
				q.Set("action", action)
			}
			q.Set("limit", fmt.Sprint(limit))

			data, err := newAPIClient().do(cmd.Context(), http.MethodGet, "/api/v1/activity?"+q.Encode(), nil, "")
			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), data)
		},
	}

	cmd.Flags().StringVar(&actor, "actor", "", "only entries of this user id")
	cmd.Flags().StringVar(&action, "action", "", "only entries with this action, e.g. sales.delete")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum entries")

	return cmd
}

func issueTokenCmd() *cobra.Command {
	var (
		secret, subject, name, role string
		ttl                         time.Duration
	)

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Sign an access token for an operator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return errors.New("--secret or JWT_SECRET is required")
			}
			if !domain.Role(role).IsValid() {
				return fmt.Errorf("unknown role %q", role)
			}

			signed, err := auth.NewJWTManager(secret, ttl).Generate(domain.Actor{
				ID:   subject,
				Name: name,
				Role: domain.Role(role),
			})
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), signed)
			return err
		},
	}

	cmd.Flags().StringVar(&secret, "secret", os.Getenv("JWT_SECRET"), "signing secret")
	cmd.Flags().StringVar(&subject, "subject", "", "operator id")
	cmd.Flags().StringVar(&name, "name", "", "operator display name")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleViewer), "operator role")
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("subject")

	return cmd
}
