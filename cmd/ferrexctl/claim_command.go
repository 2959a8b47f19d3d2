// Ferrex media server core
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/spf13/cobra"

	"github.com/ferrex/mediaserver/internal/account"
	"github.com/ferrex/mediaserver/internal/config"
)

func newClaimCommand() *cobra.Command {
	var dataDir string

	claim := &cobra.Command{
		Use:   "claim",
		Short: "First-Run Claim bootstrap (spec.md §4.8)",
	}
	claim.PersistentFlags().StringVar(&dataDir, "data-dir", "./data/account", "Badger data directory backing claims and users")

	claim.AddCommand(newStartClaimCommand(&dataDir))
	claim.AddCommand(newConfirmClaimCommand(&dataDir))
	claim.AddCommand(newCreateAdminCommand(&dataDir))

	return claim
}

// openService opens the Badger-backed account.Service a claim
// subcommand needs, using AUTH_TOKEN_KEY from the environment to sign
// claim tokens the same way the running server would.
func openService(dataDir string) (*account.Service, *badger.DB, error) {
	secret := os.Getenv("AUTH_TOKEN_KEY")
	if secret == "" {
		return nil, nil, fmt.Errorf("AUTH_TOKEN_KEY is not set; run `ferrexctl init` first")
	}

	opts := badger.DefaultOptions(dataDir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, nil, fmt.Errorf("open badger store at %s: %w", dataDir, err)
	}

	pepper := os.Getenv("AUTH_PASSWORD_PEPPER")
	crypto := account.NewCrypto(account.DefaultArgon2Params(), []byte(pepper))
	svc := account.NewService(
		account.NewBadgerClaimStore(db),
		account.NewBadgerUserStore(db),
		crypto,
		config.DefaultPasswordPolicy(),
		5,
		[]byte(secret),
	)
	return svc, db, nil
}

func newStartClaimCommand(dataDir *string) *cobra.Command {
	var lanOnly bool

	cmd := &cobra.Command{
		Use:   "start-claim",
		Short: "Begin a First-Run Claim and print its claim_code",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, db, err := openService(*dataDir)
			if err != nil {
				return err
			}
			defer db.Close()

			claim, err := svc.StartClaim(context.Background(), lanOnly)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]string{"FIELD", "VALUE"}, [][]string{
				{"claim_id", claim.ClaimID.String()},
				{"claim_code", claim.ClaimCode},
				{"expires_at", claim.ExpiresAt.Format(timeLayout)},
				{"lan_only", fmt.Sprintf("%v", claim.LanOnly)},
			}))
			return nil
		},
	}
	cmd.Flags().BoolVar(&lanOnly, "lan-only", false, "Restrict the claim to LAN-originated confirmations")
	return cmd
}

func newConfirmClaimCommand(dataDir *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "confirm-claim <claim-code>",
		Short: "Exchange a claim_code for a signed claim_token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, db, err := openService(*dataDir)
			if err != nil {
				return err
			}
			defer db.Close()

			claim, token, err := svc.ConfirmClaim(context.Background(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]string{"FIELD", "VALUE"}, [][]string{
				{"claim_id", claim.ClaimID.String()},
				{"claim_token", token},
			}))
			return nil
		},
	}
	return cmd
}

func newCreateAdminCommand(dataDir *string) *cobra.Command {
	var (
		username    string
		password    string
		displayName string
		claimID     string
		claimToken  string
	)

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Consume a claim_token and create the first admin user",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, db, err := openService(*dataDir)
			if err != nil {
				return err
			}
			defer db.Close()

			user, token, err := svc.CreateInitialAdmin(context.Background(), account.CreateInitialAdminRequest{
				Username:    username,
				Password:    password,
				DisplayName: displayName,
				ClaimID:     claimID,
				ClaimToken:  claimToken,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]string{"FIELD", "VALUE"}, [][]string{
				{"user_id", user.UserID.String()},
				{"username", user.Username},
				{"auth_token", token.Token},
				{"expires_at", token.ExpiresAt.Format(timeLayout)},
			}))
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "Admin username")
	cmd.Flags().StringVar(&password, "password", "", "Admin password")
	cmd.Flags().StringVar(&displayName, "display-name", "", "Admin display name")
	cmd.Flags().StringVar(&claimID, "claim-id", "", "claim_id returned by start-claim")
	cmd.Flags().StringVar(&claimToken, "claim-token", "", "claim_token returned by confirm-claim")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	_ = cmd.MarkFlagRequired("claim-id")
	_ = cmd.MarkFlagRequired("claim-token")

	return cmd
}
