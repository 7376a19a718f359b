package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	jwttoken "claimtriage/internal/jwt_token"
	"claimtriage/internal/platform/config"
	"claimtriage/pkg/domain"
)

var (
	tokenActor string
	tokenTTL   time.Duration
)

// tokenCmd mints a bearer token for local testing, standing in for the
// identity provider.
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a development bearer token",
	Example: `  server token --actor owner:alice
  server token --actor admin:ops-1 --ttl 1h`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.FromEnv()
		if err != nil {
			return err
		}
		actor, err := domain.ParseActor(tokenActor)
		if err != nil {
			return err
		}
		if actor.Role == domain.RoleSystem {
			return fmt.Errorf("system callers use the admin token, not a bearer token")
		}
		svc := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)
		token, err := svc.IssueToken(actor, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenActor, "actor", "", "actor as role:id, e.g. owner:alice")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 15*time.Minute, "token lifetime")
	_ = tokenCmd.MarkFlagRequired("actor")
}
