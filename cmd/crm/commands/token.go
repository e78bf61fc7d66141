package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"

	"github.com/soinechankit/Soinech-CRM/internal/authz"
	"github.com/soinechankit/Soinech-CRM/internal/middleware"
)

var (
	tokenRole  string
	tokenEmail string
	tokenTTL   time.Duration
)

// tokenCmd mints a bearer token with the configured secret, for local
// development and smoke tests against a running server.
var tokenCmd = &cobra.Command{
	Use:   "token <user-id>",
	Short: "Print a signed access token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := setup()
		if err != nil {
			return err
		}
		if cfg.Auth.JWTSecret == "" {
			return errors.New("auth.jwt_secret is required")
		}
		role, ok := authz.ParseRole(tokenRole)
		if !ok {
			return fmt.Errorf("unknown role %q", tokenRole)
		}
		now := time.Now()
		claims := middleware.Claims{
			Role:  string(role),
			Email: tokenEmail,
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   args[0],
				Issuer:    cfg.Auth.Issuer,
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
			},
		}
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Auth.JWTSecret))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenRole, "role", "sales_executive", "admin, manager or sales_executive")
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "email claim")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", time.Hour, "token lifetime")
	rootCmd.AddCommand(tokenCmd)
}
