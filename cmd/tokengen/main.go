// Package main provides a CLI tool for issuing and inspecting session tokens
// during local development. Tokens signed with the dev key are rejected by any
// deployment that sets JWT_SECRET.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	jwttoken "grace/internal/jwt_token"
	id "grace/pkg/domain"
)

// devSigningKey matches the config fallback when JWT_SECRET is not set.
const devSigningKey = "dev-secret-key-change-in-production"

type tokenOutput struct {
	Token     string            `json:"token"`
	Principal string            `json:"principal"`
	ExpiresIn string            `json:"expires_in"`
	Usage     map[string]string `json:"usage"`
}

type decodeOutput struct {
	Principal string `json:"principal"`
	IssuedAt  string `json:"issued_at,omitempty"`
	ExpiresAt string `json:"expires_at,omitempty"`
	Expired   bool   `json:"expired"`
}

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCmd creates the tokengen CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "tokengen",
		Short:        "Issue and decode grace session tokens for local debugging",
		SilenceUsage: true,
	}
	cmd.AddCommand(newIssueCmd())
	cmd.AddCommand(newDecodeCmd())
	return cmd
}

func newIssueCmd() *cobra.Command {
	var (
		principal  string
		ttl        time.Duration
		jsonOutput bool
	)
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Sign a token for a principal",
		Long: `Sign a token for a principal with JWT_SECRET, or the dev key when unset.
The token is not backed by a session, so the server only accepts it once a
session record for it exists.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			principalID := id.PrincipalID(principal)
			if principalID.IsNil() {
				principalID = id.NewPrincipalID()
			}

			svc := jwttoken.NewJWTService(signingKey(), ttl)
			token, err := svc.Issue(cmd.Context(), principalID)
			if err != nil {
				return fmt.Errorf("issue token: %w", err)
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				return printJSON(out, tokenOutput{
					Token:     token,
					Principal: principalID.String(),
					ExpiresIn: svc.TTL().String(),
					Usage: map[string]string{
						"header": "Authorization: Bearer <token>",
						"cookie": jwttoken.CookieToken + "=<token>",
					},
				})
			}
			fmt.Fprintln(out, "Session Token (JWT)")
			fmt.Fprintln(out, "===================")
			fmt.Fprintf(out, "Principal:  %s\n", principalID)
			fmt.Fprintf(out, "Expires In: %s\n", svc.TTL())
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Token:")
			fmt.Fprintln(out, token)
			return nil
		},
	}
	cmd.Flags().StringVar(&principal, "principal", "", "Principal ID. Generated if empty.")
	cmd.Flags().DurationVar(&ttl, "ttl", jwttoken.DefaultTTL, "Token time-to-live")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <token>",
		Short: "Decode a token without verifying it and report whether it expired",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			claims, ok := jwttoken.DecodeUnsafe(args[0])
			if !ok {
				return fmt.Errorf("token is not decodable")
			}
			out := decodeOutput{
				Principal: claims.ID,
				Expired:   jwttoken.IsExpired(cmd.Context(), args[0]),
			}
			if claims.IssuedAt != nil {
				out.IssuedAt = claims.IssuedAt.UTC().Format(time.RFC3339)
			}
			if claims.ExpiresAt != nil {
				out.ExpiresAt = claims.ExpiresAt.UTC().Format(time.RFC3339)
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
}

func signingKey() string {
	if key := os.Getenv("JWT_SECRET"); key != "" {
		return key
	}
	return devSigningKey
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
