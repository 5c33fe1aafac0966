package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/nearcart/config"
	"github.com/shashiranjanraj/nearcart/pkg/auth"
	"github.com/shashiranjanraj/nearcart/pkg/validate"
)

type tokenRequest struct {
	UserID uint          `json:"user" validate:"required"`
	Role   string        `json:"role" validate:"required,in=customer|shop_owner|admin"`
	TTL    time.Duration `json:"ttl"  validate:"gt=0"`
}

var tokenFlags tokenRequest

// nearcart token:issue
var tokenIssueCmd = &cobra.Command{
	Use:   "token:issue",
	Short: "Mint a bearer token for local development",
	RunE: func(cmd *cobra.Command, args []string) error {
		if errs := validate.Struct(tokenFlags); validate.HasErrors(errs) {
			msgs := make([]string, 0, len(errs))
			for _, m := range errs {
				msgs = append(msgs, m)
			}
			sort.Strings(msgs)
			return errors.New(strings.Join(msgs, " "))
		}
		if err := config.Load(); err != nil {
			return err
		}

		tok, err := auth.GenerateToken(tokenFlags.UserID, tokenFlags.Role, tokenFlags.TTL)
		if err != nil {
			return fmt.Errorf("sign token: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	f := tokenIssueCmd.Flags()
	f.UintVar(&tokenFlags.UserID, "user", 0, "User id to embed in the token")
	f.StringVar(&tokenFlags.Role, "role", "customer", "Role: customer, shop_owner or admin")
	f.DurationVar(&tokenFlags.TTL, "ttl", 24*time.Hour, "Token lifetime")
}
