package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lazypower/spacetime/internal/auth"
)

var (
	tokenLogin     string
	tokenName      string
	tokenAvatarURL string
	tokenTTL       time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token [user-id]",
	Short: "Mint a bearer token for local development",
	Long:  "Sign a token for the given user id with the configured secret. Intended for local testing against the API.",
	Args:  cobra.ExactArgs(1),
	RunE:  runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenLogin, "login", "", "Login stored on the user")
	tokenCmd.Flags().StringVar(&tokenName, "name", "", "Display name stored on the user")
	tokenCmd.Flags().StringVar(&tokenAvatarURL, "avatar-url", "", "Avatar URL stored on the user")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "Token lifetime (default auth.token_ttl)")
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Auth.Secret == "" {
		return errors.New("auth.secret (or JWT_SECRET) is required")
	}

	ttl := tokenTTL
	if ttl == 0 {
		ttl = cfg.Auth.TokenTTL
	}

	token, err := auth.NewHMAC(cfg.Auth.Secret).Sign(auth.Identity{
		Subject:   args[0],
		Login:     tokenLogin,
		Name:      tokenName,
		AvatarURL: tokenAvatarURL,
	}, ttl)
	if err != nil {
		return fmt.Errorf("sign token: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
