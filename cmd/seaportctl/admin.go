package main

import (
	"fmt"
	"os"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

var adminUsername string

// AdminSecretsCmd generates admin.passwordHash and admin.totpSecret for config.yaml
var AdminSecretsCmd = &cobra.Command{
	Use:   "admin-secrets",
	Short: "Hash an admin password (read from ADMIN_PASSWORD or the terminal) and create a TOTP secret",
	RunE:  adminSecrets,
}

// TOTPCodeCmd prints the current code of ADMIN_TOTP_SECRET
var TOTPCodeCmd = &cobra.Command{
	Use:   "totp-code",
	Short: "Print the current admin TOTP code",
	RunE:  totpCode,
}

func init() {
	AdminSecretsCmd.Flags().StringVar(&adminUsername, "username", "admin", "admin account name shown in authenticator apps")
}

func adminSecrets(cmd *cobra.Command, args []string) error {
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		fmt.Fprint(os.Stderr, "Admin password: ")
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = string(raw)
	}
	if len(password) < 12 {
		return fmt.Errorf("password must be at least 12 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "Seaport Admin",
		AccountName: adminUsername,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return err
	}
	return printJSON(map[string]string{
		"username":     adminUsername,
		"passwordHash": string(hash),
		"totpSecret":   key.Secret(),
		"totpURL":      key.URL(),
	})
}

func totpCode(cmd *cobra.Command, args []string) error {
	secret := os.Getenv("ADMIN_TOTP_SECRET")
	if secret == "" {
		return fmt.Errorf("ADMIN_TOTP_SECRET is not set")
	}
	code, err := totp.GenerateCode(secret, time.Now())
	if err != nil {
		return err
	}
	fmt.Printf("Current TOTP Code: %s\n", code)
	fmt.Printf("Valid for: ~%d seconds\n", 30-time.Now().Unix()%30)
	return nil
}
