package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/safar/agromarket/internal/auth"
)

type adminOptions struct {
	email    string
	password string
	name     string
	phone    string
	location string
}

func newAdminCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage administrator accounts",
	}

	in := &adminOptions{}
	create := &cobra.Command{
		Use:   "create",
		Short: "Provision an approved admin account",
		Long: `Create an administrator. Admins cannot register through the API,
so the first one is created here.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdminCreate(cmd, opts, in)
		},
	}
	create.Flags().StringVar(&in.email, "email", "", "login email (required)")
	create.Flags().StringVar(&in.password, "password", "", "initial password (required)")
	create.Flags().StringVar(&in.name, "name", "", "full name (required)")
	create.Flags().StringVar(&in.phone, "phone", "", "phone number")
	create.Flags().StringVar(&in.location, "location", "", "location")
	for _, name := range []string{"email", "password", "name"} {
		create.MarkFlagRequired(name)
	}
	cmd.AddCommand(create)

	return cmd
}

func runAdminCreate(cmd *cobra.Command, opts *RootOptions, in *adminOptions) error {
	if len(in.password) < auth.MinPasswordLength {
		return auth.ErrWeakPassword
	}
	if len(in.password) > auth.MaxPasswordLength {
		return auth.ErrPasswordTooLong
	}

	db, cfg, err := opts.open(cmd.Context())
	if err != nil {
		return err
	}
	defer db.Close()

	// Provisioning never opens a session, so no session store is wired.
	provider := auth.NewProvider(auth.SQLAccounts{DB: db}, nil, cfg.Auth, opts.logger(cmd))
	account, err := provider.CreateAdmin(cmd.Context(), auth.SignUpInput{
		Email:    in.email,
		Password: in.password,
		FullName: in.name,
		Phone:    in.phone,
		Location: in.location,
	})
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(account)
}
