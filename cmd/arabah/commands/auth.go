package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arabah/arabah/app"
	"github.com/arabah/arabah/operations"
)

func authCmds(c *cli) []*cobra.Command {
	return []*cobra.Command{
		loginCmd(c),
		verifyCmd(c),
		resendOTPCmd(c),
		noParamsCmd(c, "logout", "End the session", func(s *operations.Set) runner {
			return bind(s.Logout, operations.NoParams{})
		}),
		deleteAccountCmd(c),
	}
}

func loginCmd(c *cli) *cobra.Command {
	var p operations.LoginParams
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Request a one-time password for a phone number",
		Args:  cobra.NoArgs,
		RunE: c.withApp(func(cmd *cobra.Command, _ []string, a *app.App) error {
			return execute(cmd.Context(), c, cmd.OutOrStdout(), a.Ops.Login, p)
		}),
	}
	cmd.Flags().StringVar(&p.CountryCode, "country-code", "+966", "country calling code")
	cmd.Flags().StringVar(&p.PhoneNumber, "phone", "", "phone number without the country code")
	return cmd
}

func verifyCmd(c *cli) *cobra.Command {
	var p operations.VerifyOTPParams
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify the one-time password and store the session",
		Args:  cobra.NoArgs,
		RunE: c.withApp(func(cmd *cobra.Command, _ []string, a *app.App) error {
			return execute(cmd.Context(), c, cmd.OutOrStdout(), a.Ops.VerifyOTP, p)
		}),
	}
	cmd.Flags().StringVar(&p.UserID, "user", "", "user id returned by login")
	cmd.Flags().StringVar(&p.OTP, "otp", "", "one-time password")
	return cmd
}

func resendOTPCmd(c *cli) *cobra.Command {
	var p operations.ResendOTPParams
	cmd := &cobra.Command{
		Use:   "resend-otp",
		Short: "Send the one-time password again",
		Args:  cobra.NoArgs,
		RunE: c.withApp(func(cmd *cobra.Command, _ []string, a *app.App) error {
			return execute(cmd.Context(), c, cmd.OutOrStdout(), a.Ops.ResendOTP, p)
		}),
	}
	cmd.Flags().StringVar(&p.UserID, "user", "", "user id returned by login")
	return cmd
}

func deleteAccountCmd(c *cli) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete-account",
		Short: "Delete the account and end the session",
		Args:  cobra.NoArgs,
		RunE: c.withApp(func(cmd *cobra.Command, _ []string, a *app.App) error {
			if !yes {
				return fmt.Errorf("refusing to delete the account without --yes")
			}
			return execute(cmd.Context(), c, cmd.OutOrStdout(), a.Ops.DeleteAccount, operations.NoParams{})
		}),
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the deletion")
	return cmd
}
