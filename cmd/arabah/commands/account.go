package commands

import (
	"github.com/spf13/cobra"

	"github.com/arabah/arabah/app"
	"github.com/arabah/arabah/operations"
)

func accountCmds(c *cli) []*cobra.Command {
	return []*cobra.Command{
		profileCmd(c),
		supportCmd(c),
		notificationsCmd(c),
	}
}

func profileCmd(c *cli) *cobra.Command {
	var p operations.ProfileParams
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Update the profile",
		Args:  cobra.NoArgs,
		RunE: c.withApp(func(cmd *cobra.Command, _ []string, a *app.App) error {
			return execute(cmd.Context(), c, cmd.OutOrStdout(), a.Ops.UpdateProfile, p)
		}),
	}
	cmd.Flags().StringVar(&p.Name, "name", "", "display name")
	cmd.Flags().StringVar(&p.Email, "email", "", "email address")
	cmd.Flags().StringVar(&p.CountryCode, "country-code", "", "country calling code")
	cmd.Flags().StringVar(&p.PhoneNumber, "phone", "", "phone number without the country code")
	cmd.Flags().StringVar(&p.Image, "image", "", "profile image URL")
	return cmd
}

func supportCmd(c *cli) *cobra.Command {
	var p operations.TicketParams
	cmd := noParamsCmd(c, "support", "List support tickets", func(s *operations.Set) runner {
		return bind(s.Tickets, operations.NoParams{})
	})
	create := &cobra.Command{
		Use:   "contact",
		Short: "Send a message to support",
		Args:  cobra.NoArgs,
		RunE: c.withApp(func(cmd *cobra.Command, _ []string, a *app.App) error {
			return execute(cmd.Context(), c, cmd.OutOrStdout(), a.Ops.CreateTicket, p)
		}),
	}
	create.Flags().StringVar(&p.Name, "name", "", "your name")
	create.Flags().StringVar(&p.Email, "email", "", "reply-to email address")
	create.Flags().StringVar(&p.Message, "message", "", "message text")
	cmd.AddCommand(create)
	return cmd
}

func notificationsCmd(c *cli) *cobra.Command {
	cmd := noParamsCmd(c, "notifications", "List notifications", func(s *operations.Set) runner {
		return bind(s.Notifications, operations.NoParams{})
	})
	cmd.AddCommand(
		setNotificationsCmd(c, "enable", "Turn push notifications on", true),
		setNotificationsCmd(c, "disable", "Turn push notifications off", false),
	)
	return cmd
}

func setNotificationsCmd(c *cli, use, short string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: c.withApp(func(cmd *cobra.Command, _ []string, a *app.App) error {
			return execute(cmd.Context(), c, cmd.OutOrStdout(), a.Ops.SetNotifications,
				operations.NotificationParams{Enabled: enabled})
		}),
	}
}
