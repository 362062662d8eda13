package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	authdomain "github.com/Apurer/admin-dashboard/internal/domains/auth/domain"
	uidomain "github.com/Apurer/admin-dashboard/internal/domains/ui/domain"
	userapp "github.com/Apurer/admin-dashboard/internal/domains/users/application"
	userdomain "github.com/Apurer/admin-dashboard/internal/domains/users/domain"
)

func (c *CLI) loginCommand() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session token",
		Args:  cobra.NoArgs,
		RunE: c.run(func(cmd *cobra.Command, _ []string) error {
			if password == "" && c.interactive() {
				answer, err := c.askSecret("Password: ")
				if err != nil {
					return err
				}
				password = answer
			}
			user, err := c.app.Auth.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			c.app.Feedback.Success("Signed in as " + user.DisplayName())
			return nil
		}),
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password (prompted when omitted on a terminal)")
	return cmd
}

func (c *CLI) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the session token",
		Args:  cobra.NoArgs,
		RunE: c.run(func(cmd *cobra.Command, _ []string) error {
			c.app.Auth.SignOut(cmd.Context())
			c.app.Feedback.Info("Signed out")
			return nil
		}),
	}
}

func (c *CLI) whoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: c.run(func(cmd *cobra.Command, _ []string) error {
			user := c.app.Auth.CheckSession(cmd.Context())
			if user == nil {
				return ErrNotSignedIn
			}
			c.render.Identity(*user)
			return nil
		}),
	}
}

func (c *CLI) registerCommand() *cobra.Command {
	var form authdomain.SignUpForm
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: c.run(func(cmd *cobra.Command, _ []string) error {
			user, err := c.app.Auth.Register(cmd.Context(), form)
			if err != nil {
				return err
			}
			c.app.Feedback.Success("Welcome, " + user.DisplayName())
			return nil
		}),
	}
	cmd.Flags().StringVar(&form.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&form.LastName, "last-name", "", "last name")
	cmd.Flags().StringVarP(&form.Email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&form.Password, "password", "p", "", "account password")
	return cmd
}

func (c *CLI) passwordCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Recover a forgotten password",
	}
	cmd.AddCommand(c.passwordForgotCommand(), c.passwordResetCommand())
	return cmd
}

// orDefault returns msg, or fallback when the backend sent none.
func orDefault(msg, fallback string) string {
	if strings.TrimSpace(msg) == "" {
		return fallback
	}
	return msg
}

func (c *CLI) passwordForgotCommand() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "forgot",
		Short: "Mail a password reset link",
		Args:  cobra.NoArgs,
		RunE: c.run(func(cmd *cobra.Command, _ []string) error {
			msg, err := c.app.Auth.ForgotPassword(cmd.Context(), email)
			if err != nil {
				return err
			}
			c.app.Feedback.Success(orDefault(msg, "Password reset email sent"))
			return nil
		}),
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	return cmd
}

func (c *CLI) passwordResetCommand() *cobra.Command {
	var reset authdomain.PasswordReset
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Set a new password with the token from a reset link",
		Args:  cobra.NoArgs,
		RunE: c.run(func(cmd *cobra.Command, _ []string) error {
			if reset.Password == "" && c.interactive() {
				answer, err := c.askSecret("New password: ")
				if err != nil {
					return err
				}
				reset.Password = answer
			}
			msg, err := c.app.Auth.ResetPassword(cmd.Context(), reset)
			if err != nil {
				return err
			}
			c.app.Feedback.Success(orDefault(msg, "Password updated"))
			return nil
		}),
	}
	cmd.Flags().StringVar(&reset.Token, "token", "", "token from the reset link")
	cmd.Flags().StringVarP(&reset.Password, "password", "p", "", "new password (prompted when omitted on a terminal)")
	return cmd
}

func (c *CLI) verifyEmailCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify-email TOKEN",
		Short: "Confirm an email address with the token from a verification mail",
		Args:  cobra.ExactArgs(1),
		RunE: c.run(func(cmd *cobra.Command, args []string) error {
			msg, err := c.app.Auth.VerifyEmail(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			c.app.Feedback.Success(orDefault(msg, "Email verified"))
			return nil
		}),
	}
}

func (c *CLI) usersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "users",
		Aliases: []string{"u"},
		Short:   "Manage dashboard users",
	}
	cmd.PersistentFlags().BoolVarP(&c.assumeYes, "yes", "y", false, "confirm destructive actions without asking")
	cmd.AddCommand(
		c.usersListCommand(),
		c.usersGetCommand(),
		c.usersCreateCommand(),
		c.usersUpdateCommand(),
		c.usersDeleteCommand(),
		c.usersBulkDeleteCommand(),
		c.usersExportCommand(),
		c.usersAvatarCommand(),
		c.usersStatusCommand(),
		c.usersStatsCommand(),
	)
	return cmd
}

// parseSort reads field[:asc|desc].
func parseSort(raw string) userdomain.Sort {
	field, order, _ := strings.Cut(strings.TrimSpace(raw), ":")
	return userdomain.Sort{Field: field, Order: order}
}

func (c *CLI) usersListCommand() *cobra.Command {
	var (
		page, limit  int
		search, sort string
		output       string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users one page at a time",
		Args:  cobra.NoArgs,
		RunE: c.run(func(cmd *cobra.Command, _ []string) error {
			if output != "table" && output != "json" {
				return errUnknownOutput
			}
			ctx := cmd.Context()
			if err := c.requireSession(ctx); err != nil {
				return err
			}
			patch := userapp.FiltersPatch{}
			if cmd.Flags().Changed("page") {
				patch.Page = &page
			}
			if cmd.Flags().Changed("limit") {
				patch.Limit = &limit
			}
			if cmd.Flags().Changed("search") {
				patch.Search = &search
			}
			if cmd.Flags().Changed("sort") {
				s := parseSort(sort)
				patch.Sort = &s
			}
			c.app.Users.SetFilters(patch)
			if _, err := c.app.Users.FetchList(ctx); err != nil {
				return err
			}
			current := c.app.Users.State()
			if output == "json" {
				enc := json.NewEncoder(c.out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"list":       current.List,
					"pagination": map[string]int{"totalCount": current.Total, "page": current.Filters.Page, "limit": current.Filters.Limit},
				})
			}
			c.render.Users(current)
			return nil
		}),
	}
	cmd.Flags().IntVar(&page, "page", userdomain.DefaultPage, "page number, starting at 1")
	cmd.Flags().IntVar(&limit, "limit", userdomain.DefaultLimit, fmt.Sprintf("page size, one of %v", userdomain.PageSizeOptions))
	cmd.Flags().StringVarP(&search, "search", "s", "", "match name or email")
	cmd.Flags().StringVar(&sort, "sort", "", "sort as field[:asc|desc]")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "table or json")
	return cmd
}

func (c *CLI) usersGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show one user",
		Args:  cobra.ExactArgs(1),
		RunE: c.run(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := userdomain.ParseID(args[0])
			if err != nil {
				return err
			}
			if err := c.requireSession(ctx); err != nil {
				return err
			}
			user, err := c.app.Users.FetchByID(ctx, id)
			if err != nil {
				return err
			}
			c.render.User(user)
			return nil
		}),
	}
}

type inputFlags struct {
	name, email, role, status, phone string
}

func (f *inputFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "full name")
	cmd.Flags().StringVar(&f.email, "email", "", "email address")
	cmd.Flags().StringVar(&f.role, "role", "", "admin, moderator, user or guest")
	cmd.Flags().StringVar(&f.status, "status", "", "active, inactive, suspended or pending")
	cmd.Flags().StringVar(&f.phone, "phone", "", "phone number")
}

// apply copies the flags that were set onto in.
func (f *inputFlags) apply(cmd *cobra.Command, in userdomain.Input) userdomain.Input {
	set := func(name string, dst *string, value string) {
		if cmd.Flags().Changed(name) {
			*dst = value
		}
	}
	set("name", &in.Name, f.name)
	set("email", &in.Email, f.email)
	set("role", &in.Role, f.role)
	set("status", &in.Status, f.status)
	set("phone", &in.Phone, f.phone)
	return in
}

func (c *CLI) usersCreateCommand() *cobra.Command {
	var flags inputFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		Args:  cobra.NoArgs,
		RunE: c.run(func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := c.requireSession(ctx); err != nil {
				return err
			}
			in := flags.apply(cmd, userdomain.NewInput("", ""))
			user, err := c.app.Users.Create(ctx, in)
			if err != nil {
				return err
			}
			c.app.Feedback.Success("User created successfully")
			c.render.User(user)
			return nil
		}),
	}
	flags.bind(cmd)
	return cmd
}

func (c *CLI) usersUpdateCommand() *cobra.Command {
	var flags inputFlags
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Edit a user; unset flags keep their current value",
		Args:  cobra.ExactArgs(1),
		RunE: c.run(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := userdomain.ParseID(args[0])
			if err != nil {
				return err
			}
			if err := c.requireSession(ctx); err != nil {
				return err
			}
			existing, err := c.app.Users.FetchByID(ctx, id)
			if err != nil {
				return err
			}
			user, err := c.app.Users.Update(ctx, id, flags.apply(cmd, userdomain.FromUser(existing)))
			if err != nil {
				return err
			}
			c.app.Users.ClearCurrent()
			c.app.Feedback.Success("User updated successfully")
			c.render.User(user)
			return nil
		}),
	}
	flags.bind(cmd)
	return cmd
}

func (c *CLI) usersDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a user after confirmation",
		Args:  cobra.ExactArgs(1),
		RunE: c.run(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := userdomain.ParseID(args[0])
			if err != nil {
				return err
			}
			if err := c.requireSession(ctx); err != nil {
				return err
			}
			return c.confirm(ctx, uidomain.ConfirmOptions{
				Title:       "Delete User",
				Message:     fmt.Sprintf("Are you sure you want to delete user %s? This action cannot be undone.", id),
				ConfirmText: "Delete",
			}, func(ctx context.Context) error {
				if err := c.app.Users.Remove(ctx, id); err != nil {
					return err
				}
				c.app.Feedback.Success("User deleted successfully")
				return nil
			})
		}),
	}
}

func (c *CLI) usersBulkDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "bulk-delete ID...",
		Short: "Delete several users in one request after confirmation",
		Args:  cobra.MinimumNArgs(1),
		RunE: c.run(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ids := make([]userdomain.ID, 0, len(args))
			for _, raw := range args {
				id, err := userdomain.ParseID(raw)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			if err := c.requireSession(ctx); err != nil {
				return err
			}
			return c.confirm(ctx, uidomain.ConfirmOptions{
				Title:       "Delete Users",
				Message:     fmt.Sprintf("Are you sure you want to delete %d users? This action cannot be undone.", len(ids)),
				ConfirmText: "Delete",
			}, func(ctx context.Context) error {
				if err := c.app.Users.RemoveMany(ctx, ids); err != nil {
					return err
				}
				c.app.Feedback.Success(fmt.Sprintf("%d users deleted successfully", len(ids)))
				return nil
			})
		}),
	}
}

func (c *CLI) usersExportCommand() *cobra.Command {
	var search, file string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download matching users as CSV",
		Args:  cobra.NoArgs,
		RunE: c.run(func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := c.requireSession(ctx); err != nil {
				return err
			}
			c.app.Users.SetSearch(search)
			if file == "-" {
				data, err := c.app.Transfers.Export(ctx, "")
				if err != nil {
					return err
				}
				_, err = c.out.Write(data)
				return err
			}
			data, err := c.app.Transfers.Export(ctx, file)
			if err != nil {
				return err
			}
			c.render.Bytes(filepath.Join(c.app.Config.DownloadDir, filepath.Base(file)), len(data))
			c.app.Feedback.Success("Users exported")
			return nil
		}),
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "match name or email")
	cmd.Flags().StringVarP(&file, "file", "f", "users.csv", "file name inside the download dir, or - for stdout")
	return cmd
}

func (c *CLI) usersAvatarCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "avatar ID FILE",
		Short: "Upload a user's avatar image",
		Args:  cobra.ExactArgs(2),
		RunE: c.run(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := userdomain.ParseID(args[0])
			if err != nil {
				return err
			}
			if err := c.requireSession(ctx); err != nil {
				return err
			}
			f, err := os.Open(args[1])
			if err != nil {
				return fmt.Errorf("open avatar: %w", err)
			}
			defer f.Close()
			user, err := c.app.Transfers.UploadAvatar(ctx, id, userdomain.Avatar{
				Name:        f.Name(),
				ContentType: mime.TypeByExtension(filepath.Ext(f.Name())),
				Content:     f,
			})
			if err != nil {
				return err
			}
			c.app.Feedback.Success("Avatar updated")
			c.render.User(user)
			return nil
		}),
	}
}

var errUnknownOutput = errors.New("output must be table or json")

func (c *CLI) usersStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status ID STATUS",
		Short: "Change a user's status (active, inactive, suspended or pending)",
		Args:  cobra.ExactArgs(2),
		RunE: c.run(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := userdomain.ParseID(args[0])
			if err != nil {
				return err
			}
			if err := c.requireSession(ctx); err != nil {
				return err
			}
			user, err := c.app.Users.SetStatus(ctx, id, args[1])
			if err != nil {
				return err
			}
			c.app.Feedback.Success("User status updated")
			c.render.User(user)
			return nil
		}),
	}
}

func (c *CLI) usersStatsCommand() *cobra.Command {
	var search, output string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Count users by role and status",
		Args:  cobra.NoArgs,
		RunE: c.run(func(cmd *cobra.Command, _ []string) error {
			if output != "table" && output != "json" {
				return errUnknownOutput
			}
			ctx := cmd.Context()
			if err := c.requireSession(ctx); err != nil {
				return err
			}
			if cmd.Flags().Changed("search") {
				c.app.Users.SetSearch(search)
			}
			stats, err := c.app.Users.FetchStats(ctx)
			if err != nil {
				return err
			}
			if output == "json" {
				enc := json.NewEncoder(c.out)
				enc.SetIndent("", "  ")
				return enc.Encode(stats)
			}
			c.render.Stats(stats)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "match name or email")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "table or json")
	return cmd
}
