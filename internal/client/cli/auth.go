package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/organlink/internal/client/client"
	"github.com/dmitrijs2005/organlink/internal/server/models"
	"github.com/spf13/cobra"
)

func newRegisterCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "register",
		Short: "Create an OrganLink account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.register(cmd)
		},
	}
}

func newLoginCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Sign in and print the issued tokens",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.login(cmd)
		},
	}
}

func newMeCmd(a *app) *cobra.Command {
	var accessToken string
	cmd := &cobra.Command{
		Use:   "me",
		Short: "Show the account behind an access token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := a.client.Me(cmd.Context(), accessToken)
			if err != nil {
				return err
			}
			printUser(cmd.OutOrStdout(), user)
			return nil
		},
	}
	cmd.Flags().StringVar(&accessToken, "access-token", "", "access token from login")
	_ = cmd.MarkFlagRequired("access-token")
	return cmd
}

func newActivityCmd(a *app) *cobra.Command {
	var (
		accessToken string
		limit       int
	)
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "List recent sign-in activity of the account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			records, err := a.client.Activity(cmd.Context(), accessToken, limit)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(w, "No activity")
				return nil
			}
			for _, r := range records {
				line := fmt.Sprintf("%s  %-8s %-7s %s", r.CreatedAt.Format(time.RFC3339), r.Action, r.Status, r.SourceAddress)
				if r.ErrorMessage != nil {
					line += "  " + *r.ErrorMessage
				}
				fmt.Fprintln(w, line)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&accessToken, "access-token", "", "access token from login")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "number of records to show")
	_ = cmd.MarkFlagRequired("access-token")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	var accessToken, refreshToken string
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Revoke a session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.client.Logout(cmd.Context(), accessToken, refreshToken); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
	cmd.Flags().StringVar(&accessToken, "access-token", "", "access token from login")
	cmd.Flags().StringVar(&refreshToken, "refresh-token", "", "refresh token to revoke as well")
	_ = cmd.MarkFlagRequired("access-token")
	return cmd
}

func (a *app) register(cmd *cobra.Command) error {
	w := cmd.OutOrStdout()
	var in models.RegistrationInput

	prompts := []struct {
		label string
		dst   *string
	}{
		{"Email", &in.Email},
		{"First name", &in.FirstName},
		{"Last name", &in.LastName},
		{"Date of birth (YYYY-MM-DD)", &in.DateOfBirth},
		{"Phone number", &in.PhoneNumber},
		{"User type (DONOR, RECIPIENT, MEDICAL_PROFESSIONAL)", &in.UserType},
	}
	for _, p := range prompts {
		v, err := GetSimpleText(a.reader, p.label, w)
		if err != nil {
			return err
		}
		*p.dst = v
	}

	var err error
	if in.Password, err = GetPassword("Password", w); err != nil {
		return err
	}
	if in.ConfirmPassword, err = GetPassword("Confirm password", w); err != nil {
		return err
	}

	res, err := a.client.Register(cmd.Context(), in)
	if err != nil {
		if errors.Is(err, client.ErrConflict) {
			return fmt.Errorf("%s is already registered", in.Email)
		}
		return err
	}

	fmt.Fprintln(w, res.Message)
	printUser(w, res.User)
	return nil
}

func (a *app) login(cmd *cobra.Command) error {
	w := cmd.OutOrStdout()

	email, err := GetSimpleText(a.reader, "Email", w)
	if err != nil {
		return err
	}
	password, err := GetPassword("Password", w)
	if err != nil {
		return err
	}

	res, err := a.client.Login(cmd.Context(), models.Credential{Email: email, Password: password})
	if err != nil {
		return err
	}

	fmt.Fprintln(w, res.Message)
	printUser(w, res.User)
	if res.Tokens != nil {
		fmt.Fprintf(w, "Access token:  %s\n", res.Tokens.AccessToken)
		fmt.Fprintf(w, "Refresh token: %s\n", res.Tokens.RefreshToken)
		fmt.Fprintf(w, "Expires at:    %s\n", res.Tokens.ExpiresAt.Local().Format("2006-01-02 15:04:05"))
	}
	return nil
}

func printUser(w io.Writer, u *models.SanitizedIdentity) {
	if u == nil {
		return
	}
	fmt.Fprintf(w, "%s %s <%s> (%s) id=%s\n", u.FirstName, u.LastName, u.Email, u.UserType, u.ID)
}
