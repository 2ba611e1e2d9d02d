// Package account holds the commands that manage the saved session.
package account

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"blitzscan/cmd/blitzscan/app"
	"blitzscan/internal/history"
	"blitzscan/internal/models"
	"blitzscan/pkg/errors"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// prompt asks for a value when the flag was left empty.
func prompt(value *string, text string, mask bool) error {
	if *value != "" {
		return nil
	}
	input := pterm.DefaultInteractiveTextInput
	if mask {
		input = *input.WithMask("*")
	}
	result, err := input.Show(text)
	if err != nil {
		return err
	}
	*value = result
	return nil
}

func NewLoginCommand(opts *app.Options) *cobra.Command {
	var email, password string

	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and keep the session on this machine",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			if err := prompt(&email, "Correo", false); err != nil {
				return err
			}
			if err := prompt(&password, "Contraseña", true); err != nil {
				return err
			}

			a, err := app.New(cmd.Context(), *opts)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			defer a.Close()

			user, err := a.Session.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			pterm.Success.Printfln("Bienvenido, %s", user.DisplayName())
			return nil
		},
	}

	loginCmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	loginCmd.Flags().StringVarP(&password, "password", "p", "", "Account password (prompted when empty)")

	return loginCmd
}

func NewRegisterCommand(opts *app.Options) *cobra.Command {
	form := models.RegisterForm{}

	registerCmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			if err := prompt(&form.Email, "Correo", false); err != nil {
				return err
			}
			if err := prompt(&form.Password, "Contraseña", true); err != nil {
				return err
			}

			a, err := app.New(cmd.Context(), *opts)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			defer a.Close()

			user, err := a.Session.Register(cmd.Context(), form)
			if err != nil {
				return err
			}
			pterm.Success.Printfln("Cuenta creada para %s", user.Email)
			return nil
		},
	}

	registerCmd.Flags().StringVar(&form.FirstName, "first-name", "", "First name")
	registerCmd.Flags().StringVar(&form.LastName, "last-name", "", "Last name")
	registerCmd.Flags().StringVarP(&form.Email, "email", "e", "", "Account email")
	registerCmd.Flags().StringVarP(&form.Password, "password", "p", "", "Account password (prompted when empty)")
	registerCmd.Flags().StringVar(&form.Organization, "organization", "", "Organization")

	return registerCmd
}

func NewLogoutCommand(opts *app.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			a, err := app.New(cmd.Context(), *opts)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			defer a.Close()

			if err := a.Session.Logout(cmd.Context()); err != nil {
				return err
			}
			pterm.Success.Println("Sesión cerrada")
			return nil
		},
	}
}

func NewWhoamiCommand(opts *app.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in profile and scan statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			a, err := app.New(cmd.Context(), *opts)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			defer a.Close()

			user := a.Session.User()
			if user == nil {
				return errors.ErrNotAuthenticated
			}
			scans, err := a.Scans.ListScans(cmd.Context(), a.Owner())
			if err != nil {
				return err
			}

			return pterm.DefaultTable.
				WithData(ProfileTable(user, history.ComputeStats(scans, time.Now()))).
				WithWriter(cmd.OutOrStdout()).
				Render()
		},
	}
}

// ProfileTable lays out the profile view as label/value rows.
func ProfileTable(user *models.User, stats history.Stats) pterm.TableData {
	return pterm.TableData{
		{"Nombre", user.DisplayName()},
		{"Correo", user.Email},
		{"Rol", orDash(user.Role)},
		{"Organización", orDash(user.Organization)},
		{"Miembro desde", orDash(user.CreatedAt)},
		{"Imagen", orDash(user.ProfileImage)},
		{"Escaneos", fmt.Sprintf("%d", stats.Total)},
		{"Completados", fmt.Sprintf("%d", stats.Completed)},
		{"Última semana", fmt.Sprintf("%d", stats.LastWeek)},
	}
}

func orDash(v string) string {
	if v == "" {
		return "-"
	}
	return v
}

func NewPasswdCommand(opts *app.Options) *cobra.Command {
	var oldPassword, newPassword string

	passwdCmd := &cobra.Command{
		Use:   "passwd",
		Short: "Change the account password",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			a, err := app.New(cmd.Context(), *opts)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			defer a.Close()

			if !a.Session.IsAuthenticated() {
				return errors.ErrNotAuthenticated
			}
			if err := prompt(&oldPassword, "Contraseña actual", true); err != nil {
				return err
			}
			if err := prompt(&newPassword, "Nueva contraseña", true); err != nil {
				return err
			}

			if err := a.Session.ChangePassword(cmd.Context(), oldPassword, newPassword); err != nil {
				return err
			}
			pterm.Success.Println("Contraseña actualizada")
			return nil
		},
	}

	passwdCmd.Flags().StringVar(&oldPassword, "old", "", "Current password (prompted when empty)")
	passwdCmd.Flags().StringVar(&newPassword, "new", "", "New password (prompted when empty)")

	return passwdCmd
}

func NewAvatarCommand(opts *app.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "avatar <file>",
		Short: "Upload a new profile image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			image, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer image.Close()

			a, err := app.New(cmd.Context(), *opts)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			defer a.Close()

			ref, err := a.Session.UpdateProfileImage(cmd.Context(), filepath.Base(args[0]), image)
			if err != nil {
				return err
			}
			pterm.Success.Printfln("Imagen de perfil actualizada: %s", ref)
			return nil
		},
	}
}
