package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/nhle/taskpilot/internal/model"
)

func init() {
	login := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		RunE:  runLogin,
	}
	login.Flags().String("email", "", "Account email")
	login.Flags().String("username", "", "Account username (instead of email)")
	login.Flags().String("password", "", "Password (default: $TASKPILOT_PASSWORD or prompt)")

	register := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		RunE:  runRegister,
	}
	register.Flags().String("username", "", "Username")
	register.Flags().String("email", "", "Email")
	register.Flags().String("password", "", "Password (default: $TASKPILOT_PASSWORD or prompt)")
	register.Flags().String("first-name", "", "First name")
	register.Flags().String("last-name", "", "Last name")

	logout := &cobra.Command{
		Use:   "logout",
		Short: "Sign out and clear the stored session",
		RunE:  runLogout,
	}

	whoami := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE:  runWhoami,
	}
	whoami.Flags().Bool("refresh", false, "Fetch the profile from the server")

	RootCmd.AddCommand(login, register, logout, whoami)
}

func passwordFlag(cmd *cobra.Command) string {
	pw, _ := cmd.Flags().GetString("password")
	if pw == "" {
		pw = os.Getenv("TASKPILOT_PASSWORD")
	}
	return pw
}

func runLogin(cmd *cobra.Command, args []string) error {
	creds := model.Credentials{Password: passwordFlag(cmd)}
	creds.Email, _ = cmd.Flags().GetString("email")
	creds.Username, _ = cmd.Flags().GetString("username")

	if err := promptCredentials(&creds); err != nil {
		return err
	}

	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	r := rt.gw.Login(cmd.Context(), creds)
	if err := resultErr("login", r); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", r.Value.Name())
	return nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	reg := model.Registration{Password: passwordFlag(cmd)}
	reg.Username, _ = cmd.Flags().GetString("username")
	reg.Email, _ = cmd.Flags().GetString("email")
	reg.FirstName, _ = cmd.Flags().GetString("first-name")
	reg.LastName, _ = cmd.Flags().GetString("last-name")

	if err := promptRegistration(&reg); err != nil {
		return err
	}

	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	r := rt.gw.Register(cmd.Context(), reg)
	if err := resultErr("register", r); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s\n", r.Value.Name())
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	rt.gw.Logout(cmd.Context())
	fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.session(cmd.Context()); err != nil {
		return err
	}

	user, _ := rt.store.CurrentUser()
	if refresh, _ := cmd.Flags().GetBool("refresh"); refresh {
		r := rt.gw.Me(cmd.Context())
		if err := resultErr("whoami", r); err != nil {
			return err
		}
		user = r.Value
	}

	if jsonOutput() {
		return printJSON(cmd.OutOrStdout(), user)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>\n", user.Name(), user.Email)
	return nil
}

// promptCredentials asks for whatever the flags did not supply.
func promptCredentials(creds *model.Credentials) error {
	var fields []huh.Field
	if creds.Email == "" && creds.Username == "" {
		fields = append(fields, huh.NewInput().
			Title("Email").
			Value(&creds.Email))
	}
	if creds.Password == "" {
		fields = append(fields, huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(&creds.Password))
	}
	return runForm(fields)
}

func promptRegistration(reg *model.Registration) error {
	var fields []huh.Field
	if reg.Username == "" {
		fields = append(fields, huh.NewInput().Title("Username").Value(&reg.Username))
	}
	if reg.Email == "" {
		fields = append(fields, huh.NewInput().Title("Email").Value(&reg.Email))
	}
	if reg.Password == "" {
		fields = append(fields, huh.NewInput().
			Title("Password").
			Description("At least 8 characters").
			EchoMode(huh.EchoModePassword).
			Value(&reg.Password))
	}
	return runForm(fields)
}

func runForm(fields []huh.Field) error {
	if len(fields) == 0 {
		return nil
	}
	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	return nil
}
