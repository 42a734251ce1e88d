package cli

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nhle/taskpilot/internal/gateway"
	"github.com/nhle/taskpilot/internal/model"
	"github.com/nhle/taskpilot/internal/oauth"
	appsync "github.com/nhle/taskpilot/internal/sync"
)

func init() {
	accounts := &cobra.Command{
		Use:   "accounts",
		Short: "Manage linked service accounts",
		RunE:  runAccountsList,
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List linked accounts",
		RunE:  runAccountsList,
	}

	connect := &cobra.Command{
		Use:   "connect <service>",
		Short: "Link an account through the provider's sign-in page",
		Args:  cobra.ExactArgs(1),
		RunE:  runAccountsConnect,
	}

	link := &cobra.Command{
		Use:   "link <service>",
		Short: "Link an account with an existing provider token",
		Args:  cobra.ExactArgs(1),
		RunE:  runAccountsLink,
	}
	link.Flags().String("identifier", "", "Account identifier, such as an email address")
	link.Flags().String("token", "", "Provider access token")
	link.Flags().String("refresh-token", "", "Provider refresh token")

	test := &cobra.Command{
		Use:   "test <id>",
		Short: "Check that a linked account still works",
		Args:  cobra.ExactArgs(1),
		RunE:  runAccountsTest,
	}

	unlink := &cobra.Command{
		Use:   "unlink <id>",
		Short: "Remove a linked account",
		Args:  cobra.ExactArgs(1),
		RunE:  runAccountsUnlink,
	}

	accounts.AddCommand(list, connect, link, test, unlink)
	RootCmd.AddCommand(accounts)
}

func runAccountsList(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()
	if err := rt.session(cmd.Context()); err != nil {
		return err
	}

	if err := resultErr("listing accounts", rt.gw.FetchLinkedAccounts(cmd.Context())); err != nil {
		return err
	}
	accounts := rt.store.Accounts.Items()

	if jsonOutput() {
		return printJSON(cmd.OutOrStdout(), accounts)
	}
	writeAccounts(cmd.OutOrStdout(), accounts)
	return nil
}

func writeAccounts(w io.Writer, accounts []model.LinkedAccount) {
	if len(accounts) == 0 {
		fmt.Fprintln(w, "No linked accounts.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSERVICE\tACCOUNT\tSTATUS\tLAST SYNC")
	for _, a := range accounts {
		status := "inactive"
		if a.Connected() {
			status = "connected"
		}
		synced := "never"
		if a.LastSyncedAt != nil {
			synced = a.LastSyncedAt.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", a.ID, oauth.DisplayName(a.ServiceName), a.AccountIdentifier, status, synced)
	}
	tw.Flush()
}

func runAccountsConnect(cmd *cobra.Command, args []string) error {
	service := model.ServiceName(args[0])

	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()
	if err := rt.session(cmd.Context()); err != nil {
		return err
	}

	ctx := cmd.Context()
	if err := resultErr("listing accounts", rt.gw.FetchLinkedAccounts(ctx)); err != nil {
		return err
	}

	r := rt.gw.InitiateOAuth(service)
	if errors.Is(r.Err, gateway.ErrOAuthDisabled) {
		return fmt.Errorf("connect: no oauth clients configured, add oauth.clients to %s", getConfigPath())
	}
	if err := resultErr("connect", r); err != nil {
		return err
	}

	stop, err := rt.startCallback()
	if err != nil {
		return err
	}
	defer stop()

	poller := rt.newPoller()
	defer poller.Stop()

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Open this URL to connect %s:\n\n  %s\n\nWaiting for authorization (Ctrl+C to cancel)...\n",
		oauth.DisplayName(service), r.Value)

	flow := poller.Watch(ctx, service)
	<-flow.Done()

	switch s := flow.State(); s {
	case appsync.StateConnected:
		fmt.Fprintf(w, "%s connected successfully!\n", oauth.DisplayName(service))
		return nil
	case appsync.StateTimedOut:
		return fmt.Errorf("connect: %s was not connected within %s", oauth.DisplayName(service), rt.cfg.OAuth.Timeout())
	default:
		return fmt.Errorf("connect: %s", s)
	}
}

func runAccountsLink(cmd *cobra.Command, args []string) error {
	in := model.LinkedAccountInput{ServiceName: model.ServiceName(args[0])}
	in.AccountIdentifier, _ = cmd.Flags().GetString("identifier")
	in.Token, _ = cmd.Flags().GetString("token")
	in.RefreshToken, _ = cmd.Flags().GetString("refresh-token")

	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()
	if err := rt.session(cmd.Context()); err != nil {
		return err
	}

	r := rt.gw.LinkAccount(cmd.Context(), in)
	if err := resultErr("linking account", r); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Linked %s account %s\n", oauth.DisplayName(r.Value.ServiceName), r.Value.AccountIdentifier)
	return nil
}

func runAccountsTest(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()
	if err := rt.session(cmd.Context()); err != nil {
		return err
	}

	r := rt.gw.TestConnection(cmd.Context(), model.ID(args[0]))
	if err := resultErr("testing connection", r); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s connection is working\n", oauth.DisplayName(r.Value.ServiceName))
	return nil
}

func runAccountsUnlink(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()
	if err := rt.session(cmd.Context()); err != nil {
		return err
	}

	r := rt.gw.UnlinkAccount(cmd.Context(), model.ID(args[0]))
	if err := resultErr("unlinking account", r); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Unlinked account %s\n", r.Value)
	return nil
}
