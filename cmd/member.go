package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/projecteru2/core/log"
	"github.com/spf13/cobra"
)

var memberCmd = func() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "member",
		Short: "Manage VM owners",
	}

	add := &cobra.Command{
		Use:   "add --email EMAIL [--name NAME]",
		Short: "Register a member",
		Args:  cobra.NoArgs,
		RunE:  runMemberAdd,
	}
	add.Flags().String("name", "", "display name")
	add.Flags().String("email", "", "email address (unique)")
	_ = add.MarkFlagRequired("email")

	ls := &cobra.Command{
		Use:   "ls",
		Short: "List members",
		Args:  cobra.NoArgs,
		RunE:  runMemberLS,
	}

	cmd.AddCommand(add, ls)
	return cmd
}()

func runMemberAdd(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)
	store, err := initStore()
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck

	name, _ := cmd.Flags().GetString("name")
	email, _ := cmd.Flags().GetString("email")
	owner, err := store.AddMember(ctx, name, email)
	if err != nil {
		return fmt.Errorf("member add: %w", err)
	}
	log.WithFunc("cmd.member").Infof(ctx, "member %s added", owner.Email)
	fmt.Println(owner.ID)
	return nil
}

func runMemberLS(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)
	store, err := initStore()
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck

	owners, err := store.ListMembers(ctx)
	if err != nil {
		return fmt.Errorf("member ls: %w", err)
	}
	if len(owners) == 0 {
		fmt.Println("No members found.")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0) //nolint:mnd
	_, _ = fmt.Fprintln(w, "ID\tNAME\tEMAIL\tCREATED")
	for _, o := range owners {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", o.ID, o.Name, o.Email, o.CreatedAt.Local().Format(time.DateTime))
	}
	w.Flush() //nolint:errcheck,gosec
	return nil
}
