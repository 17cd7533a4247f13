package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jwulff/meterimport/internal/storage"
)

func init() {
	cmd := &cobra.Command{
		Use:   "changes",
		Short: "List readings stored since a sync token",
		Long: "Lists readings stored after --token, oldest first, then prints the token " +
			"to pass next time. Without --token every stored reading is listed.",
		Run: runChanges,
	}

	cmd.Flags().StringP("token", "t", "", "Sync token from a previous run")

	RootCmd.AddCommand(cmd)
}

func runChanges(cmd *cobra.Command, args []string) {
	token, _ := cmd.Flags().GetString("token")

	cfg, logger := setup()
	defer logger.Sync()

	s, err := openStore(cfg)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	if _, err := writeChanges(cmd.Context(), cmd.OutOrStdout(), s, storage.SyncToken(token)); err != nil {
		exitErr("changes", err)
	}
}

// writeChanges prints records after token and returns the next token.
func writeChanges(ctx context.Context, w io.Writer, st storage.Store, token storage.SyncToken) (storage.SyncToken, error) {
	records, next, err := st.Changes(ctx, token)
	if err != nil {
		return token, err
	}
	for _, rec := range records {
		fmt.Fprintf(w, "%s  ", rec.ID)
		writeReadingLine(w, rec.Reading, false)
	}
	fmt.Fprintf(w, "%d changes\n", len(records))
	fmt.Fprintf(w, "next token: %s\n", next)
	return next, nil
}
