package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or prune the offline cache",
	}
	cmd.AddCommand(newCacheListCmd(), newCacheRemoveCmd())
	return cmd
}

func newCacheListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached songs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}

			entries, err := c.Cache().List()
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("Offline cache is empty.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tARTIST\tENCRYPTED\tSIZE\tDOWNLOADED")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%d\t%s\n",
					e.Song.ID, e.Song.Title, e.Song.Artist, e.Song.Encrypted,
					e.StoredBytes, e.DownloadedAt.Local().Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}
}

func newCacheRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <song-id>...",
		Short: "Remove songs from the offline cache",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}

			for _, id := range args {
				if err := c.Cache().Remove(id); err != nil {
					return fmt.Errorf("song %s: %w", id, err)
				}
				fmt.Printf("removed %s\n", id)
			}
			return nil
		},
	}
}
