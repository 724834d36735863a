package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tunevault/tunevault/internal/client"
)

// newClient builds the offline client from the loaded config.
func newClient() (*client.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return client.New(cfg, logger)
}

func newSongsCmd() *cobra.Command {
	var search string

	cmd := &cobra.Command{
		Use:   "songs",
		Short: "List songs in the remote catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}

			songs, err := c.ListSongs(cmd.Context())
			if err != nil {
				return err
			}
			if len(songs) == 0 {
				fmt.Println("No songs in the catalog.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tARTIST\tALBUM\tENCRYPTED\tPLAYS")
			for _, s := range songs {
				if search != "" && !matchesSearch(s.Title, s.Artist, s.Album, search) {
					continue
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\t%d\n",
					s.ID, s.Title, s.Artist, s.Album, s.Encrypted, s.Plays)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&search, "search", "", "Filter by substring of title, artist or album")
	return cmd
}

func matchesSearch(title, artist, album, search string) bool {
	needle := strings.ToLower(search)
	for _, field := range []string{title, artist, album} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}
