package cli

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func newDownloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "download <song-id>...",
		Short: "Cache songs for offline playback",
		Long: `Download the stored object for each song into the offline cache.
Encrypted songs are cached as encrypted envelopes; the plaintext never
touches disk until playback.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}

			for _, id := range args {
				song, err := c.GetSong(cmd.Context(), id)
				if err != nil {
					return fmt.Errorf("song %s: %w", id, err)
				}

				bar := progressbar.DefaultBytes(song.SizeBytes,
					fmt.Sprintf("%s - %s", song.Artist, song.Title))
				err = c.DownloadForOffline(cmd.Context(), id, bar)
				bar.Finish()
				if err != nil {
					return fmt.Errorf("song %s: %w", id, err)
				}
			}
			return nil
		},
	}
}
