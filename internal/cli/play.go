package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPlayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "play <song-id>",
		Short: "Resolve a song to a playable source",
		Long: `Resolve a song for playback and print the source.

Cached songs yield a local file path, decrypting the cached envelope to a
temporary file when needed. Uncached songs yield the remote stream URL.
Either output can be handed to a player, for example:

  mpv "$(tunevault play <song-id>)"

For an encrypted song the printed path is a plaintext file in the OS temp
directory. It is left in place for the player to read; the cached copy on
disk stays encrypted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}

			src, err := c.ResolvePlaybackSource(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if src.Cached {
				logger.Debug().Str("path", src.Path).Msg("playing from offline cache")
				fmt.Println(src.Path)
				return nil
			}

			logger.Debug().Str("url", src.URL).Msg("playing from remote stream")
			fmt.Println(src.URL)
			return nil
		},
	}
}
