package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ytget/qrcdl"
	"github.com/ytget/qrcdl/internal/logger"
	"github.com/ytget/qrcdl/internal/watcher"
	"github.com/ytget/qrcdl/qrc"
	"github.com/ytget/qrcdl/types"
)

func (a *app) searchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "search <keyword>...",
		Short: "Search songs by keyword",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			songs, err := a.dl.Search(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			printSongs(cmd.OutOrStdout(), songs)
			return nil
		},
	}
}

func printSongs(w io.Writer, songs []types.Song) {
	if len(songs) == 0 {
		fmt.Fprintln(w, "No songs found")
		return
	}
	headColor.Fprintf(w, "%-4s %-10s %-16s %s\n", "#", "ID", "MID", "Song")
	for i, s := range songs {
		artists := s.Artists(", ")
		if artists == "" {
			artists = "?"
		}
		fmt.Fprintf(w, "%-4d %-10d %-16s %s - %s", i+1, s.ID, s.Mid, artists, s.Name)
		if s.Album.Name != "" {
			dimColor.Fprintf(w, " [%s]", s.Album.Name)
		}
		fmt.Fprintln(w)
	}
}

func (a *app) getCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <id-or-mid>...",
		Short: "Download lyrics of songs by numeric id or mid",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			var failed int
			a.dl.SaveAll(cmd.Context(), args, a.format, a.cfg.Output.Concurrency, func(r qrcdl.SaveResult) {
				if r.Err != nil {
					failed++
					errColor.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", r.Input, r.Err)
					return
				}
				for _, f := range r.Files {
					okColor.Fprint(out, "Saved: ")
					fmt.Fprintln(out, f)
				}
			})
			if failed > 0 {
				return fmt.Errorf("%d of %d songs failed", failed, len(args))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&a.flags.concurrency, "concurrency", "j", 4, "Parallel downloads")
	return cmd
}

// readInput reads a file, or standard input when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

// writeOutput writes data to path, or to standard output when path is empty.
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (a *app) decryptCommand() *cobra.Command {
	var (
		outPath     string
		contentOnly bool
	)
	cmd := &cobra.Command{
		Use:   "decrypt <file|->",
		Short: "Decrypt a hex lyric payload or an encrypted local lyric file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			text, err := qrcdl.DecodeLyric(data, a.cfg.ASS.Charset)
			if err != nil {
				return err
			}
			if contentOnly {
				text, _ = qrc.LyricContent(text)
			}
			return writeOutput(cmd, outPath, []byte(text))
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "", "Output file (default stdout)")
	cmd.Flags().BoolVar(&contentOnly, "content", false, "Print only the timed lyric text of a QRC document")
	return cmd
}

func (a *app) encryptCommand() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "encrypt <file|->",
		Short: "Encrypt lyric text into a hex payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			payload, err := qrc.EncodePayload(string(data))
			if err != nil {
				return err
			}
			return writeOutput(cmd, outPath, []byte(payload+"\n"))
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "", "Output file (default stdout)")
	return cmd
}

func (a *app) convertCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "convert <src> [dst]",
		Short: "Convert a QRC lyric file into an ASS karaoke subtitle",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var dst string
			if len(args) == 2 {
				dst = args[1]
			}
			out, err := a.dl.ConvertFile(args[0], dst)
			if err != nil {
				return err
			}
			okColor.Fprint(cmd.OutOrStdout(), "Converted: ")
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
}

func (a *app) watchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch [dir]",
		Short: "Convert every .qrc file created in a directory into .ass",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := a.cfg.Output.Dir
			if len(args) == 1 {
				dir = args[0]
			}
			out := cmd.OutOrStdout()
			w := watcher.New(dir, ".qrc", func(ctx context.Context, path string) error {
				dst, err := a.dl.ConvertFile(path, "")
				if err != nil {
					return err
				}
				okColor.Fprint(out, "Converted: ")
				fmt.Fprintln(out, dst)
				return nil
			})
			logger.WithComponent(logger.ComponentApp).Info("Press Ctrl+C to stop")
			return w.Run(cmd.Context())
		},
	}
}
