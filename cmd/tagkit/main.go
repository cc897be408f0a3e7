// The tagkit command reads, displays, and edits audio-file metadata
// across every container this module supports, plus a batch mode for
// applying the same edit across many files in parallel.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/go-tagkit/tagkit"
	"github.com/go-tagkit/tagkit/atomicfile"
	"github.com/go-tagkit/tagkit/batch"
	"github.com/go-tagkit/tagkit/tagmodel"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tagkit",
		Short: "Read and write audio file metadata",
	}
	root.AddCommand(showCmd(), setCmd(), batchCmd())
	return root
}

func showCmd() *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "show <file>",
		Short: "Print a file's tag and audio properties",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			res := tagkit.Read(b, args[0])
			if !res.IsSuccess() {
				return res.Err
			}
			fmt.Printf("Size:     %v\n", humanize.Bytes(uint64(len(b))))
			printFile(res.File, res.HasDuplicateTag)
			if raw {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(res.File.Tag)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "also print the decoded tag as JSON")
	return cmd
}

func printFile(f *tagkit.File, dup bool) {
	fmt.Printf("Type:     %v\n", f.Type)
	fmt.Printf("Title:    %v\n", f.Tag.Title)
	fmt.Printf("Artist:   %v\n", f.Tag.Artist)
	fmt.Printf("Album:    %v\n", f.Tag.Album)
	fmt.Printf("Year:     %v\n", f.Tag.Year)
	fmt.Printf("Track:    %v/%v\n", f.Tag.Track, f.Tag.TotalTracks)
	fmt.Printf("Disc:     %v/%v\n", f.Tag.Disc, f.Tag.TotalDiscs)
	fmt.Printf("Duration: %v\n", time.Duration(f.Props.Duration*float64(time.Second)).Round(time.Second))
	fmt.Printf("Bitrate:  %v kbps\n", humanize.Comma(int64(f.Props.Bitrate)))
	fmt.Printf("Sample:   %v Hz, %v ch\n", f.Props.SampleRate, f.Props.Channels)
	if dup {
		fmt.Println("Note:     duplicate ID3v2 header detected")
	}
}

// setField applies one --field=value edit onto t.
func setField(t *tagmodel.Tag, field, value string) error {
	switch field {
	case "title":
		t.Title = value
	case "artist":
		t.Artist = value
	case "album":
		t.Album = value
	case "year":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("tagkit: --year expects an integer, got %q", value)
		}
		t.Year = n
	case "track":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("tagkit: --track expects an integer, got %q", value)
		}
		t.Track = n
	default:
		return fmt.Errorf("tagkit: unrecognized field %q", field)
	}
	return nil
}

func setCmd() *cobra.Command {
	var title, artist, album, year, track string
	cmd := &cobra.Command{
		Use:   "set <file>",
		Short: "Edit one or more fields and rewrite the file in place",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			b, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			info, err := os.Stat(path)
			if err != nil {
				return err
			}
			res := tagkit.Read(b, path)
			if !res.IsSuccess() {
				return res.Err
			}

			edits := map[string]string{"title": title, "artist": artist, "album": album, "year": year, "track": track}
			for field, value := range edits {
				if value == "" {
					continue
				}
				if err := setField(res.File.Tag, field, value); err != nil {
					return err
				}
			}

			out, err := res.File.Render(tagkit.DefaultConfig())
			if err != nil {
				return err
			}
			return atomicfile.Write(path, out, info.Mode().Perm())
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&artist, "artist", "", "new artist")
	cmd.Flags().StringVar(&album, "album", "", "new album")
	cmd.Flags().StringVar(&year, "year", "", "new year")
	cmd.Flags().StringVar(&track, "track", "", "new track number")
	return cmd
}

func batchCmd() *cobra.Command {
	var parallelism int
	var artist string
	cmd := &cobra.Command{
		Use:   "batch <file>...",
		Short: "Apply the same edit across many files in parallel",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outcomes := batch.Run(context.Background(), args, func(_ context.Context, path string) (string, error) {
				b, err := os.ReadFile(path)
				if err != nil {
					return path, err
				}
				info, err := os.Stat(path)
				if err != nil {
					return path, err
				}
				res := tagkit.Read(b, path)
				if !res.IsSuccess() {
					return path, res.Err
				}
				if artist != "" {
					res.File.Tag.Artist = artist
				}
				out, err := res.File.Render(tagkit.DefaultConfig())
				if err != nil {
					return path, err
				}
				return path, atomicfile.Write(path, out, info.Mode().Perm())
			}, batch.Options[string]{
				Parallelism: parallelism,
				Progress: func(o batch.Outcome[string]) {
					if o.Succeeded() {
						fmt.Printf("ok    %v\n", o.Value)
					} else if o.Cancelled {
						fmt.Printf("skip  %v (cancelled)\n", args[o.Index])
					} else {
						fmt.Printf("error %v: %v\n", args[o.Index], o.Err)
					}
				},
			})

			var failures int
			for _, o := range outcomes {
				if !o.Succeeded() {
					failures++
				}
			}
			if failures > 0 {
				return fmt.Errorf("tagkit: %d of %d files failed", failures, len(outcomes))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&parallelism, "parallelism", 0, "max concurrent files (default: host CPU count)")
	cmd.Flags().StringVar(&artist, "artist", "", "new artist to apply to every file")
	return cmd
}
