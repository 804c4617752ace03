package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/signspeak/signspeak/internal/cache"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:     "cache",
	Short:   "Show the gTTS audio cache",
	Example: paragraph("signspeak cache\nsignspeak cache clear"),
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		s, err := loadSettings()
		if err != nil {
			return err
		}
		return cacheInfo(os.Stdout, s.cacheDir, s.cacheMaxSize)
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all cached audio",
	Args:  cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		s, err := loadSettings()
		if err != nil {
			return err
		}
		return cacheClear(os.Stdout, s.cacheDir, s.cacheMaxSize)
	},
}

func cacheInfo(w io.Writer, dir string, capacity int64) error {
	dc, err := cache.NewDiskCache(dir, capacity, cache.DefaultCompressionLevel)
	if err != nil {
		return fmt.Errorf("unable to open audio cache: %w", err)
	}
	defer dc.Close() //nolint:errcheck

	stats := dc.Stats()
	fmt.Fprintf(w, "%s %s\n", keyword("Directory:"), dir)
	fmt.Fprintf(w, "%s %s\n", keyword("Entries:  "), humanize.Comma(stats.ItemCount))
	fmt.Fprintf(w, "%s %s of %s\n", keyword("Size:     "),
		humanize.Bytes(uint64(stats.Size)), humanize.Bytes(uint64(stats.Capacity))) //nolint:gosec
	return nil
}

func cacheClear(w io.Writer, dir string, capacity int64) error {
	dc, err := cache.NewDiskCache(dir, capacity, cache.DefaultCompressionLevel)
	if err != nil {
		return fmt.Errorf("unable to open audio cache: %w", err)
	}
	defer dc.Close() //nolint:errcheck

	freed := dc.Size()
	if err := dc.Clear(); err != nil {
		return fmt.Errorf("unable to clear audio cache: %w", err)
	}
	fmt.Fprintf(w, "Freed %s.\n", humanize.Bytes(uint64(freed))) //nolint:gosec
	return nil
}
