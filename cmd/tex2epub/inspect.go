package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yuanying/tex2epub/internal/epub"
)

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file.epub>",
		Short: "Show the structure of an EPUB",
		Long: `inspect opens an EPUB, validates its mimetype and container, and prints the
package document metadata and manifest. Use it to check a converted file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return inspect(cmd, args[0])
		},
	}
}

func inspect(cmd *cobra.Command, path string) error {
	out := cmd.OutOrStdout()

	reader, err := epub.Open(path)
	if err != nil {
		return err
	}
	defer reader.Close()

	for _, w := range reader.Warnings() {
		fmt.Fprintf(out, "warning: %s\n", w)
	}

	names := reader.Names()
	fmt.Fprintf(out, "Files: %d\n", len(names))
	for _, name := range names {
		fmt.Fprintf(out, "  %s\n", name)
	}

	if reader.OPFPath() == "" {
		return nil
	}
	data, err := reader.ReadFile(reader.OPFPath())
	if err != nil {
		return fmt.Errorf("failed to read package document: %w", err)
	}
	pkg, err := epub.ParsePackage(data)
	if err != nil {
		return fmt.Errorf("failed to parse package document: %w", err)
	}

	fmt.Fprintf(out, "Package: %s\n", reader.OPFPath())
	fmt.Fprintf(out, "Title: %s\n", pkg.Title)
	if len(pkg.Creators) > 0 {
		fmt.Fprintf(out, "Authors: %s\n", strings.Join(pkg.Creators, ", "))
	}
	if pkg.Language != "" {
		fmt.Fprintf(out, "Language: %s\n", pkg.Language)
	}
	fmt.Fprintf(out, "Manifest: %d items\n", len(pkg.Manifest))
	for _, item := range pkg.Manifest {
		fmt.Fprintf(out, "  %-24s %-28s %s\n", item.ID, item.MediaType, item.Href)
	}
	fmt.Fprintf(out, "Fonts: %d\n", len(pkg.ItemsByMediaType("font/")))
	fmt.Fprintf(out, "Images: %d\n", len(pkg.ItemsByMediaType("image/")))
	return nil
}
