package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"kinotut-bot/internal/catalog"
)

func (c *cli) initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create an empty catalog if none exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.store.Init(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "catalog ready")
			return nil
		},
	}
}

func (c *cli) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Bulk-add movies, one pipe-separated entry per line",
		Long: `Bulk-add movies in the same format the admin sends to the bot:

  Title | Genre | Year | Link | Description | Poster

The poster is optional. Duplicates (same title ignoring case, same year)
are skipped. Use - to read from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				b   []byte
				err error
			)
			if args[0] == "-" {
				b, err = io.ReadAll(cmd.InOrStdin())
			} else {
				b, err = os.ReadFile(args[0])
			}
			if err != nil {
				return err
			}
			rep := c.catalog.BulkAdd(cmd.Context(), string(b))
			fmt.Fprintln(cmd.OutOrStdout(), rep.Summary())
			return nil
		},
	}
}

func (c *cli) addGenreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add-genre <genre>",
		Short: "Add a genre to the menu",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			genre := strings.TrimSpace(args[0])
			if genre == "" {
				return fmt.Errorf("genre must not be empty")
			}
			return c.catalog.AddGenre(cmd.Context(), genre)
		},
	}
}

func (c *cli) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <title> <year>",
		Short: "Remove every movie with this title and year",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := c.catalog.DeleteMovie(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d\n", n)
			return nil
		},
	}
}

func (c *cli) searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "List movies whose title contains the query (views are not counted)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			movies, err := c.catalog.SearchMovies(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			printMovies(cmd.OutOrStdout(), movies)
			return nil
		},
	}
}

func (c *cli) topCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "top [n]",
		Short: "List the most viewed movies",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n := 5
			if len(args) == 1 {
				v, err := strconv.Atoi(args[0])
				if err != nil || v <= 0 {
					return fmt.Errorf("n must be a positive integer, got %q", args[0])
				}
				n = v
			}
			movies, err := c.catalog.TopMovies(cmd.Context(), n)
			if err != nil {
				return err
			}
			printMovies(cmd.OutOrStdout(), movies)
			return nil
		},
	}
}

func printMovies(w io.Writer, movies []catalog.Movie) {
	if len(movies) == 0 {
		fmt.Fprintln(w, "nothing found")
		return
	}
	for _, m := range movies {
		fmt.Fprintf(w, "%-6d %s\n", m.Views, catalog.FormatLine(m))
	}
}
