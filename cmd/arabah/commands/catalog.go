package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/arabah/arabah/app"
	"github.com/arabah/arabah/operations"
)

func catalogCmds(c *cli) []*cobra.Command {
	return []*cobra.Command{
		noParamsCmd(c, "home", "Show the home screen", func(s *operations.Set) runner {
			return bind(s.Home, operations.NoParams{})
		}),
		noParamsCmd(c, "categories", "List product categories", func(s *operations.Set) runner {
			return bind(s.Categories, operations.NoParams{})
		}),
		productsCmd(c),
		productCmd(c),
		noParamsCmd(c, "favorites", "List favorite products", func(s *operations.Set) runner {
			return bind(s.Favorites, operations.NoParams{})
		}),
		favoriteCmd(c),
		rateCmd(c),
		notesCmd(c),
	}
}

func productsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "products <category-id>",
		Short: "List the products of a category",
		Args:  cobra.ExactArgs(1),
		RunE: c.withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			return execute(cmd.Context(), c, cmd.OutOrStdout(), a.Ops.CategoryProducts,
				operations.CategoryParams{CategoryID: args[0]})
		}),
	}
}

func productCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "product <product-id>",
		Short: "Show a product with its prices and reviews",
		Args:  cobra.ExactArgs(1),
		RunE: c.withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			return execute(cmd.Context(), c, cmd.OutOrStdout(), a.Ops.ProductDetail,
				operations.ProductParams{ProductID: args[0]})
		}),
	}
}

func favoriteCmd(c *cli) *cobra.Command {
	var remove bool
	cmd := &cobra.Command{
		Use:   "favorite <product-id>",
		Short: "Add a product to the favorites, or remove it with --remove",
		Args:  cobra.ExactArgs(1),
		RunE: c.withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			return execute(cmd.Context(), c, cmd.OutOrStdout(), a.Ops.ToggleFavorite,
				operations.FavoriteParams{ProductID: args[0], Like: !remove})
		}),
	}
	cmd.Flags().BoolVar(&remove, "remove", false, "remove the product from the favorites")
	return cmd
}

func rateCmd(c *cli) *cobra.Command {
	var p operations.RatingParams
	cmd := &cobra.Command{
		Use:   "rate <product-id>",
		Short: "Rate a product",
		Args:  cobra.ExactArgs(1),
		RunE: c.withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			p.ProductID = args[0]
			return execute(cmd.Context(), c, cmd.OutOrStdout(), a.Ops.RateProduct, p)
		}),
	}
	cmd.Flags().IntVar(&p.Rating, "rating", 0, "rating from 1 to 5")
	cmd.Flags().StringVar(&p.Review, "review", "", "optional review text")
	return cmd
}

func notesCmd(c *cli) *cobra.Command {
	cmd := noParamsCmd(c, "notes", "List notes", func(s *operations.Set) runner {
		return bind(s.Notes, operations.NoParams{})
	})
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <text>",
			Short: "Create a note",
			Args:  cobra.MinimumNArgs(1),
			RunE: c.withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
				return execute(cmd.Context(), c, cmd.OutOrStdout(), a.Ops.CreateNote,
					operations.NoteParams{Text: strings.Join(args, " ")})
			}),
		},
		&cobra.Command{
			Use:   "delete <note-id>",
			Short: "Delete a note",
			Args:  cobra.ExactArgs(1),
			RunE: c.withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
				return execute(cmd.Context(), c, cmd.OutOrStdout(), a.Ops.DeleteNote,
					operations.DeleteNoteParams{NoteID: args[0]})
			}),
		},
	)
	return cmd
}
