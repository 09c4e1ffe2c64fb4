package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Veraticus/mint-balance/internal/cli"
	"github.com/Veraticus/mint-balance/internal/model"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage expense and income categories",
		Long:  `List, add, and delete the categories operations are grouped by.`,
	}

	cmd.AddCommand(listCategoriesCmd())
	cmd.AddCommand(addCategoryCmd())
	cmd.AddCommand(deleteCategoryCmd())

	return cmd
}

func listCategoriesCmd() *cobra.Command {
	var kindFlag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			var kind *model.Kind
			if kindFlag != "" {
				k, err := model.ParseKind(kindFlag)
				if err != nil {
					return err
				}
				kind = &k
			}

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			categories, err := a.ledger.Categories(ctx, kind)
			if err != nil {
				return fmt.Errorf("failed to get categories: %w", err)
			}
			if len(categories) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("No categories found. Use 'mint categories add' to create one."))
				return nil
			}

			rows := make([][]string, 0, len(categories))
			for _, c := range categories {
				rows = append(rows, []string{strconv.FormatInt(c.ID, 10), c.Name, string(c.Kind)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderTable([]string{"ID", "Name", "Kind"}, rows))
			return nil
		},
	}

	cmd.Flags().StringVarP(&kindFlag, "kind", "k", "", "only show expense or income categories")
	return cmd
}

func addCategoryCmd() *cobra.Command {
	var income bool

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a new category",
		Long:  `Create a category. Names need not be unique and a category's kind never changes.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			kind := model.KindFromIncome(income)
			id, err := a.ledger.AddCategory(ctx, args[0], kind)
			if err != nil {
				return fmt.Errorf("failed to add category: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Added %s category %q (#%d)", kind, args[0], id)))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&income, "income", "i", false, "create an income category")
	return cmd
}

func deleteCategoryCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a category",
		Long:  `Delete a category. Its operations stay in the ledger as Uncategorized.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid category id %q", args[0])
			}

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if !yes {
				ok, err := cli.Confirm(ctx, cli.NewLineReader(cmd.InOrStdin()), cmd.OutOrStdout(),
					fmt.Sprintf("Delete category #%d? Its operations become %s.", id, model.UncategorizedLabel))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Cancelled"))
					return nil
				}
			}

			if err := a.ledger.DeleteCategory(ctx, id); err != nil {
				return fmt.Errorf("failed to delete category: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Deleted category #%d", id)))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	return cmd
}
