package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quarryhq/quarry/internal/ui"
	"github.com/quarryhq/quarry/models"
	"github.com/quarryhq/quarry/repository"
)

// featureCmd groups the feature subcommands.
var featureCmd = &cobra.Command{
	Use:     "feature",
	Aliases: []string{"fea", "f"},
	Short:   "Manage features",
}

var featureAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Create a feature",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f := &models.Feature{}
		f.Title = args[0]
		f.Description, _ = cmd.Flags().GetString("desc")
		priority, _ := cmd.Flags().GetString("priority")
		f.Priority = models.Priority(priority)
		complexity, _ := cmd.Flags().GetString("complexity")
		f.Complexity = models.Complexity(complexity)
		f.Category, _ = cmd.Flags().GetString("category")
		if parent, _ := cmd.Flags().GetString("parent"); parent != "" {
			f.ParentID = &parent
		}
		f.Tags, _ = cmd.Flags().GetStringSlice("tag")

		created, err := featureRepo().Create(f, currentUser())
		if err != nil {
			return err
		}
		fmt.Printf("%s %s created\n", ui.StyleSuccess.Render("✔"), created.ID)
		return nil
	},
}

var featureGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a feature as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		item, found, err := featureRepo().GetByID(args[0])
		if err != nil {
			return err
		}
		if !found {
			fmt.Printf("feature %s not found\n", args[0])
			return nil
		}
		return printJSON(item)
	},
}

var featureListCmd = &cobra.Command{
	Use:   "list",
	Short: "List features",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := listOptionsFromFlags(cmd)
		if err != nil {
			return err
		}
		res, err := featureRepo().List(opts)
		if err != nil {
			return err
		}
		table := &ui.ListTable{Columns: []ui.Column{
			{Title: "ID"},
			{Title: "TITLE", Flex: true},
			{Title: "STATUS", Status: true},
			{Title: "PRIORITY"},
			{Title: "PHASE"},
			{Title: "TAGS", Flex: true},
		}}
		for _, f := range res.Items {
			table.Rows = append(table.Rows, []string{
				f.ID, f.Title, string(f.Status), string(f.Priority), f.CurrentPhase, joinTags(f.Tags),
			})
		}
		fmt.Print(table.Render())
		printPageFooter(res.Total, res.Page, res.TotalPages)
		return nil
	},
}

var featureUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update fields of a feature",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		changes := map[string]any{}
		for flag, key := range map[string]string{
			"title":      "title",
			"desc":       "description",
			"status":     "status",
			"phase":      "currentPhase",
			"priority":   "priority",
			"complexity": "complexity",
			"category":   "category",
			"parent":     "parentId",
		} {
			if cmd.Flags().Changed(flag) {
				v, _ := cmd.Flags().GetString(flag)
				changes[key] = v
			}
		}
		if cmd.Flags().Changed("compliance") {
			v, _ := cmd.Flags().GetFloat64("compliance")
			changes["complianceScore"] = v
		}
		if len(changes) == 0 {
			return fmt.Errorf("no fields to update; pass at least one flag")
		}
		updated, err := featureRepo().Update(args[0], changes)
		if err != nil {
			return err
		}
		fmt.Printf("%s %s updated\n", ui.StyleSuccess.Render("✔"), updated.ID)
		return nil
	},
}

var featureDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a feature permanently",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := featureRepo().Delete(args[0]); err != nil {
			return err
		}
		fmt.Printf("%s %s deleted\n", ui.StyleSuccess.Render("✔"), args[0])
		return nil
	},
}

var featureTagCmd = &cobra.Command{
	Use:   "tag <id> <tag>",
	Short: "Add a tag to a feature",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		item, err := featureRepo().AddTag(args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("%s tags: %s\n", item.ID, joinTags(item.Tags))
		return nil
	},
}

var featureUntagCmd = &cobra.Command{
	Use:   "untag <id> <tag>",
	Short: "Remove a tag from a feature",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		item, err := featureRepo().RemoveTag(args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("%s tags: %s\n", item.ID, joinTags(item.Tags))
		return nil
	},
}

var featureTreeCmd = &cobra.Command{
	Use:   "tree <id>",
	Short: "Show a feature with its parent and children",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := featureRepo().GetHierarchy(args[0])
		if err != nil {
			return err
		}
		if h.Parent != nil {
			fmt.Printf("%s %s — %s\n", ui.StyleSubtle.Render("parent"), h.Parent.ID, h.Parent.Title)
		}
		fmt.Printf("%s — %s [%s]\n", h.Item.ID, h.Item.Title, ui.StatusStyle(string(h.Item.Status)).Render(string(h.Item.Status)))
		for _, child := range h.Children {
			fmt.Printf("  └─ %s — %s [%s]\n", child.ID, child.Title, ui.StatusStyle(string(child.Status)).Render(string(child.Status)))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(featureCmd)
	featureCmd.AddCommand(featureAddCmd, featureGetCmd, featureListCmd, featureUpdateCmd,
		featureDeleteCmd, featureTagCmd, featureUntagCmd, featureTreeCmd)

	featureAddCmd.Flags().String("desc", "", "description")
	featureAddCmd.Flags().String("priority", "medium", "priority (low|medium|high|critical)")
	featureAddCmd.Flags().String("complexity", "m", "complexity (xs|s|m|l|xl)")
	featureAddCmd.Flags().String("category", "", "category")
	featureAddCmd.Flags().String("parent", "", "parent feature id")
	featureAddCmd.Flags().StringSlice("tag", nil, "tags (repeatable)")

	featureUpdateCmd.Flags().String("title", "", "new title")
	featureUpdateCmd.Flags().String("desc", "", "new description")
	featureUpdateCmd.Flags().String("status", "", "new status")
	featureUpdateCmd.Flags().String("phase", "", "new phase")
	featureUpdateCmd.Flags().String("priority", "", "new priority")
	featureUpdateCmd.Flags().String("complexity", "", "new complexity")
	featureUpdateCmd.Flags().String("category", "", "new category")
	featureUpdateCmd.Flags().String("parent", "", "new parent id")
	featureUpdateCmd.Flags().Float64("compliance", 0, "compliance score 0-100")

	addListFlags(featureListCmd)
}

// listOptionsFromFlags translates the shared list flags into query options.
func listOptionsFromFlags(cmd *cobra.Command) (repository.ListOptions, error) {
	var opts repository.ListOptions

	filter := &repository.Filter{}
	filter.Statuses, _ = cmd.Flags().GetStringSlice("status")
	filter.Severities, _ = cmd.Flags().GetStringSlice("severity")
	filter.Priorities, _ = cmd.Flags().GetStringSlice("priority")
	filter.Tags, _ = cmd.Flags().GetStringSlice("tag")
	filter.Category, _ = cmd.Flags().GetString("category")
	filter.Search, _ = cmd.Flags().GetString("search")
	opts.Filter = filter

	if sortField, _ := cmd.Flags().GetString("sort"); sortField != "" {
		desc, _ := cmd.Flags().GetBool("desc")
		opts.Sort = &repository.Sort{Field: sortField, Desc: desc}
	}

	if cmd.Flags().Changed("page") || cmd.Flags().Changed("page-size") {
		page, _ := cmd.Flags().GetInt("page")
		size, _ := cmd.Flags().GetInt("page-size")
		if size <= 0 {
			return opts, fmt.Errorf("page-size must be positive, got %d", size)
		}
		opts.Page = &repository.Pagination{Page: page, PageSize: size}
	}
	return opts, nil
}

func addListFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("status", nil, "filter: any of these statuses")
	cmd.Flags().StringSlice("severity", nil, "filter: any of these severities")
	cmd.Flags().StringSlice("priority", nil, "filter: any of these priorities")
	cmd.Flags().StringSlice("tag", nil, "filter: items carrying ALL these tags")
	cmd.Flags().String("category", "", "filter: exact category")
	cmd.Flags().String("search", "", "filter: free-text substring")
	cmd.Flags().String("sort", "", "sort field (id|title|status|priority|severity|createdAt|updatedAt)")
	cmd.Flags().Bool("desc", false, "sort descending")
	cmd.Flags().Int("page", 1, "1-indexed page")
	cmd.Flags().Int("page-size", 0, "items per page")
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func joinTags(tags []string) string {
	return strings.Join(tags, ",")
}

func printPageFooter(total, page, totalPages int) {
	if totalPages > 1 {
		fmt.Println(ui.StyleSubtle.Render(fmt.Sprintf(" %d items, page %d/%d", total, page, totalPages)))
	} else {
		fmt.Println(ui.StyleSubtle.Render(fmt.Sprintf(" %d items", total)))
	}
}
