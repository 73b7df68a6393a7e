package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quarryhq/quarry/internal/ui"
	"github.com/quarryhq/quarry/models"
)

// bugCmd groups the bug subcommands.
var bugCmd = &cobra.Command{
	Use:     "bug",
	Aliases: []string{"b"},
	Short:   "Manage bugs",
}

var bugAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Report a bug",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b := &models.Bug{}
		b.Title = args[0]
		b.Description, _ = cmd.Flags().GetString("desc")
		severity, _ := cmd.Flags().GetString("severity")
		b.Severity = models.Severity(severity)
		priority, _ := cmd.Flags().GetString("priority")
		b.Priority = models.Priority(priority)
		b.Category, _ = cmd.Flags().GetString("category")
		b.Environment, _ = cmd.Flags().GetString("env")
		repro, _ := cmd.Flags().GetString("repro")
		b.Reproducibility = models.Reproducibility(repro)
		b.StepsToReproduce, _ = cmd.Flags().GetStringSlice("step")
		b.AffectedFeatures, _ = cmd.Flags().GetStringSlice("affects")
		b.Tags, _ = cmd.Flags().GetStringSlice("tag")

		created, err := bugRepo().Create(b, currentUser())
		if err != nil {
			return err
		}
		fmt.Printf("%s %s created\n", ui.StyleSuccess.Render("✔"), created.ID)
		return nil
	},
}

var bugGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a bug as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		item, found, err := bugRepo().GetByID(args[0])
		if err != nil {
			return err
		}
		if !found {
			fmt.Printf("bug %s not found\n", args[0])
			return nil
		}
		return printJSON(item)
	},
}

var bugListCmd = &cobra.Command{
	Use:   "list",
	Short: "List bugs",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := listOptionsFromFlags(cmd)
		if err != nil {
			return err
		}
		res, err := bugRepo().List(opts)
		if err != nil {
			return err
		}
		table := &ui.ListTable{Columns: []ui.Column{
			{Title: "ID"},
			{Title: "TITLE", Flex: true},
			{Title: "STATUS", Status: true},
			{Title: "SEVERITY"},
			{Title: "PRIORITY"},
			{Title: "TAGS", Flex: true},
		}}
		for _, b := range res.Items {
			table.Rows = append(table.Rows, []string{
				b.ID, b.Title, string(b.Status), string(b.Severity), string(b.Priority), joinTags(b.Tags),
			})
		}
		fmt.Print(table.Render())
		printPageFooter(res.Total, res.Page, res.TotalPages)
		return nil
	},
}

var bugUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update fields of a bug",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		changes := map[string]any{}
		for flag, key := range map[string]string{
			"title":      "title",
			"desc":       "description",
			"status":     "status",
			"phase":      "currentPhase",
			"severity":   "severity",
			"priority":   "priority",
			"category":   "category",
			"env":        "environment",
			"repro":      "reproducibility",
			"root-cause": "rootCause",
			"resolution": "resolution",
		} {
			if cmd.Flags().Changed(flag) {
				v, _ := cmd.Flags().GetString(flag)
				changes[key] = v
			}
		}
		if len(changes) == 0 {
			return fmt.Errorf("no fields to update; pass at least one flag")
		}
		updated, err := bugRepo().Update(args[0], changes)
		if err != nil {
			return err
		}
		fmt.Printf("%s %s updated\n", ui.StyleSuccess.Render("✔"), updated.ID)
		return nil
	},
}

var bugDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a bug permanently",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bugRepo().Delete(args[0]); err != nil {
			return err
		}
		fmt.Printf("%s %s deleted\n", ui.StyleSuccess.Render("✔"), args[0])
		return nil
	},
}

var bugTagCmd = &cobra.Command{
	Use:   "tag <id> <tag>",
	Short: "Add a tag to a bug",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		item, err := bugRepo().AddTag(args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("%s tags: %s\n", item.ID, joinTags(item.Tags))
		return nil
	},
}

var bugUntagCmd = &cobra.Command{
	Use:   "untag <id> <tag>",
	Short: "Remove a tag from a bug",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		item, err := bugRepo().RemoveTag(args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("%s tags: %s\n", item.ID, joinTags(item.Tags))
		return nil
	},
}

var bugByFeatureCmd = &cobra.Command{
	Use:   "by-feature <feature-id>",
	Short: "List bugs affecting a feature",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bugs, err := bugRepo().FindByFeature(args[0])
		if err != nil {
			return err
		}
		for _, b := range bugs {
			fmt.Printf("%s — %s [%s]\n", b.ID, b.Title, ui.StatusStyle(string(b.Status)).Render(string(b.Status)))
		}
		fmt.Println(ui.StyleSubtle.Render(fmt.Sprintf(" %d bugs", len(bugs))))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(bugCmd)
	bugCmd.AddCommand(bugAddCmd, bugGetCmd, bugListCmd, bugUpdateCmd,
		bugDeleteCmd, bugTagCmd, bugUntagCmd, bugByFeatureCmd)

	bugAddCmd.Flags().String("desc", "", "description")
	bugAddCmd.Flags().String("severity", "medium", "severity (low|medium|high|critical)")
	bugAddCmd.Flags().String("priority", "medium", "priority (low|medium|high|critical)")
	bugAddCmd.Flags().String("category", "", "category")
	bugAddCmd.Flags().String("env", "", "environment the bug was observed in")
	bugAddCmd.Flags().String("repro", "", "reproducibility (always|sometimes|rarely|once|unknown)")
	bugAddCmd.Flags().StringSlice("step", nil, "reproduction step (repeatable)")
	bugAddCmd.Flags().StringSlice("affects", nil, "affected feature id (repeatable)")
	bugAddCmd.Flags().StringSlice("tag", nil, "tags (repeatable)")

	bugUpdateCmd.Flags().String("title", "", "new title")
	bugUpdateCmd.Flags().String("desc", "", "new description")
	bugUpdateCmd.Flags().String("status", "", "new status")
	bugUpdateCmd.Flags().String("phase", "", "new phase")
	bugUpdateCmd.Flags().String("severity", "", "new severity")
	bugUpdateCmd.Flags().String("priority", "", "new priority")
	bugUpdateCmd.Flags().String("category", "", "new category")
	bugUpdateCmd.Flags().String("env", "", "new environment")
	bugUpdateCmd.Flags().String("repro", "", "new reproducibility")
	bugUpdateCmd.Flags().String("root-cause", "", "root cause analysis")
	bugUpdateCmd.Flags().String("resolution", "", "resolution notes")

	addListFlags(bugListCmd)
}
