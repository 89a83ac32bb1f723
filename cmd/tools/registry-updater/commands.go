// cmd/tools/registry-updater/commands.go
package main

import (
	"errors"
	"fmt"
	"os"

	"repairer-search/internal/common/validation"
	"repairer-search/pkg/registry"

	"github.com/spf13/cobra"
)

const defaultRegistryPath = "configs/activities.json"

func newRootCmd() *cobra.Command {
	var registryPath string

	root := &cobra.Command{
		Use:           "registry-updater",
		Short:         "Maintain the search activity registry",
		Long:          "Creates, edits and validates the JSON registry that describes the search task types and their input schemas.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&registryPath, "path", "p", defaultRegistryPath, "Path to registry file")

	root.AddCommand(
		newInitCmd(&registryPath),
		newAddCmd(&registryPath),
		newUpdateCmd(&registryPath),
		newValidateCmd(&registryPath),
		newListCmd(&registryPath),
	)
	return root
}

func newInitCmd(path *string) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the built-in search activities to the registry file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := os.Stat(*path); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite", *path)
			}
			if err := registry.Default().Save(*path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d activities to %s\n", len(registry.Default().Activities), *path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing registry")
	return cmd
}

func newAddCmd(path *string) *cobra.Command {
	a := registry.Activity{}
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an activity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := registry.LoadOrDefault(*path)
			if err != nil {
				return err
			}
			if a.TaskType == "" {
				a.TaskType = a.ID
			}
			a.InputSchema = map[string]interface{}{"type": "object"}
			a.OutputSchema = map[string]interface{}{"type": "object"}
			if err := reg.Add(a); err != nil {
				return err
			}
			if err := reg.Validate(); err != nil {
				return err
			}
			if err := reg.Save(*path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added activity: %s\n", a.ID)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&a.ID, "id", "", "Activity ID (e.g. search-repairers)")
	f.StringVar(&a.DisplayName, "displayName", "", "Display name")
	f.StringVar(&a.Description, "description", "", "Description")
	f.StringVar(&a.Category, "category", "search", "Category")
	f.StringVar(&a.TaskType, "taskType", "", "Zeebe task type, defaults to the ID")
	f.StringVar(&a.Version, "version", "1.0.0", "Version")
	f.StringVar(&a.ImplementationStatus, "status", "planned", "Implementation status (planned, in-progress, completed, verified)")
	f.StringVar(&a.Timeout, "timeout", "10s", "Job timeout")
	f.IntVar(&a.Retries, "retries", 0, "Retries for retryable failures")
	f.StringSliceVar(&a.Tags, "tags", nil, "Tags")
	for _, name := range []string{"id", "displayName"} {
		if err := cmd.MarkFlagRequired(name); err != nil {
			panic(fmt.Sprintf("failed to mark %s flag as required: %v", name, err))
		}
	}
	return cmd
}

func newUpdateCmd(path *string) *cobra.Command {
	var id, field, value string
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Set one field of an activity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := registry.LoadRegistry(*path)
			if err != nil {
				return fmt.Errorf("failed to load registry: %w", err)
			}
			if err := reg.Update(id, field, value); err != nil {
				return err
			}
			if err := reg.Validate(); err != nil {
				return err
			}
			if err := reg.Save(*path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated activity %s, field %s to %s\n", id, field, value)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Activity ID to update")
	cmd.Flags().StringVar(&field, "field", "", "Field to update (status, version, displayName, description, category, taskType, timeout, retries)")
	cmd.Flags().StringVar(&value, "value", "", "New value for the field")
	for _, name := range []string{"id", "field", "value"} {
		if err := cmd.MarkFlagRequired(name); err != nil {
			panic(fmt.Sprintf("failed to mark %s flag as required: %v", name, err))
		}
	}
	return cmd
}

func newValidateCmd(path *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check registry fields and compile every input schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := registry.LoadRegistry(*path)
			if err != nil {
				return fmt.Errorf("failed to load registry: %w", err)
			}
			if err := reg.Validate(); err != nil {
				return fmt.Errorf("registry validation failed: %w", err)
			}
			if _, err := validation.NewValidator(reg); err != nil {
				return fmt.Errorf("registry validation failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Registry validation passed.")
			return nil
		},
	}
}

func newListCmd(path *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print activities and their status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := registry.LoadRegistry(*path)
			if errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("%s not found, run init first", *path)
			}
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, a := range reg.Activities {
				fmt.Fprintf(out, "%-28s %-12s %s\n", a.TaskType, a.ImplementationStatus, a.DisplayName)
			}
			return nil
		},
	}
}
