package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"reading-effort/internal/common/validation"
	"reading-effort/pkg/registry"
)

func newRegistryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Inspect and maintain the activity registry",
		Long: `The activity registry lists every analysis task with its Zeebe task type,
HTTP route and input schema. Without --path the registry compiled into the
binary is used.`,
	}
	cmd.AddCommand(newRegistryListCmd(), newRegistryValidateCmd(), newRegistryUpdateCmd())
	return cmd
}

func loadRegistry(path string) (*registry.ActivityRegistry, error) {
	if path == "" {
		return registry.Default()
	}
	return registry.LoadRegistry(path)
}

type activitySummary struct {
	TaskType string `json:"taskType"`
	Route    string `json:"route,omitempty"`
	Timeout  string `json:"timeout"`
	Retries  int    `json:"retries"`
}

func newRegistryListCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered task types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := loadRegistry(path)
			if err != nil {
				return err
			}
			out := make([]activitySummary, 0, len(reg.Activities))
			for _, a := range reg.Activities {
				out = append(out, activitySummary{TaskType: a.TaskType, Route: a.Route, Timeout: a.Timeout, Retries: a.Retries})
			}
			return printJSON(cmd, out)
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "Registry file")
	return cmd
}

// validateRegistry checks the fields the workers rely on and compiles every
// input schema.
func validateRegistry(reg *registry.ActivityRegistry) error {
	if len(reg.Activities) == 0 {
		return fmt.Errorf("registry contains no activities")
	}

	ids := make(map[string]bool)
	for _, activity := range reg.Activities {
		if activity.ID == "" {
			return fmt.Errorf("activity %s missing required field: ID", activity.TaskType)
		}
		if ids[activity.ID] {
			return fmt.Errorf("duplicate activity ID: %s", activity.ID)
		}
		ids[activity.ID] = true

		if activity.DisplayName == "" {
			return fmt.Errorf("activity %s missing required field: DisplayName", activity.ID)
		}
		if activity.Category == "" {
			return fmt.Errorf("activity %s missing required field: Category", activity.ID)
		}
		if activity.Timeout != "" {
			if d, err := time.ParseDuration(activity.Timeout); err != nil || d <= 0 {
				return fmt.Errorf("activity %s has invalid timeout %q", activity.ID, activity.Timeout)
			}
		}
	}

	if _, err := validation.NewValidator(reg); err != nil {
		return err
	}
	return nil
}

func newRegistryValidateCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the registry and compile its schemas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := loadRegistry(path)
			if err != nil {
				return fmt.Errorf("failed to load registry: %w", err)
			}
			if err := validateRegistry(reg); err != nil {
				return fmt.Errorf("registry validation failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registry validation passed. Found %d activities.\n", len(reg.Activities))
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "Registry file")
	return cmd
}

// updateActivity sets one scalar field of the activity with id.
func updateActivity(reg *registry.ActivityRegistry, id, field, value string) error {
	var activity *registry.Activity
	for i := range reg.Activities {
		if reg.Activities[i].ID == id {
			activity = &reg.Activities[i]
			break
		}
	}
	if activity == nil {
		return fmt.Errorf("activity with ID %s not found", id)
	}

	switch field {
	case "displayName":
		activity.DisplayName = value
	case "description":
		activity.Description = value
	case "category":
		activity.Category = value
	case "route":
		activity.Route = value
	case "timeout":
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid timeout value: %w", err)
		}
		activity.Timeout = value
	case "retries":
		retries, err := strconv.Atoi(value)
		if err != nil || retries < 0 {
			return fmt.Errorf("invalid retries value %q", value)
		}
		activity.Retries = retries
	default:
		return fmt.Errorf("unknown field: %s", field)
	}

	reg.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	return nil
}

func saveRegistry(reg *registry.ActivityRegistry, path string) error {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}

func newRegistryUpdateCmd() *cobra.Command {
	var path, id, field, value string

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update one field of a registry activity",
		Long: `Update rewrites a registry file in place. The task type and schemas are
not editable here.

Examples:
  effortctl registry update --path pkg/registry/tasks.json --id correlate-effort --field timeout --value 45s`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.LoadRegistry(path)
			if err != nil {
				return fmt.Errorf("failed to load registry: %w", err)
			}
			if err := updateActivity(reg, id, field, value); err != nil {
				return err
			}
			if err := saveRegistry(reg, path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated activity %s, field %s to %s\n", id, field, value)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "Registry file")
	cmd.Flags().StringVar(&id, "id", "", "Activity ID to update")
	cmd.Flags().StringVar(&field, "field", "", "Field to update (displayName, description, category, route, timeout, retries)")
	cmd.Flags().StringVar(&value, "value", "", "New value for the field")
	for _, name := range []string{"path", "id", "field", "value"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}
