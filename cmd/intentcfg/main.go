// cmd/intentcfg/main.go
package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"intentcfg/client"
	"intentcfg/internal/runtime"
	"intentcfg/internal/snapshot"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var serverURL string

var rootCmd = &cobra.Command{
	Use:   "intentcfg",
	Short: "Manage intent classification snapshots and runtime config",
	Long: `intentcfg drives the snapshot lifecycle of the intent classification
engine: build and publish configuration snapshots, roll back to earlier
ones, and inspect the runtime config served to classifiers.`,
}

func api() *client.Client {
	return client.New(serverURL)
}

func scopeFromFlags(cmd *cobra.Command) runtime.Scope {
	channel, _ := cmd.Flags().GetString("channel")
	tenant, _ := cmd.Flags().GetString("tenant")
	region, _ := cmd.Flags().GetString("region")
	env, _ := cmd.Flags().GetString("env")
	return runtime.Scope{Channel: channel, Tenant: tenant, Region: region, Env: env}
}

func addScopeFlags(cmd *cobra.Command) {
	cmd.Flags().String("channel", "", "scope channel")
	cmd.Flags().String("tenant", "", "scope tenant")
	cmd.Flags().String("region", "", "scope region")
	cmd.Flags().String("env", "", "scope environment")
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "server base URL")

	// intent commands
	var intentCmd = &cobra.Command{
		Use:   "intent",
		Short: "Manage classification intents",
	}

	var createIntentCmd = &cobra.Command{
		Use:   "create [code] [name]",
		Short: "Create a new intent",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			description, _ := cmd.Flags().GetString("description")

			i, err := api().CreateIntent(args[0], args[1], description)
			if err != nil {
				return fmt.Errorf("creating intent: %w", err)
			}

			fmt.Printf("Created intent %s (%s)\n", i.Code, i.ID)
			return nil
		},
	}
	createIntentCmd.Flags().String("description", "", "intent description")

	var listIntentsCmd = &cobra.Command{
		Use:   "list",
		Short: "List intents",
		RunE: func(cmd *cobra.Command, args []string) error {
			intents, err := api().ListIntents()
			if err != nil {
				return fmt.Errorf("listing intents: %w", err)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CODE\tNAME\tSTATUS\tID")
			for _, i := range intents {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", i.Code, i.Name, i.Status, i.ID)
			}
			return w.Flush()
		},
	}

	// version commands
	var versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Manage intent versions",
	}

	var createVersionCmd = &cobra.Command{
		Use:   "create [intent-id] [label]",
		Short: "Create a draft version for an intent",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			note, _ := cmd.Flags().GetString("note")

			v, err := api().CreateVersion(args[0], args[1], note)
			if err != nil {
				return fmt.Errorf("creating version: %w", err)
			}

			fmt.Printf("Created draft version %s (%s)\n", v.Label, v.ID)
			return nil
		},
	}
	createVersionCmd.Flags().String("note", "", "change note")

	var activateVersionCmd = &cobra.Command{
		Use:   "activate [version-id]",
		Short: "Activate a draft version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := api().ActivateVersion(args[0])
			if err != nil {
				return fmt.Errorf("activating version: %w", err)
			}

			fmt.Printf("Version %s is now active\n", v.Label)
			return nil
		},
	}

	var offlineVersionCmd = &cobra.Command{
		Use:   "offline [version-id]",
		Short: "Take an active version offline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := api().OfflineVersion(args[0])
			if err != nil {
				return fmt.Errorf("taking version offline: %w", err)
			}

			fmt.Printf("Version %s is now offline\n", v.Label)
			return nil
		},
	}

	var deleteVersionCmd = &cobra.Command{
		Use:   "delete [version-id]",
		Short: "Delete a non-active version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := api().DeleteVersion(args[0]); err != nil {
				return fmt.Errorf("deleting version: %w", err)
			}

			fmt.Println("Version deleted")
			return nil
		},
	}

	var copyVersionCmd = &cobra.Command{
		Use:   "copy [version-id] [new-label]",
		Short: "Copy a version as a new draft",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			note, _ := cmd.Flags().GetString("note")

			v, err := api().CopyVersion(args[0], args[1], note)
			if err != nil {
				return fmt.Errorf("copying version: %w", err)
			}

			fmt.Printf("Created draft version %s (%s)\n", v.Label, v.ID)
			return nil
		},
	}
	copyVersionCmd.Flags().String("note", "", "change note")

	// snapshot commands
	var snapshotCmd = &cobra.Command{
		Use:   "snapshot",
		Short: "Manage configuration snapshots",
	}

	var createSnapshotCmd = &cobra.Command{
		Use:   "create [name]",
		Short: "Create a draft snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, _ := cmd.Flags().GetString("scope")

			snap, err := api().CreateSnapshot(args[0], scope)
			if err != nil {
				return fmt.Errorf("creating snapshot: %w", err)
			}

			fmt.Printf("Created draft snapshot %s (%s)\n", snap.Name, snap.ID)
			return nil
		},
	}
	createSnapshotCmd.Flags().String("scope", "", "snapshot scope")

	var listSnapshotsCmd = &cobra.Command{
		Use:   "list",
		Short: "List snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			snapshots, err := api().ListSnapshots()
			if err != nil {
				return fmt.Errorf("listing snapshots: %w", err)
			}

			green := color.New(color.FgGreen).SprintFunc()

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSTATUS\tETAG\tID")
			for _, snap := range snapshots {
				status := string(snap.Status)
				if snap.Status == "active" {
					status = green(status)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", snap.Name, status, snap.Etag, snap.ID)
			}
			return w.Flush()
		},
	}

	var publishSnapshotCmd = &cobra.Command{
		Use:   "publish [snapshot-id]",
		Short: "Build and publish a draft snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			operator, _ := cmd.Flags().GetString("by")

			snap, err := api().PublishSnapshot(args[0], operator)
			if err != nil {
				return fmt.Errorf("publishing snapshot: %w", err)
			}

			fmt.Printf("Published snapshot %s with %d intents (etag %s)\n", snap.Name, len(snap.Items), snap.Etag)
			return nil
		},
	}
	publishSnapshotCmd.Flags().String("by", "", "operator name")

	var rollbackSnapshotCmd = &cobra.Command{
		Use:   "rollback [snapshot-id]",
		Short: "Roll back to a previously published snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reason, _ := cmd.Flags().GetString("reason")
			operator, _ := cmd.Flags().GetString("by")
			if reason == "" {
				return fmt.Errorf("--reason is required")
			}

			snap, err := api().RollbackSnapshot(args[0], reason, operator)
			if err != nil {
				return fmt.Errorf("rolling back: %w", err)
			}

			fmt.Printf("Rolled back to snapshot %s (etag %s)\n", snap.Name, snap.Etag)
			return nil
		},
	}
	rollbackSnapshotCmd.Flags().String("reason", "", "rollback reason")
	rollbackSnapshotCmd.Flags().String("by", "", "operator name")

	var compareSnapshotsCmd = &cobra.Command{
		Use:   "compare [base-id] [target-id]",
		Short: "Show intent-level differences between two snapshots",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := api().CompareSnapshots(args[0], args[1])
			if err != nil {
				return fmt.Errorf("comparing snapshots: %w", err)
			}

			printCompareResult(result)
			return nil
		},
	}

	// config commands
	var configCmd = &cobra.Command{
		Use:   "config",
		Short: "Inspect runtime configuration",
	}

	var getConfigCmd = &cobra.Command{
		Use:   "get",
		Short: "Fetch the runtime config for a scope",
		RunE: func(cmd *cobra.Command, args []string) error {
			etag, _ := cmd.Flags().GetString("etag")

			cfg, newEtag, notModified, err := api().FetchConfig(scopeFromFlags(cmd), etag)
			if err != nil {
				return fmt.Errorf("fetching config: %w", err)
			}
			if notModified {
				fmt.Printf("Not modified (etag %s)\n", newEtag)
				return nil
			}

			fmt.Printf("Snapshot: %s\n", cfg.SnapshotID)
			fmt.Printf("Etag:     %s\n", cfg.Etag)
			fmt.Printf("Scope:    %s\n", cfg.Scope.Key())
			fmt.Printf("Intents:  %d\n", len(cfg.Intents))
			for code, entry := range cfg.Intents {
				fmt.Printf("  %s (%s) threshold=%.2f\n", code, entry.Version, entry.Threshold)
			}
			return nil
		},
	}
	addScopeFlags(getConfigCmd)
	getConfigCmd.Flags().String("etag", "", "etag from a previous fetch for a conditional request")

	// sync commands
	var syncCmd = &cobra.Command{
		Use:   "sync",
		Short: "Sync the config cache for a scope",
		RunE: func(cmd *cobra.Command, args []string) error {
			outcome, err := api().SyncScope(scopeFromFlags(cmd))
			if err != nil {
				return fmt.Errorf("syncing scope: %w", err)
			}

			fmt.Printf("Sync result: %s\n", outcome)
			return nil
		},
	}
	addScopeFlags(syncCmd)

	var syncAllCmd = &cobra.Command{
		Use:   "all",
		Short: "Evict all cache tiers and resync every known scope",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := api().SyncAll()
			if err != nil {
				return fmt.Errorf("syncing all scopes: %w", err)
			}

			fmt.Printf("Synced %d/%d scopes\n", result.Succeeded, result.Total)
			for scope, msg := range result.Errors {
				fmt.Printf("  failed %s: %s\n", scope, msg)
			}
			return nil
		},
	}

	rootCmd.AddCommand(intentCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(syncCmd)

	intentCmd.AddCommand(createIntentCmd)
	intentCmd.AddCommand(listIntentsCmd)

	versionCmd.AddCommand(createVersionCmd)
	versionCmd.AddCommand(activateVersionCmd)
	versionCmd.AddCommand(offlineVersionCmd)
	versionCmd.AddCommand(deleteVersionCmd)
	versionCmd.AddCommand(copyVersionCmd)

	snapshotCmd.AddCommand(createSnapshotCmd)
	snapshotCmd.AddCommand(listSnapshotsCmd)
	snapshotCmd.AddCommand(publishSnapshotCmd)
	snapshotCmd.AddCommand(rollbackSnapshotCmd)
	snapshotCmd.AddCommand(compareSnapshotsCmd)

	configCmd.AddCommand(getConfigCmd)
	syncCmd.AddCommand(syncAllCmd)
}

func printCompareResult(result *snapshot.CompareResult) {
	added := color.New(color.FgGreen)
	removed := color.New(color.FgRed)
	changed := color.New(color.FgYellow)
	header := color.New(color.FgCyan)

	header.Printf("Comparing %s -> %s\n", result.BaseID, result.TargetID)

	for _, item := range result.Added {
		added.Printf("+ %s (%s)\n", item.IntentCode, item.VersionLabel)
	}
	for _, item := range result.Removed {
		removed.Printf("- %s (%s)\n", item.IntentCode, item.VersionLabel)
	}
	for _, change := range result.Modified {
		changed.Printf("~ %s (%s -> %s)\n", change.Before.IntentCode, change.Before.VersionLabel, change.After.VersionLabel)
	}

	if len(result.Added)+len(result.Removed)+len(result.Modified) == 0 {
		fmt.Println("No differences")
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
