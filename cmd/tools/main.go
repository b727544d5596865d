package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/baxromumarov/velocity/internal/config"
	"github.com/baxromumarov/velocity/internal/roadmap"
	"github.com/baxromumarov/velocity/internal/store"
)

var (
	dbURL     string
	rolesFile string
	roleName  string
	known     []string
)

var rootCmd = &cobra.Command{
	Use:           "velocity-tools",
	Short:         "Maintenance commands for the Velocity backend",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending Postgres migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		url := dbURL
		if url == "" {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			url = cfg.Store.PostgresURL
		}
		if err := store.RunMigrations(url); err != nil {
			return err
		}
		fmt.Println("Migrations executed successfully")
		return nil
	},
}

var rolesCmd = &cobra.Command{
	Use:   "roles",
	Short: "List the role to roadmap folder table",
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := roadmap.LoadRoles(rolesFile)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ROLE\tFOLDER")
		for _, rf := range table.List() {
			fmt.Fprintf(w, "%s\t%s\n", rf.Role, rf.Folder)
		}
		return w.Flush()
	},
}

var roadmapCmd = &cobra.Command{
	Use:   "roadmap",
	Short: "Print the extracted roadmap for a role as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(roleName) == "" {
			return fmt.Errorf("--role is required")
		}
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if rolesFile != "" {
			cfg.Roadmap.RolesFile = rolesFile
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()

		table, err := roadmap.LoadRoles(cfg.Roadmap.RolesFile)
		if err != nil {
			return err
		}
		var source roadmap.Source = roadmap.NewFSSource(os.DirFS(cfg.Roadmap.RepoPath))
		if cfg.Roadmap.S3Bucket != "" {
			if source, err = roadmap.NewS3Source(ctx, cfg.Roadmap); err != nil {
				return err
			}
		}

		rm, err := roadmap.NewService(source, table).Build(ctx, roleName, known)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rm)
	},
}

func init() {
	migrateCmd.Flags().StringVar(&dbURL, "db", "", "Postgres URL (defaults to DATABASE_URL)")
	rolesCmd.Flags().StringVar(&rolesFile, "roles-file", "", "YAML role override file")
	roadmapCmd.Flags().StringVar(&rolesFile, "roles-file", "", "YAML role override file")
	roadmapCmd.Flags().StringVar(&roleName, "role", "", "Target role, e.g. \"Back End Developer\"")
	roadmapCmd.Flags().StringSliceVar(&known, "known", nil, "Skills to mark as known")

	rootCmd.AddCommand(migrateCmd, rolesCmd, roadmapCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
