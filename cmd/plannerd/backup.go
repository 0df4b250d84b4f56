package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/guiChehade/planner-tatatu/internal/ops"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Archive the planner data directory",
	RunE:  runBackup,
}

var restoreCmd = &cobra.Command{
	Use:   "restore <archive>",
	Short: "Restore a backup archive into a directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runRestore,
}

var drillCmd = &cobra.Command{
	Use:   "drill",
	Short: "Backup, restore and verify the data directory round-trips",
	RunE:  runDrill,
}

func init() {
	backupCmd.Flags().String("out", "", "output archive path (.tar.gz)")
	restoreCmd.Flags().String("target-dir", "data-restored", "restore target directory")
	drillCmd.Flags().String("work-dir", "", "workspace for drill artifacts (default temp dir)")
	rootCmd.AddCommand(backupCmd, restoreCmd, drillCmd)
}

func runBackup(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		ts := time.Now().UTC().Format("20060102T150405Z")
		out = filepath.Join("backups", "planner-"+ts+".tar.gz")
	}
	if err := ops.Backup(cfg.Storage.DataDir, out); err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

func runRestore(cmd *cobra.Command, args []string) error {
	target, _ := cmd.Flags().GetString("target-dir")
	return ops.Restore(args[0], target)
}

func runDrill(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	workDir, _ := cmd.Flags().GetString("work-dir")
	if workDir == "" {
		workDir = filepath.Join(cfg.Storage.DataDir, "..", "drill")
	}

	res, err := ops.Drill(cfg.Storage.DataDir, workDir)
	if err != nil {
		return err
	}
	fmt.Println("backup:", res.Archive)
	fmt.Println("restored:", res.RestoreDir)
	fmt.Println("digest:", res.Digest)
	return nil
}
