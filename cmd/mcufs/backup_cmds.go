package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/kjk/flatstore/backup"
	"github.com/kjk/flatstore/flatfile"
	"github.com/kjk/flatstore/u"

	"github.com/spf13/cobra"
)

const defaultSnapshotDir = "snapshots"

func addDirFlag(cmd *cobra.Command) {
	cmd.Flags().String("dir", defaultSnapshotDir, "directory with snapshots")
}

func (a *app) snapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot [file]",
		Short: "Save a compressed copy of a store file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := backup.ParseCompression(a.v.GetString("compress"))
			if err != nil {
				return err
			}
			info, err := backup.SnapshotPath(args[0], a.v.GetString("dir"), c)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s, sha1 %s)\n", info.Path, u.FormatSize(info.Size), info.Sha1)
			if a.v.GetBool("push") {
				ctx, cancel := a.context()
				defer cancel()
				t, done, err := a.target(ctx)
				if err != nil {
					return err
				}
				defer done()
				remotePath, err := backup.Push(ctx, t, info, a.v.GetString("remote-dir"))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "pushed as %s\n", remotePath)
			}
			return nil
		},
	}
	addDirFlag(cmd)
	cmd.Flags().String("compress", "zstd", "compression: none, gzip, zstd or brotli")
	cmd.Flags().Bool("push", false, "also upload the snapshot")
	cmd.Flags().String("remote-dir", "mcufs", "remote directory for uploaded snapshots")
	addRemoteFlags(cmd)
	return cmd
}

func (a *app) restoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore [snapshot] [file]",
		Short: "Replace a store file with the content of a snapshot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := backup.Restore(args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "restored %s from %s\n", flatfile.WithExt(args[1]), args[0])
			return nil
		},
	}
}

func (a *app) historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List snapshots recorded in the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			infos, err := backup.History(a.v.GetString("dir"))
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, i := range infos {
				fmt.Fprintf(w, "%s  %-40s %8s  %s  %s\n", i.Time.Format(time.DateTime), filepath.Base(i.Path), u.FormatSize(i.Size), i.Compression, i.Source)
			}
			return nil
		},
	}
	addDirFlag(cmd)
	return cmd
}

func (a *app) pruneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune [base]",
		Short: "Delete all but the newest snapshots of a store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			removed, err := backup.Prune(a.v.GetString("dir"), args[0], a.v.GetInt("keep"))
			for _, path := range removed {
				fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", path)
			}
			return err
		},
	}
	addDirFlag(cmd)
	cmd.Flags().Int("keep", 10, "number of snapshots to keep")
	return cmd
}

func (a *app) pushCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "push [snapshot]",
		Short: "Upload a snapshot to S3 or an SFTP server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context()
			defer cancel()
			t, done, err := a.target(ctx)
			if err != nil {
				return err
			}
			defer done()
			info := &backup.Info{Path: args[0]}
			remotePath, err := backup.Push(ctx, t, info, a.v.GetString("remote-dir"))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pushed as %s\n", remotePath)
			return nil
		},
	}
	cmd.Flags().String("remote-dir", "mcufs", "remote directory for uploaded snapshots")
	addRemoteFlags(cmd)
	return cmd
}

func (a *app) pullCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pull [remote] [file]",
		Short: "Download a snapshot and restore it to a store file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context()
			defer cancel()
			t, done, err := a.target(ctx)
			if err != nil {
				return err
			}
			defer done()
			if err = backup.Pull(ctx, t, args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "restored %s from %s\n", flatfile.WithExt(args[1]), args[0])
			return nil
		},
	}
	addRemoteFlags(cmd)
	return cmd
}

func (a *app) fetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch [url] [file]",
		Short: "Download a snapshot over http(s) and restore it to a store file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context()
			defer cancel()
			if err := backup.FetchURL(ctx, args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "restored %s from %s\n", flatfile.WithExt(args[1]), args[0])
			return nil
		},
	}
}
