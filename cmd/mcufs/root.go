package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kjk/flatstore/backup"
	"github.com/kjk/flatstore/log"
	"github.com/kjk/flatstore/minioutil"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	Version = "0.3.0"

	// wrap is the number of characters to wrap the help text at
	wrap = 60
)

// wrapString wraps text at wrap characters
func wrapString(text string) string {
	var lines []string
	var line strings.Builder
	for _, word := range strings.Fields(text) {
		if line.Len() > 0 && line.Len()+1+len(word) > wrap {
			lines = append(lines, line.String())
			line.Reset()
		}
		if line.Len() > 0 {
			line.WriteByte(' ')
		}
		line.WriteString(word)
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n")
}

// app holds configuration shared by all commands
type app struct {
	v *viper.Viper
}

// initConfig loads .env files and reads MCUFS_* environment variables
func (a *app) initConfig() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	a.v.SetEnvPrefix("mcufs")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if err := a.v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	log.Output = cmd.ErrOrStderr()
	log.Verbose = a.v.GetBool("verbose")
	if dir := a.v.GetString("log-dir"); dir != "" {
		log.Init(&log.Config{Dir: dir})
	}
	return nil
}

func (a *app) s3Config() *minioutil.Config {
	return &minioutil.Config{
		Access:   a.v.GetString("s3-access"),
		Secret:   a.v.GetString("s3-secret"),
		Bucket:   a.v.GetString("s3-bucket"),
		Endpoint: a.v.GetString("s3-endpoint"),
		Region:   a.v.GetString("s3-region"),
		Insecure: a.v.GetBool("s3-insecure"),
	}
}

func (a *app) sftpConfig() *backup.SFTPConfig {
	return &backup.SFTPConfig{
		User:                  a.v.GetString("sftp-user"),
		Host:                  a.v.GetString("sftp-host"),
		Port:                  a.v.GetUint("sftp-port"),
		KeyPath:               a.v.GetString("sftp-key"),
		Password:              a.v.GetString("sftp-password"),
		InsecureIgnoreHostKey: a.v.GetBool("sftp-insecure"),
	}
}

// target connects to the remote configured with --target.
// The returned func must be called when done.
func (a *app) target(ctx context.Context) (backup.Target, func(), error) {
	switch kind := a.v.GetString("target"); kind {
	case "s3":
		c, err := minioutil.New(ctx, a.s3Config())
		if err != nil {
			return nil, nil, err
		}
		return c, func() {}, nil
	case "sftp":
		s, err := backup.DialSFTP(a.sftpConfig())
		if err != nil {
			return nil, nil, err
		}
		return s, func() { log.IfErrf(s.Close()) }, nil
	default:
		return nil, nil, fmt.Errorf("unknown target '%s', must be s3 or sftp", kind)
	}
}

func (a *app) context() (context.Context, context.CancelFunc) {
	timeout := a.v.GetDuration("timeout")
	if timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), timeout)
}

var errFailed = errors.New("failed")

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	a.initConfig()

	root := &cobra.Command{
		Use:   "mcufs",
		Short: "inspect, edit and back up .mcufs store files",
		Long: fmt.Sprintf(`mcufs (v%s)

Reads and writes typed key/value store files in .mcufs format,
takes compressed snapshots and copies them to S3 or an SFTP server.

Settings can be given as flags or MCUFS_* environment variables,
also read from .env and .env.local.`, Version),
		PersistentPreRunE: a.setup,
		SilenceUsage:      true,
	}

	pf := root.PersistentFlags()
	pf.Bool("verbose", false, wrapString("log more details"))
	pf.String("log-dir", "", wrapString("if given, write logs and events to files in this directory"))
	pf.Duration("timeout", 5*time.Minute, wrapString("timeout for network operations"))

	root.AddCommand(
		a.keysCmd(),
		a.getCmd(),
		a.setCmd(),
		a.delCmd(),
		a.dumpCmd(),
		a.checkCmd(),
		a.statsCmd(),
		a.snapshotCmd(),
		a.restoreCmd(),
		a.historyCmd(),
		a.pruneCmd(),
		a.pushCmd(),
		a.pullCmd(),
		a.fetchCmd(),
		versionCmd(),
	)
	return root
}

func addRemoteFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("target", "s3", wrapString("where snapshots are stored: s3 or sftp"))
	f.String("s3-access", "", "S3 access key")
	f.String("s3-secret", "", "S3 secret key")
	f.String("s3-bucket", "", "S3 bucket")
	f.String("s3-endpoint", "", wrapString("S3 endpoint, e.g. s3.amazonaws.com or localhost:9000"))
	f.String("s3-region", "", "S3 region")
	f.Bool("s3-insecure", false, "use http to talk to S3 endpoint")
	f.String("sftp-user", "", "ssh user")
	f.String("sftp-host", "", "ssh server")
	f.Uint("sftp-port", 22, "ssh port")
	f.String("sftp-key", "~/.ssh/id_ed25519", "private key file")
	f.String("sftp-password", "", wrapString("password, used if there's no private key"))
	f.Bool("sftp-insecure", false, wrapString("don't verify server key with ~/.ssh/known_hosts"))
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of mcufs",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "mcufs v%s\n", Version)
		},
	}
}
