package backup

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/kjk/flatstore/atomicfile"
	"github.com/kjk/flatstore/log"
	"github.com/kjk/flatstore/u"

	"github.com/carlmjohnson/requests"
	"github.com/melbahja/goph"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// Target is a remote place to store snapshots
type Target interface {
	Upload(ctx context.Context, localPath string, remotePath string) error
	Download(ctx context.Context, remotePath string, localPath string) error
}

// Push uploads snapshot to remoteDir on t. Returns the remote path.
func Push(ctx context.Context, t Target, info *Info, remoteDir string) (string, error) {
	remotePath := path.Join(remoteDir, filepath.Base(info.Path))
	timeStart := time.Now()
	if err := t.Upload(ctx, info.Path, remotePath); err != nil {
		return "", err
	}
	log.EventWithDuration("backup.push", time.Since(timeStart), "path", info.Path, "remote", remotePath)
	return remotePath, nil
}

// restoreViaTemp calls download to get a snapshot named name into
// a temporary directory and restores it to dstPath
func restoreViaTemp(name string, dstPath string, download func(localPath string) error) error {
	dir, err := os.MkdirTemp("", "mcufs-restore-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)
	localPath := filepath.Join(dir, name)
	if err = download(localPath); err != nil {
		return err
	}
	return Restore(localPath, dstPath)
}

// Pull downloads snapshot remotePath from t and restores it to dstPath
func Pull(ctx context.Context, t Target, remotePath string, dstPath string) error {
	return restoreViaTemp(path.Base(remotePath), dstPath, func(localPath string) error {
		return t.Download(ctx, remotePath, localPath)
	})
}

// FetchURL downloads a snapshot from uri and restores it to dstPath.
// Compression is detected from the extension of url path.
func FetchURL(ctx context.Context, uri string, dstPath string) error {
	parsed, err := url.Parse(uri)
	if err != nil {
		return err
	}
	name := path.Base(parsed.Path)
	if name == "." || name == "/" {
		name = "snapshot"
	}
	ext := path.Ext(name)
	if !u.IsCompressedExt(ext) {
		ext = ""
	}
	// only the extension matters for decompression
	name = "fetched" + ext
	return restoreViaTemp(name, dstPath, func(localPath string) error {
		af, err := atomicfile.New(localPath)
		if err != nil {
			return err
		}
		defer af.RemoveIfNotClosed()
		err = requests.
			URL(uri).
			ToWriter(af).
			Fetch(ctx)
		if err != nil {
			return fmt.Errorf("backup: fetching '%s' failed with '%w'", uri, err)
		}
		return af.Close()
	})
}

type SFTPConfig struct {
	User string
	Host string
	// 22 if not given
	Port uint
	// private key auth, used if KeyPath is given
	KeyPath    string
	Passphrase string
	// password auth
	Password string
	// skip checking server key against ~/.ssh/known_hosts
	InsecureIgnoreHostKey bool
	Timeout               time.Duration
}

// SFTP is a Target on a server reachable over ssh
type SFTP struct {
	client *goph.Client
	sftp   *sftp.Client
}

func DialSFTP(c *SFTPConfig) (*SFTP, error) {
	if c.User == "" || c.Host == "" {
		return nil, errors.New("backup: SFTPConfig must have User and Host")
	}
	var auth goph.Auth
	var err error
	switch {
	case c.KeyPath != "":
		auth, err = goph.Key(u.ExpandTildeInPath(c.KeyPath), c.Passphrase)
		if err != nil {
			return nil, fmt.Errorf("backup: goph.Key() failed with '%w'", err)
		}
	case c.Password != "":
		auth = goph.Password(c.Password)
	default:
		return nil, errors.New("backup: SFTPConfig must have KeyPath or Password")
	}

	cfg := &goph.Config{
		User:    c.User,
		Addr:    c.Host,
		Port:    c.Port,
		Auth:    auth,
		Timeout: c.Timeout,
	}
	if cfg.Port == 0 {
		cfg.Port = 22
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 20 * time.Second
	}
	if c.InsecureIgnoreHostKey {
		cfg.Callback = ssh.InsecureIgnoreHostKey()
	} else {
		cfg.Callback, err = goph.DefaultKnownHosts()
		if err != nil {
			return nil, fmt.Errorf("backup: goph.DefaultKnownHosts() failed with '%w'", err)
		}
	}
	client, err := goph.NewConn(cfg)
	if err != nil {
		return nil, fmt.Errorf("backup: connecting to '%s' failed with '%w'", c.Host, err)
	}
	sc, err := client.NewSftp()
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("backup: client.NewSftp() failed with '%w'", err)
	}
	return &SFTP{client: client, sftp: sc}, nil
}

func (s *SFTP) Upload(ctx context.Context, localPath string, remotePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if dir := path.Dir(remotePath); dir != "." && dir != "/" {
		if err := s.sftp.MkdirAll(dir); err != nil {
			return fmt.Errorf("backup: sftp.MkdirAll('%s') failed with '%w'", dir, err)
		}
	}
	sizeStr := u.FormatSize(u.FileSize(localPath))
	log.Verbosef("uploading '%s' (%s) to '%s'\n", localPath, sizeStr, remotePath)
	return s.client.Upload(localPath, remotePath)
}

func (s *SFTP) Download(ctx context.Context, remotePath string, localPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := s.sftp.Open(remotePath)
	if err != nil {
		return fmt.Errorf("backup: sftp.Open('%s') failed with '%w'", remotePath, err)
	}
	defer f.Close()
	_, err = atomicfile.WriteFrom(localPath, f)
	return err
}

// Remove deletes remotePath on the server
func (s *SFTP) Remove(remotePath string) error {
	return s.sftp.Remove(remotePath)
}

// List returns names of files in remoteDir
func (s *SFTP) List(remoteDir string) ([]string, error) {
	fis, err := s.sftp.ReadDir(remoteDir)
	if err != nil {
		return nil, err
	}
	var res []string
	for _, fi := range fis {
		if fi.Mode().IsRegular() && strings.Contains(fi.Name(), ".mcufs") {
			res = append(res, fi.Name())
		}
	}
	return res, nil
}

func (s *SFTP) Close() error {
	return errors.Join(s.sftp.Close(), s.client.Close())
}
