package services

import (
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"time"

	"coffeescraper/config"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// RemoteFS is the part of an SFTP session the uploader needs.
type RemoteFS interface {
	Create(path string) (io.WriteCloser, error)
	Close() error
}

// Dialer opens a RemoteFS on host with password authentication.
type Dialer func(host, user, password string) (RemoteFS, error)

// UploadService copies report files to the remote web host over SFTP.
type UploadService struct {
	secrets config.SFTPSecrets
	dryRun  bool
	dial    Dialer
}

// NewUploadService creates an uploader that reads credentials from the
// given secret files.
func NewUploadService(secrets config.SFTPSecrets, dryRun bool) *UploadService {
	return &UploadService{
		secrets: secrets,
		dryRun:  dryRun,
		dial: func(host, user, password string) (RemoteFS, error) {
			return DialSFTP(host, user, password, secrets.KnownHostsFile)
		},
	}
}

// WithDialer replaces how SFTP sessions are opened.
func (s *UploadService) WithDialer(dial Dialer) *UploadService {
	return &UploadService{secrets: s.secrets, dryRun: s.dryRun, dial: dial}
}

// Upload copies localPath to remotePath. Nothing is transferred in dry run mode.
func (s *UploadService) Upload(localPath, remotePath string) error {
	if s.dryRun {
		slog.Info("sftp upload skipped", "local", localPath, "remote", remotePath)
		return nil
	}

	host, ok := config.Secret(s.secrets.HostFile)
	if !ok || host == "" {
		return fmt.Errorf("sftp host secret %s is missing", s.secrets.HostFile)
	}
	user, ok := config.Secret(s.secrets.UserFile)
	if !ok {
		return fmt.Errorf("sftp user secret %s is missing", s.secrets.UserFile)
	}
	password, ok := config.Secret(s.secrets.PasswordFile)
	if !ok {
		return fmt.Errorf("sftp password secret %s is missing", s.secrets.PasswordFile)
	}

	local, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	defer local.Close()

	fs, err := s.dial(host, user, password)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", host, err)
	}
	defer fs.Close()

	remote, err := fs.Create(remotePath)
	if err != nil {
		return fmt.Errorf("create %s on %s: %w", remotePath, host, err)
	}
	n, err := io.Copy(remote, local)
	if err != nil {
		remote.Close()
		return fmt.Errorf("upload %s to %s: %w", localPath, host, err)
	}
	if err := remote.Close(); err != nil {
		return fmt.Errorf("finish upload of %s to %s: %w", localPath, host, err)
	}

	slog.Info("file uploaded", "local", localPath, "host", host, "remote", remotePath, "bytes", n)
	return nil
}

type sftpFS struct {
	conn   *ssh.Client
	client *sftp.Client
}

// DialSFTP connects to host (port 22 unless host names one) and starts an
// SFTP session. Host keys are not checked when knownHostsFile is empty.
func DialSFTP(host, user, password, knownHostsFile string) (RemoteFS, error) {
	hostKeys := ssh.InsecureIgnoreHostKey()
	if knownHostsFile != "" {
		cb, err := knownhosts.New(knownHostsFile)
		if err != nil {
			return nil, fmt.Errorf("load known hosts: %w", err)
		}
		hostKeys = cb
	}

	addr := host
	if _, _, err := net.SplitHostPort(host); err != nil {
		addr = net.JoinHostPort(host, "22")
	}

	conn, err := ssh.Dial("tcp", addr, &ssh.ClientConfig{
		User:            user,
		Auth:            []ssh.AuthMethod{ssh.Password(password)},
		HostKeyCallback: hostKeys,
		Timeout:         30 * time.Second,
	})
	if err != nil {
		return nil, err
	}

	client, err := sftp.NewClient(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &sftpFS{conn: conn, client: client}, nil
}

func (fs *sftpFS) Create(path string) (io.WriteCloser, error) {
	f, err := fs.client.Create(path)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (fs *sftpFS) Close() error {
	err := fs.client.Close()
	if cerr := fs.conn.Close(); err == nil {
		err = cerr
	}
	return err
}
