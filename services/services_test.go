package services

import (
	"bytes"
	"crypto/tls"
	"errors"
	"io"
	"net/smtp"
	"os"
	"path/filepath"
	"testing"

	"coffeescraper/config"

	"github.com/jordan-wright/email"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

type fakeFile struct {
	bytes.Buffer
	closed bool
}

func (f *fakeFile) Close() error {
	f.closed = true
	return nil
}

type fakeFS struct {
	files  map[string]*fakeFile
	closed bool
}

func (fs *fakeFS) Create(path string) (io.WriteCloser, error) {
	f := &fakeFile{}
	fs.files[path] = f
	return f, nil
}

func (fs *fakeFS) Close() error {
	fs.closed = true
	return nil
}

func sftpSecrets(t *testing.T) (config.SFTPSecrets, string) {
	dir := t.TempDir()
	return config.SFTPSecrets{
		HostFile:     writeFile(t, dir, "hostfile", "ssh.example.org"),
		UserFile:     writeFile(t, dir, "username", "exampleuser"),
		PasswordFile: writeFile(t, dir, "password", "examplepassword"),
	}, writeFile(t, dir, "localfile", "oink,gnerk,groink")
}

func TestUploadDryRun(t *testing.T) {
	secrets, local := sftpSecrets(t)
	dialed := false
	s := NewUploadService(secrets, true).WithDialer(func(host, user, password string) (RemoteFS, error) {
		dialed = true
		return nil, errors.New("unexpected dial")
	})

	require.NoError(t, s.Upload(local, "/remote-file"))
	require.False(t, dialed)
}

func TestUpload(t *testing.T) {
	secrets, local := sftpSecrets(t)
	fs := &fakeFS{files: map[string]*fakeFile{}}

	var gotHost, gotUser, gotPassword string
	s := NewUploadService(secrets, false).WithDialer(func(host, user, password string) (RemoteFS, error) {
		gotHost, gotUser, gotPassword = host, user, password
		return fs, nil
	})

	require.NoError(t, s.Upload(local, "/remote-file"))
	require.Equal(t, "ssh.example.org", gotHost)
	require.Equal(t, "exampleuser", gotUser)
	require.Equal(t, "examplepassword", gotPassword)

	remote := fs.files["/remote-file"]
	require.NotNil(t, remote)
	require.Equal(t, "oink,gnerk,groink", remote.String())
	require.True(t, remote.closed)
	require.True(t, fs.closed)
}

func TestUploadMissingSecret(t *testing.T) {
	secrets, local := sftpSecrets(t)
	secrets.PasswordFile = filepath.Join(t.TempDir(), "missing")

	s := NewUploadService(secrets, false).WithDialer(func(host, user, password string) (RemoteFS, error) {
		t.Fatal("dial must not be reached")
		return nil, nil
	})
	require.Error(t, s.Upload(local, "/remote-file"))
}

func TestUploadDialError(t *testing.T) {
	secrets, local := sftpSecrets(t)
	s := NewUploadService(secrets, false).WithDialer(func(host, user, password string) (RemoteFS, error) {
		return nil, errors.New("connection refused")
	})
	err := s.Upload(local, "/remote-file")
	require.ErrorContains(t, err, "connection refused")
}

type sentMail struct {
	mail *email.Email
	addr string
	tls  *tls.Config
}

func alertService(t *testing.T, dryRun bool) (*AlertService, *[]sentMail) {
	dir := t.TempDir()
	secrets := config.SMTPSecrets{
		HostFile:     writeFile(t, dir, "smtp_host", "aaaa\n"),
		UserFile:     writeFile(t, dir, "smtp_user", "aaaa\n"),
		PasswordFile: writeFile(t, dir, "smtp_password", "aaaa\n"),
		MessageFile:  writeFile(t, dir, "smtp_message", "price dropped by more than {limit}\n"),
	}
	alert := config.AlertConfig{
		Limit:      0.5,
		Sender:     "sender@example.org",
		Recipients: []string{"recipient@example.org"},
		Subject:    "Test",
	}

	var sent []sentMail
	s := NewAlertService(secrets, alert, dryRun).WithSender(func(mail *email.Email, addr string, auth smtp.Auth, tlsConfig *tls.Config) error {
		sent = append(sent, sentMail{mail: mail, addr: addr, tls: tlsConfig})
		return nil
	})
	return s, &sent
}

func TestShouldAlert(t *testing.T) {
	s, _ := alertService(t, true)
	require.True(t, s.ShouldAlert(-0.5))
	require.True(t, s.ShouldAlert(-1.2))
	require.False(t, s.ShouldAlert(-0.49))
	require.False(t, s.ShouldAlert(0))
}

func TestSendAlertDryRun(t *testing.T) {
	s, sent := alertService(t, true)
	require.NoError(t, s.SendAlert())
	require.Empty(t, *sent)
}

func TestSendAlert(t *testing.T) {
	s, sent := alertService(t, false)
	require.NoError(t, s.SendAlert())
	require.Len(t, *sent, 1)

	got := (*sent)[0]
	require.Equal(t, "aaaa:465", got.addr)
	require.Equal(t, "aaaa", got.tls.ServerName)
	require.Equal(t, "sender@example.org", got.mail.From)
	require.Equal(t, []string{"recipient@example.org"}, got.mail.To)
	require.Equal(t, "Test", got.mail.Subject)
	require.Equal(t, "price dropped by more than 0.5\n", string(got.mail.Text))
}

func TestSendAlertWithoutRecipients(t *testing.T) {
	s, sent := alertService(t, false)
	s.alert.Recipients = nil
	require.Error(t, s.SendAlert())
	require.Empty(t, *sent)
}

func TestAlertMessageDefault(t *testing.T) {
	s, _ := alertService(t, true)
	s.secrets.MessageFile = filepath.Join(t.TempDir(), "missing")
	require.Contains(t, s.Message(), "0.5")
}
