package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"folio/internal/blob"
	"folio/internal/config"
	"folio/internal/database"
	"folio/internal/encryption"
	"folio/internal/folio"
	"folio/internal/mail"
)

// FolioApp is the application layer between the transports (CLI, HTTP) and
// FolioService. It constructs all dependencies from config, exposes
// operations that accept raw file paths, and manages the DB lifecycle on Close.
type FolioApp struct {
	cfg        *config.Config
	store      *database.Store
	blobs      folio.BlobStore
	encryptor  folio.Encryptor
	service    *folio.FolioService
	dispatcher *folio.Dispatcher
	op         *Operation
	zlog       zerolog.Logger
	logger     folio.Logger
	logFile    *os.File
}

// NewFolioApp creates a fully wired FolioApp from the given config.
// operation identifies the command being run (e.g. "AddImage", "Serve").
// Log lines are mirrored to stderr. The caller must call Close when done.
func NewFolioApp(ctx context.Context, cfg *config.Config, operation string) (*FolioApp, error) {
	return newFolioApp(ctx, cfg, operation, os.Stderr)
}

func newFolioApp(ctx context.Context, cfg *config.Config, operation string, console io.Writer) (*FolioApp, error) {
	op := NewOperation(operation, time.Now())
	zlog, logFile, err := newLogger(cfg.LogDir, cfg.LogLevel, op, console)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &zerologAdapter{l: zlog}

	fail := func(err error, closers ...io.Closer) (*FolioApp, error) {
		for _, c := range closers {
			c.Close()
		}
		logFile.Close()
		return nil, err
	}

	store, err := database.NewStoreFromConfig(cfg.Database)
	if err != nil {
		return fail(fmt.Errorf("creating database: %w", err))
	}
	if err := store.CheckMigrations(); err != nil {
		return fail(fmt.Errorf("database schema out of date (run `folio migrate`): %w", err), store)
	}

	blobs, err := blob.NewBlobStoreFromConfig(ctx, cfg.Blobs)
	if err != nil {
		return fail(fmt.Errorf("creating blob store: %w", err), store)
	}
	if err := blobs.ValidateSetup(ctx); err != nil {
		return fail(fmt.Errorf("blob store not usable: %w", err), store)
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return fail(fmt.Errorf("creating encryptor: %w", err), store)
	}

	mailer, err := mail.NewMailerFromConfig(cfg.Mail, logger)
	if err != nil {
		return fail(fmt.Errorf("creating mailer: %w", err), store)
	}

	opts := []folio.Option{folio.WithInviteBaseURL(cfg.Mail.InviteBaseURL)}
	if enc != nil {
		if !enc.IsConfigured() {
			return fail(fmt.Errorf("encryption enabled but keys are missing (run `folio keys init`)"), store)
		}
		opts = append(opts, folio.WithEncryptor(enc))
	}

	svc := folio.NewFolioService(store, blobs, mailer, logger, folio.RealClock{}, folio.UUIDGenerator{}, opts...)
	logger.Debug("app initialized", "database", cfg.Database.Type, "blobs", cfg.Blobs.Type, "mail", cfg.Mail.Type)

	return &FolioApp{
		cfg:        cfg,
		store:      store,
		blobs:      blobs,
		encryptor:  enc,
		service:    svc,
		dispatcher: folio.NewDispatcher(svc, logger),
		op:         op,
		zlog:       zlog,
		logger:     logger,
		logFile:    logFile,
	}, nil
}

// Migrate applies all pending schema migrations for the configured database.
func Migrate(cfg *config.Config) error {
	store, err := database.NewStoreFromConfig(cfg.Database)
	if err != nil {
		return fmt.Errorf("creating database: %w", err)
	}
	defer store.Close()

	if err := store.Migrate(); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	return nil
}

// Schema returns the SQLite schema produced by applying every migration to
// an empty in-memory database.
func Schema(ctx context.Context) (string, error) {
	store, err := database.NewStoreFromConfig(config.DatabaseConfig{Type: "memory"})
	if err != nil {
		return "", err
	}
	defer store.Close()
	return store.Schema(ctx)
}

// InitKeys generates the artifact encryption key pair at the configured paths.
func InitKeys(cfg *config.Config, passphrase string) error {
	if cfg.Encryption.Type != "age" {
		return fmt.Errorf("encryption type is %q; set [encryption] type = \"age\" first", cfg.Encryption.Type)
	}
	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return err
	}
	return enc.Setup(passphrase)
}

func (a *FolioApp) Config() *config.Config        { return a.cfg }
func (a *FolioApp) Service() *folio.FolioService  { return a.service }
func (a *FolioApp) Dispatcher() *folio.Dispatcher { return a.dispatcher }
func (a *FolioApp) Logger() folio.Logger          { return a.logger }
func (a *FolioApp) ZeroLogger() zerolog.Logger    { return a.zlog }
func (a *FolioApp) Operation() *Operation         { return a.op }
func (a *FolioApp) EncryptionEnabled() bool       { return a.encryptor != nil }

// Dispatch runs an action through the authorizing dispatcher.
func (a *FolioApp) Dispatch(ctx context.Context, actor folio.Actor, act folio.Action) (folio.Result, error) {
	return a.dispatcher.Dispatch(ctx, actor, act)
}

// AddImageFile opens the file at path and adds it to the project's gallery.
func (a *FolioApp) AddImageFile(ctx context.Context, actor folio.Actor, projectID, path string) (*folio.Image, error) {
	f, size, err := openRegular(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	res, err := a.dispatcher.Dispatch(ctx, actor, folio.AddImageAction{
		ProjectID: projectID,
		FileName:  filepath.Base(path),
		Content:   f,
		Size:      size,
	})
	if err != nil {
		return nil, err
	}
	return res.Image, nil
}

// AddArtifactFile opens the file at path and attaches it as a file artifact.
// The extension is taken from the file name.
func (a *FolioApp) AddArtifactFile(ctx context.Context, actor folio.Actor, projectID, name, description, path string, published bool) (*folio.Artifact, error) {
	f, size, err := openRegular(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	res, err := a.dispatcher.Dispatch(ctx, actor, folio.AddArtifactAction{
		ProjectID: projectID,
		Draft: folio.ArtifactDraft{
			Name:        name,
			Description: description,
			Published:   published,
			Content:     f,
			Size:        size,
			Extension:   filepath.Ext(path),
		},
	})
	if err != nil {
		return nil, err
	}
	return res.Artifact, nil
}

// WriteArtifactContent writes a file artifact's content to w. passphrase is
// only used when the artifact is stored encrypted.
func (a *FolioApp) WriteArtifactContent(ctx context.Context, artifactID string, w io.Writer, passphrase func() (string, error)) error {
	artifact, err := a.service.GetArtifact(ctx, artifactID)
	if err != nil {
		return err
	}

	var dec folio.DecryptionContext
	if artifact.Encrypted {
		if a.encryptor == nil {
			return fmt.Errorf("artifact %s is encrypted but encryption is not configured", artifactID)
		}
		pass, err := passphrase()
		if err != nil {
			return fmt.Errorf("reading passphrase: %w", err)
		}
		dec, err = a.encryptor.Unlock(pass)
		if err != nil {
			return fmt.Errorf("unlocking private key: %w", err)
		}
	}
	return a.service.ArtifactContent(ctx, artifactID, w, dec)
}

func openRegular(path string) (*os.File, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("opening %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, 0, fmt.Errorf("%s is not a regular file", path)
	}
	return f, info.Size(), nil
}

// Close closes the database and the log file.
func (a *FolioApp) Close() error {
	var firstErr error
	if err := a.store.Close(); err != nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}
	a.logger.Debug("app closed", "elapsed", time.Since(a.op.StartedAt).String())
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}
