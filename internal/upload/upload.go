package upload

import (
	"context"
	"fmt"
	"log"
	"path"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/muhammadolammi/jobmatchclient/internal/api"
	"github.com/muhammadolammi/jobmatchclient/internal/models"
	"github.com/muhammadolammi/jobmatchclient/internal/resume"
	"github.com/muhammadolammi/jobmatchclient/internal/retry"
)

type Mode string

const (
	// ModePresign asks the API for a presigned URL and PUTs the file to it.
	ModePresign Mode = "presign"
	// ModeDirect writes to the bucket with local R2 credentials.
	ModeDirect Mode = "direct"
	// ModeMultipart posts the file to the API as form data.
	ModeMultipart Mode = "multipart"
)

const putAttempts = 3

// ObjectStore is where direct mode writes resumes.
type ObjectStore interface {
	Put(ctx context.Context, key, mime string, data []byte) error
}

type Uploader struct {
	api     *api.Client
	mode    Mode
	store   ObjectStore
	put     *resty.Client
	maxSize int64
	logger  *log.Logger

	// OnProgress receives per-file upload percentages.
	OnProgress func(file string, percent int)
	// OnStatus receives one line per stage of Run.
	OnStatus func(msg string)
}

type Option func(*Uploader)

func WithObjectStore(store ObjectStore) Option {
	return func(u *Uploader) { u.store = store }
}

func WithMaxSize(n int64) Option {
	return func(u *Uploader) { u.maxSize = n }
}

func WithLogger(l *log.Logger) Option {
	return func(u *Uploader) { u.logger = l }
}

func WithPutTimeout(d time.Duration) Option {
	return func(u *Uploader) { u.put.SetTimeout(d) }
}

func New(client *api.Client, mode Mode, opts ...Option) (*Uploader, error) {
	u := &Uploader{
		api:     client,
		mode:    mode,
		put:     newPutClient(),
		maxSize: resume.DefaultMaxSize,
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(u)
	}
	switch mode {
	case ModePresign, ModeMultipart:
	case ModeDirect:
		if u.store == nil {
			return nil, fmt.Errorf("upload mode direct needs an object store")
		}
	default:
		return nil, fmt.Errorf("unknown upload mode %q", mode)
	}
	return u, nil
}

// Validate runs every local check before any network call.
func (u *Uploader) Validate(user *models.User, files []*resume.File) error {
	if len(files) == 0 {
		return models.NewValidationError("Please select at least one file.", nil)
	}
	if len(files) > 1 && !user.AllowsMultipleResumes() {
		return models.NewValidationError("Only employers can upload multiple resumes.",
			map[string]string{"files": fmt.Sprintf("%d selected", len(files))})
	}
	invalid := map[string]string{}
	for _, f := range files {
		if err := f.Validate(u.maxSize); err != nil {
			invalid[f.Name] = err.Error()
		}
	}
	if len(invalid) > 0 {
		return models.NewValidationError("Some files cannot be uploaded.", invalid)
	}
	return nil
}

// Upload sends each file in order and registers it with the session. The
// first failure stops the batch.
func (u *Uploader) Upload(ctx context.Context, sessionID uuid.UUID, files []*resume.File) error {
	for _, f := range files {
		var err error
		switch u.mode {
		case ModePresign:
			err = u.uploadPresigned(ctx, sessionID, f)
		case ModeDirect:
			err = u.uploadDirect(ctx, sessionID, f)
		case ModeMultipart:
			err = u.uploadMultipart(ctx, sessionID, f)
		}
		if err != nil {
			return err
		}
		u.logger.Printf("📤 uploaded %s to session %s", f.Name, sessionID)
	}
	return nil
}

type Job struct {
	Session *models.Session
	User    *models.User
	Files   []*resume.File
}

// Run validates, uploads every file, queues the analysis and returns
// whatever results the backend has for the session.
func (u *Uploader) Run(ctx context.Context, job Job) ([]models.AnalysesResult, error) {
	if job.Session == nil {
		return nil, fmt.Errorf("nil session")
	}
	if err := u.Validate(job.User, job.Files); err != nil {
		return nil, err
	}

	u.status("Uploading resume(s)...")
	if err := u.Upload(ctx, job.Session.ID, job.Files); err != nil {
		u.status("❌ Upload failed: " + err.Error())
		return nil, err
	}

	u.status("✅ Upload complete. Running analysis...")
	err := u.api.Analyze(ctx, api.AnalyzeRequest{
		SessionID:      job.Session.ID,
		JobTitle:       job.Session.JobTitle,
		JobDescription: job.Session.JobDescription,
	})
	if err != nil {
		return nil, err
	}

	results, err := u.api.Results(ctx, job.Session.ID)
	if err != nil {
		return nil, err
	}
	u.status("✅ Analysis complete.")
	return results, nil
}

func (u *Uploader) uploadPresigned(ctx context.Context, sessionID uuid.UUID, f *resume.File) error {
	presigned, err := u.api.Presign(ctx, sessionID, api.PresignRequest{FileName: f.Name, MimeType: f.Mime})
	if err != nil {
		return err
	}
	_, err = retry.Do(ctx, putAttempts, func() (any, error) {
		return nil, u.putObject(ctx, presigned.UploadURL, f)
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", f.Name, err)
	}
	return u.complete(ctx, sessionID, presigned.ObjectKey, f)
}

func (u *Uploader) uploadDirect(ctx context.Context, sessionID uuid.UUID, f *resume.File) error {
	key := ObjectKey(sessionID, f.Name)
	u.progress(f.Name, 0)
	_, err := retry.Do(ctx, putAttempts, func() (any, error) {
		return nil, u.store.Put(ctx, key, f.Mime, f.Data)
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", f.Name, err)
	}
	u.progress(f.Name, 100)
	return u.complete(ctx, sessionID, key, f)
}

func (u *Uploader) uploadMultipart(ctx context.Context, sessionID uuid.UUID, f *resume.File) error {
	u.progress(f.Name, 0)
	if err := u.api.UploadDirect(ctx, sessionID, f.Name, f.Data); err != nil {
		return err
	}
	u.progress(f.Name, 100)
	return nil
}

func (u *Uploader) complete(ctx context.Context, sessionID uuid.UUID, key string, f *resume.File) error {
	return u.api.CompleteUpload(ctx, api.CompleteUploadRequest{
		SessionID: sessionID,
		ObjectKey: key,
		FileName:  f.Name,
		Size:      f.Size(),
		MimeType:  f.Mime,
	})
}

// ObjectKey names a resume object the way presigned uploads are laid out:
// one prefix per session, a random component against name clashes.
func ObjectKey(sessionID uuid.UUID, fileName string) string {
	return fmt.Sprintf("resumes/%s/%s-%s", sessionID, uuid.NewString(), path.Base(fileName))
}

func (u *Uploader) progress(file string, percent int) {
	if u.OnProgress != nil {
		u.OnProgress(file, percent)
	}
}

func (u *Uploader) status(msg string) {
	if u.OnStatus != nil {
		u.OnStatus(msg)
	}
}
