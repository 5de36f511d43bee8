package project

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/autovid/autovid-editor/internal/credits"
	"github.com/autovid/autovid-editor/internal/db"
	"github.com/autovid/autovid-editor/internal/logging"
	"github.com/autovid/autovid-editor/internal/timeline"
)

func setupTestDB(t *testing.T) Repository {
	t.Helper()

	database, err := db.New(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	return NewRepository(database.Conn())
}

func setupService(t *testing.T, opts ...Option) (*Service, Repository, *fakeCredits) {
	t.Helper()

	repo := setupTestDB(t)
	fc := &fakeCredits{}
	svc := NewService(repo, timeline.NewEngine(), fc, logging.Discard(), opts...)
	return svc, repo, fc
}

type fakeCredits struct {
	mu     sync.Mutex
	spends []credits.SpendRequest
	// rejects lists actions answered with insufficient credits.
	rejects map[credits.Action]bool
	// balance overrides the default 10 S-CRD + 5 E-CRD.
	balance *credits.Balance
}

func (f *fakeCredits) Balance(ctx context.Context, userID string) (*credits.Balance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.balance != nil {
		b := *f.balance
		return &b, nil
	}
	return &credits.Balance{Standard: 10, Extra: 5, Total: 15}, nil
}

func (f *fakeCredits) Spend(ctx context.Context, req credits.SpendRequest) (*credits.SpendResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.rejects[req.Action] {
		return nil, &credits.SpendError{StatusCode: 400, Message: "Insufficient credits"}
	}
	f.spends = append(f.spends, req)
	return &credits.SpendResult{
		Transaction:      credits.Transaction{ID: "tx-" + string(req.Action), UserID: req.UserID},
		RemainingBalance: 10 - len(f.spends),
	}, nil
}

func (f *fakeCredits) actions() []credits.Action {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]credits.Action, 0, len(f.spends))
	for _, s := range f.spends {
		out = append(out, s.Action)
	}
	return out
}

// seedProject creates a project with one video track holding a single
// 0-5s clip.
func seedProject(t *testing.T, svc *Service) (projectID, trackID, clipID string) {
	t.Helper()
	ctx := context.Background()

	tl, err := svc.Create(ctx, "Demo")
	require.NoError(t, err)

	tr, err := svc.AddTrack(ctx, tl.ID(), timeline.MediaVideo, "")
	require.NoError(t, err)

	c, err := svc.AddClip(ctx, tl.ID(), tr.ID, timeline.ClipDraft{
		Name:    "intro",
		EndTime: 5,
		Source:  timeline.Source{Kind: timeline.SourceFile, Src: "/media/intro.mp4"},
	})
	require.NoError(t, err)

	return tl.ID(), tr.ID, c.ID
}

func ptr[T any](v T) *T {
	return &v
}

// failingJobs is a Repository whose CreateJob always fails.
type failingJobs struct {
	Repository
}

func (failingJobs) CreateJob(ctx context.Context, job *Job) error {
	return errors.New("disk full")
}
