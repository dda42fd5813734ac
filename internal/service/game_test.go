package service

import (
	"bytes"
	"context"
	"mime/multipart"
	"strings"
	"testing"

	"gamehub-api/internal/model"
	"gamehub-api/internal/role"
)

// fileHeader builds a real multipart file header backed by in-memory
// content, so the save path runs end to end.
func fileHeader(t *testing.T, filename string, size int) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(bytes.Repeat([]byte("x"), size)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close form: %v", err)
	}

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(32 << 20)
	if err != nil {
		t.Fatalf("read form: %v", err)
	}
	t.Cleanup(func() { form.RemoveAll() })
	return form.File["file"][0]
}

func TestCreateRequiresDeveloper(t *testing.T) {
	env := newTestEnv(t)

	player := env.seedUser(t, "player", role.Player)
	_, err := env.game.Create(context.Background(), player, GameInput{
		Title: "Pong", Description: "bounce", HTML: fileHeader(t, "pong.html", 64),
	})
	wantCode(t, err, "FORBIDDEN")
}

func TestCreateStartsPending(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	dev := env.seedUser(t, "dev", role.Developer)
	g, err := env.game.Create(ctx, dev, GameInput{
		Title:       "  Pong  ",
		Description: "bounce",
		HTML:        fileHeader(t, "pong.html", 64),
		Thumbnail:   fileHeader(t, "pong.png", 64),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if g.Status != model.StatusPending {
		t.Errorf("status = %s, want pending", g.Status)
	}
	if g.PublishedAt != nil {
		t.Error("publish timestamp must be unset on submission")
	}
	if g.Title != "Pong" {
		t.Errorf("title = %q, want trimmed", g.Title)
	}
	if !strings.HasSuffix(g.HTMLPath, ".html") || !strings.HasPrefix(g.HTMLPath, "games/html/") {
		t.Errorf("unexpected html path %q", g.HTMLPath)
	}
	if !strings.HasPrefix(g.ThumbnailPath, "games/thumbnails/") {
		t.Errorf("unexpected thumbnail path %q", g.ThumbnailPath)
	}
}

func TestCreateValidatesInput(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	dev := env.seedUser(t, "dev", role.Developer)

	_, err := env.game.Create(ctx, dev, GameInput{Description: "no title", HTML: fileHeader(t, "a.html", 8)})
	wantCode(t, err, "VALIDATION_ERROR")

	_, err = env.game.Create(ctx, dev, GameInput{Title: "a", Description: "b"})
	wantCode(t, err, "VALIDATION_ERROR")

	// Only .html files may be playable games.
	_, err = env.game.Create(ctx, dev, GameInput{
		Title: "a", Description: "b", HTML: fileHeader(t, "game.exe", 8),
	})
	wantCode(t, err, "VALIDATION_ERROR")
}

func TestGetCountsView(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	dev := env.seedUser(t, "dev", role.Developer)
	g := env.seedGame(t, dev, "Snake", model.StatusApproved)

	for i := 0; i < 3; i++ {
		if _, err := env.game.Get(ctx, nil, g.ID); err != nil {
			t.Fatalf("get %d: %v", i, err)
		}
	}

	view, err := env.game.Get(ctx, dev, g.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if view.Stats.Views != 4 {
		t.Errorf("views = %d, want 4", view.Stats.Views)
	}
}

func TestGetVisibility(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	dev := env.seedUser(t, "dev", role.Developer)
	other := env.seedUser(t, "other", role.Developer)
	admin := env.seedUser(t, "admin", role.Admin)
	g := env.seedGame(t, dev, "Hidden", model.StatusPending)

	// Anonymous viewers and unrelated developers are blocked.
	_, err := env.game.Get(ctx, nil, g.ID)
	wantCode(t, err, "FORBIDDEN")
	_, err = env.game.Get(ctx, other, g.ID)
	wantCode(t, err, "FORBIDDEN")

	// The owning developer and admins see it.
	if _, err := env.game.Get(ctx, dev, g.ID); err != nil {
		t.Errorf("developer blocked from own game: %v", err)
	}
	if _, err := env.game.Get(ctx, admin, g.ID); err != nil {
		t.Errorf("admin blocked: %v", err)
	}
}

func TestListFiltersByViewer(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	dev := env.seedUser(t, "dev", role.Developer)
	other := env.seedUser(t, "other", role.Developer)
	admin := env.seedUser(t, "admin", role.Admin)

	env.seedGame(t, dev, "Approved", model.StatusApproved)
	env.seedGame(t, dev, "Mine pending", model.StatusPending)
	env.seedGame(t, other, "Theirs pending", model.StatusPending)

	counts := []struct {
		name  string
		actor *model.User
		want  int
	}{
		{"anonymous", nil, 1},
		{"developer", dev, 2},
		{"admin", admin, 3},
	}
	for _, tt := range counts {
		games, err := env.game.List(ctx, tt.actor)
		if err != nil {
			t.Fatalf("%s list: %v", tt.name, err)
		}
		if len(games) != tt.want {
			t.Errorf("%s sees %d games, want %d", tt.name, len(games), tt.want)
		}
	}
}

func TestApproveSetsPublishTimestamp(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	dev := env.seedUser(t, "dev", role.Developer)
	admin := env.seedUser(t, "admin", role.Admin)
	g := env.seedGame(t, dev, "Snake", model.StatusPending)

	approved, err := env.game.Moderate(ctx, admin, g.ID, "approve")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != model.StatusApproved {
		t.Errorf("status = %s, want approved", approved.Status)
	}
	if approved.PublishedAt == nil || !approved.PublishedAt.Equal(env.now) {
		t.Errorf("published at = %v, want %v", approved.PublishedAt, env.now)
	}
}

func TestRejectLeavesPublishTimestamp(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	dev := env.seedUser(t, "dev", role.Developer)
	admin := env.seedUser(t, "admin", role.Admin)

	// A fresh rejection leaves the timestamp unset.
	g := env.seedGame(t, dev, "Fresh", model.StatusPending)
	rejected, err := env.game.Moderate(ctx, admin, g.ID, "reject")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.PublishedAt != nil {
		t.Error("rejection must not set the publish timestamp")
	}

	// Rejecting a previously approved game keeps the old timestamp.
	g2 := env.seedGame(t, dev, "Was live", model.StatusPending)
	if _, err := env.game.Moderate(ctx, admin, g2.ID, "approve"); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := env.game.Moderate(ctx, admin, g2.ID, "reject"); err != nil {
		t.Fatalf("re-reject: %v", err)
	}
	stored, _ := env.games.GetByID(ctx, g2.ID)
	if stored.PublishedAt == nil {
		t.Error("prior publish timestamp must survive rejection")
	}
}

func TestModerateRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	dev := env.seedUser(t, "dev", role.Developer)
	g := env.seedGame(t, dev, "Snake", model.StatusPending)

	_, err := env.game.Moderate(ctx, dev, g.ID, "approve")
	wantCode(t, err, "FORBIDDEN")
	_, err = env.game.ModerationQueue(ctx, dev)
	wantCode(t, err, "FORBIDDEN")
	_, err = env.game.PendingCount(ctx, dev)
	wantCode(t, err, "FORBIDDEN")
}

func TestModerateUnknownAction(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	dev := env.seedUser(t, "dev", role.Developer)
	admin := env.seedUser(t, "admin", role.Admin)
	g := env.seedGame(t, dev, "Snake", model.StatusPending)

	_, err := env.game.Moderate(ctx, admin, g.ID, "maybe")
	wantCode(t, err, "BAD_REQUEST")
}

func TestPendingCount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	dev := env.seedUser(t, "dev", role.Developer)
	admin := env.seedUser(t, "admin", role.Admin)
	env.seedGame(t, dev, "One", model.StatusPending)
	env.seedGame(t, dev, "Two", model.StatusPending)
	env.seedGame(t, dev, "Live", model.StatusApproved)

	count, err := env.game.PendingCount(ctx, admin)
	if err != nil {
		t.Fatalf("pending count: %v", err)
	}
	if count != 2 {
		t.Errorf("pending = %d, want 2", count)
	}
}

func TestDeveloperEditResubmitsApprovedGame(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	dev := env.seedUser(t, "dev", role.Developer)
	admin := env.seedUser(t, "admin", role.Admin)
	g := env.seedGame(t, dev, "Snake", model.StatusPending)

	if _, err := env.game.Moderate(ctx, admin, g.ID, "approve"); err != nil {
		t.Fatalf("approve: %v", err)
	}

	updated, err := env.game.Update(ctx, dev, g.ID, GameInput{Title: "Snake II"})
	if err != nil {
		t.Fatalf("developer edit: %v", err)
	}
	if updated.Status != model.StatusPending {
		t.Errorf("status = %s, want pending after developer edit", updated.Status)
	}
	if updated.PublishedAt == nil {
		t.Error("publish timestamp must survive resubmission")
	}

	// An admin touch-up does not send it back to the queue.
	if _, err := env.game.Moderate(ctx, admin, g.ID, "approve"); err != nil {
		t.Fatalf("re-approve: %v", err)
	}
	fixed, err := env.game.Update(ctx, admin, g.ID, GameInput{Description: "typo fixed"})
	if err != nil {
		t.Fatalf("admin edit: %v", err)
	}
	if fixed.Status != model.StatusApproved {
		t.Errorf("status = %s, want approved after admin edit", fixed.Status)
	}
}

func TestUpdatePermissions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	dev := env.seedUser(t, "dev", role.Developer)
	other := env.seedUser(t, "other", role.Developer)
	g := env.seedGame(t, dev, "Snake", model.StatusApproved)

	_, err := env.game.Update(ctx, other, g.ID, GameInput{Title: "Hijacked"})
	wantCode(t, err, "FORBIDDEN")
}

func TestDeleteRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.seedUser(t, "owner", role.Owner)
	admin := env.seedUser(t, "admin", role.Admin)
	dev := env.seedUser(t, "dev", role.Developer)
	other := env.seedUser(t, "other", role.Developer)

	devGame := env.seedGame(t, dev, "Dev game", model.StatusApproved)
	adminGame := env.seedGame(t, admin, "Admin game", model.StatusApproved)
	ownGame := env.seedGame(t, dev, "Another", model.StatusApproved)

	// A developer may not delete someone else's game.
	wantCode(t, env.game.Delete(ctx, other, devGame.ID), "FORBIDDEN")

	// An admin may delete others' games but not their own.
	wantCode(t, env.game.Delete(ctx, admin, adminGame.ID), "FORBIDDEN")
	if err := env.game.Delete(ctx, admin, devGame.ID); err != nil {
		t.Fatalf("admin delete: %v", err)
	}

	// The owner deletes anything, their own included.
	if err := env.game.Delete(ctx, owner, adminGame.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}

	// A developer deletes their own.
	if err := env.game.Delete(ctx, dev, ownGame.ID); err != nil {
		t.Fatalf("developer delete own: %v", err)
	}
}

func TestBestRatedRequiresMinimumRatings(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	dev := env.seedUser(t, "dev", role.Developer)
	sparse := env.seedGame(t, dev, "Sparse", model.StatusApproved)
	popular := env.seedGame(t, dev, "Popular", model.StatusApproved)

	env.ratings.Upsert(ctx, 1, sparse.ID, 5, env.now)
	env.ratings.Upsert(ctx, 2, sparse.ID, 5, env.now)

	env.ratings.Upsert(ctx, 1, popular.ID, 4, env.now)
	env.ratings.Upsert(ctx, 2, popular.ID, 5, env.now)
	env.ratings.Upsert(ctx, 3, popular.ID, 3, env.now)

	games, err := env.game.BestRated(ctx, 10)
	if err != nil {
		t.Fatalf("best rated: %v", err)
	}
	if len(games) != 1 {
		t.Fatalf("best rated = %d games, want 1", len(games))
	}
	if games[0].ID != popular.ID {
		t.Errorf("best rated game = %d, want %d", games[0].ID, popular.ID)
	}
	if games[0].AverageRating != 4.0 {
		t.Errorf("average = %v, want 4.0", games[0].AverageRating)
	}
}
