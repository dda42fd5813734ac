package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"testing"
	"time"

	"gamehub-api/internal/model"
	"gamehub-api/internal/repository"
	"gamehub-api/internal/role"
	"gamehub-api/internal/session"
	"gamehub-api/internal/upload"
	"gamehub-api/pkg/apierror"
)

// testEnv wires the three services over shared fakes, with a fixed
// clock so timestamp assertions are exact.
type testEnv struct {
	users    *fakeUserRepo
	games    *fakeGameRepo
	stats    *fakeStatRepo
	ratings  *fakeRatingRepo
	comments *fakeCommentRepo
	sessions *fakeSessionStore

	user   *UserService
	game   *GameService
	social *SocialService

	now time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	saver, err := upload.NewSaver(t.TempDir(), 5<<20, 2<<20)
	if err != nil {
		t.Fatalf("NewSaver: %v", err)
	}

	env := &testEnv{
		users:    newFakeUserRepo(),
		games:    newFakeGameRepo(),
		stats:    newFakeStatRepo(),
		ratings:  newFakeRatingRepo(),
		comments: newFakeCommentRepo(),
		sessions: newFakeSessionStore(),
		now:      time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	env.games.ratings = env.ratings

	env.user = NewUserService(env.users, env.games, env.sessions, saver)
	env.game = NewGameService(env.games, env.stats, env.ratings, saver)
	env.social = NewSocialService(env.games, env.stats, env.ratings, env.comments)

	clock := func() time.Time { return env.now }
	env.user.now = clock
	env.game.now = clock
	env.social.now = clock

	return env
}

// seedUser inserts an account directly, bypassing registration.
func (e *testEnv) seedUser(t *testing.T, username string, r role.Role) *model.User {
	t.Helper()
	u := &model.User{
		Username:  username,
		Email:     username + "@example.com",
		Role:      r,
		Active:    true,
		CreatedAt: e.now,
		UpdatedAt: e.now,
	}
	if err := e.users.Create(context.Background(), u); err != nil {
		t.Fatalf("seed user %q: %v", username, err)
	}
	return u
}

// seedGame inserts a game directly, bypassing the upload path.
func (e *testEnv) seedGame(t *testing.T, dev *model.User, title string, status model.GameStatus) *model.Game {
	t.Helper()
	g := &model.Game{
		Title:         title,
		Description:   "seeded",
		DeveloperID:   dev.ID,
		DeveloperName: dev.Username,
		HTMLPath:      "games/html/seed.html",
		Status:        status,
		CreatedAt:     e.now,
		UpdatedAt:     e.now,
	}
	if err := e.games.Create(context.Background(), g); err != nil {
		t.Fatalf("seed game %q: %v", title, err)
	}
	return g
}

// wantCode fails unless err is an API error carrying the given code.
func wantCode(t *testing.T, err error, code string) {
	t.Helper()
	apiErr, ok := err.(*apierror.Error)
	if !ok {
		t.Fatalf("expected *apierror.Error with code %s, got %v", code, err)
	}
	if apiErr.Code != code {
		t.Fatalf("expected code %s, got %s (%s)", code, apiErr.Code, apiErr.Message)
	}
}

// In-memory repository fakes used across the service tests.

type fakeUserRepo struct {
	nextID int64
	users  map[int64]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*model.User)}
}

var _ repository.UserRepository = (*fakeUserRepo)(nil)

func (r *fakeUserRepo) Register(ctx context.Context, u *model.User) error {
	if len(r.users) == 0 {
		u.Role = role.Owner
	}
	return r.Create(ctx, u)
}

func (r *fakeUserRepo) Create(ctx context.Context, u *model.User) error {
	r.nextID++
	u.ID = r.nextID
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) List(ctx context.Context, f model.UserFilter) ([]*model.User, error) {
	var out []*model.User
	for _, u := range r.users {
		if f.Role != nil && u.Role != *f.Role {
			continue
		}
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *fakeUserRepo) Stats(ctx context.Context) (*model.UserStats, error) {
	s := &model.UserStats{}
	for _, u := range r.users {
		s.Total++
		if u.Active {
			s.Active++
		}
		if u.Role == role.Developer {
			s.Developers++
		}
		if u.Role.IsAdmin() {
			s.Admins++
		}
	}
	return s, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, u *model.User) error {
	if _, ok := r.users[u.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) SetActive(ctx context.Context, id int64, active bool) error {
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Active = active
	return nil
}

func (r *fakeUserRepo) UpdateLastLoginIP(ctx context.Context, id int64, ip string) error {
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.LastLoginIP = ip
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

type fakeGameRepo struct {
	nextID int64
	games  map[int64]*model.Game
	// ratings backs ListBestRated when set.
	ratings *fakeRatingRepo
}

func newFakeGameRepo() *fakeGameRepo {
	return &fakeGameRepo{games: make(map[int64]*model.Game)}
}

var _ repository.GameRepository = (*fakeGameRepo)(nil)

func (r *fakeGameRepo) Create(ctx context.Context, g *model.Game) error {
	r.nextID++
	g.ID = r.nextID
	cp := *g
	r.games[g.ID] = &cp
	return nil
}

func (r *fakeGameRepo) GetByID(ctx context.Context, id int64) (*model.Game, error) {
	g, ok := r.games[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *g
	return &cp, nil
}

func (r *fakeGameRepo) list(match func(*model.Game) bool) []*model.Game {
	var out []*model.Game
	for _, g := range r.games {
		if match(g) {
			cp := *g
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *fakeGameRepo) ListAll(ctx context.Context) ([]*model.Game, error) {
	return r.list(func(*model.Game) bool { return true }), nil
}

func (r *fakeGameRepo) ListApproved(ctx context.Context) ([]*model.Game, error) {
	return r.list(func(g *model.Game) bool { return g.Status == model.StatusApproved }), nil
}

func (r *fakeGameRepo) ListVisibleTo(ctx context.Context, developerID int64) ([]*model.Game, error) {
	return r.list(func(g *model.Game) bool {
		return g.Status == model.StatusApproved || g.DeveloperID == developerID
	}), nil
}

func (r *fakeGameRepo) ListByDeveloper(ctx context.Context, developerID int64) ([]*model.Game, error) {
	return r.list(func(g *model.Game) bool { return g.DeveloperID == developerID }), nil
}

func (r *fakeGameRepo) ListPending(ctx context.Context) ([]*model.Game, error) {
	return r.list(func(g *model.Game) bool { return g.Status == model.StatusPending }), nil
}

func (r *fakeGameRepo) CountPending(ctx context.Context) (int64, error) {
	games, _ := r.ListPending(ctx)
	return int64(len(games)), nil
}

func (r *fakeGameRepo) ListPopular(ctx context.Context, limit int) ([]*model.Game, error) {
	games, _ := r.ListApproved(ctx)
	if len(games) > limit {
		games = games[:limit]
	}
	return games, nil
}

func (r *fakeGameRepo) ListBestRated(ctx context.Context, minRatings, limit int) ([]*model.RatedGame, error) {
	var out []*model.RatedGame
	for _, g := range r.list(func(g *model.Game) bool { return g.Status == model.StatusApproved }) {
		summary, _ := r.ratings.Summary(ctx, g.ID)
		if summary.Count < int64(minRatings) {
			continue
		}
		out = append(out, &model.RatedGame{
			Game:          *g,
			AverageRating: summary.Average,
			RatingCount:   summary.Count,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AverageRating > out[j].AverageRating })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeGameRepo) Update(ctx context.Context, g *model.Game) error {
	if _, ok := r.games[g.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *g
	r.games[g.ID] = &cp
	return nil
}

func (r *fakeGameRepo) UpdateStatus(ctx context.Context, id int64, status model.GameStatus, publishedAt *time.Time) error {
	g, ok := r.games[id]
	if !ok {
		return repository.ErrNotFound
	}
	g.Status = status
	if publishedAt != nil {
		t := *publishedAt
		g.PublishedAt = &t
	}
	return nil
}

func (r *fakeGameRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.games[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.games, id)
	return nil
}

type fakeStatRepo struct {
	stats map[int64]*model.GameStat
}

func newFakeStatRepo() *fakeStatRepo {
	return &fakeStatRepo{stats: make(map[int64]*model.GameStat)}
}

var _ repository.StatRepository = (*fakeStatRepo)(nil)

func (r *fakeStatRepo) ensure(gameID int64) *model.GameStat {
	s, ok := r.stats[gameID]
	if !ok {
		s = &model.GameStat{GameID: gameID}
		r.stats[gameID] = s
	}
	return s
}

func (r *fakeStatRepo) Get(ctx context.Context, gameID int64) (*model.GameStat, error) {
	s, ok := r.stats[gameID]
	if !ok {
		return &model.GameStat{GameID: gameID}, nil
	}
	cp := *s
	return &cp, nil
}

func (r *fakeStatRepo) IncrementViews(ctx context.Context, gameID int64) (int64, error) {
	s := r.ensure(gameID)
	s.Views++
	return s.Views, nil
}

func (r *fakeStatRepo) IncrementPlays(ctx context.Context, gameID int64, playedAt time.Time) (int64, error) {
	s := r.ensure(gameID)
	s.PlayCount++
	s.LastPlayed = &playedAt
	return s.PlayCount, nil
}

func (r *fakeStatRepo) AddVote(ctx context.Context, gameID int64, like bool) (int64, int64, error) {
	s := r.ensure(gameID)
	if like {
		s.Likes++
	} else {
		s.Dislikes++
	}
	return s.Likes, s.Dislikes, nil
}

type ratingKey struct {
	userID, gameID int64
}

type fakeRatingRepo struct {
	scores map[ratingKey]int
}

func newFakeRatingRepo() *fakeRatingRepo {
	return &fakeRatingRepo{scores: make(map[ratingKey]int)}
}

var _ repository.RatingRepository = (*fakeRatingRepo)(nil)

func (r *fakeRatingRepo) Upsert(ctx context.Context, userID, gameID int64, score int, now time.Time) error {
	r.scores[ratingKey{userID, gameID}] = score
	return nil
}

func (r *fakeRatingRepo) Summary(ctx context.Context, gameID int64) (*model.RatingSummary, error) {
	var sum, count int64
	for k, score := range r.scores {
		if k.gameID == gameID {
			sum += int64(score)
			count++
		}
	}
	s := &model.RatingSummary{Count: count}
	if count > 0 {
		s.Average = math.Round(float64(sum)/float64(count)*10) / 10
	}
	return s, nil
}

func (r *fakeRatingRepo) UserScore(ctx context.Context, userID, gameID int64) (int, error) {
	return r.scores[ratingKey{userID, gameID}], nil
}

type fakeCommentRepo struct {
	nextID   int64
	comments map[int64]*model.Comment
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{comments: make(map[int64]*model.Comment)}
}

var _ repository.CommentRepository = (*fakeCommentRepo)(nil)

func (r *fakeCommentRepo) Create(ctx context.Context, c *model.Comment) error {
	r.nextID++
	c.ID = r.nextID
	cp := *c
	r.comments[c.ID] = &cp
	return nil
}

func (r *fakeCommentRepo) GetByID(ctx context.Context, id int64) (*model.Comment, error) {
	c, ok := r.comments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCommentRepo) ListByGame(ctx context.Context, gameID int64) ([]*model.Comment, error) {
	var out []*model.Comment
	for _, c := range r.comments {
		if c.GameID == gameID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *fakeCommentRepo) Update(ctx context.Context, id int64, text string, now time.Time) error {
	c, ok := r.comments[id]
	if !ok {
		return repository.ErrNotFound
	}
	c.Text = text
	c.IsEdited = true
	c.UpdatedAt = now
	return nil
}

func (r *fakeCommentRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.comments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.comments, id)
	return nil
}

type fakeSessionStore struct {
	nextID   int
	sessions map[string]model.SessionData
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]model.SessionData)}
}

var _ session.Store = (*fakeSessionStore)(nil)

func (s *fakeSessionStore) Create(ctx context.Context, data model.SessionData) (string, error) {
	s.nextID++
	token := fmt.Sprintf("%stest%d", session.TokenPrefix, s.nextID)
	s.sessions[token] = data
	return token, nil
}

func (s *fakeSessionStore) Get(ctx context.Context, token string) (*model.SessionData, error) {
	data, ok := s.sessions[token]
	if !ok {
		return nil, session.ErrSessionNotFound
	}
	return &data, nil
}

func (s *fakeSessionStore) Delete(ctx context.Context, token string) error {
	delete(s.sessions, token)
	return nil
}

func (s *fakeSessionStore) Close() error { return nil }
