package store

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/campushub/portal-api/internal/models"
)

// NoticeStore is the persistence contract the store needs for notices.
type NoticeStore interface {
	List(ctx context.Context) ([]models.Notice, error)
	Create(ctx context.Context, notice *models.Notice) error
	UpdatePinState(ctx context.Context, id string, state models.PinState) error
	Delete(ctx context.Context, id string) error
}

// AssignmentStore is the persistence contract for assignments.
type AssignmentStore interface {
	List(ctx context.Context) ([]models.Assignment, error)
	Create(ctx context.Context, assignment *models.Assignment) error
	Delete(ctx context.Context, id string) error
}

// ResourceStore is the persistence contract for study resources.
type ResourceStore interface {
	List(ctx context.Context) ([]models.Resource, error)
	Create(ctx context.Context, resource *models.Resource) error
	IncrementDownloads(ctx context.Context, id string) (int, error)
	IncrementLikes(ctx context.Context, id string) (int, error)
	Delete(ctx context.Context, id string) error
}

// ForumStore is the persistence contract for queries and answers.
type ForumStore interface {
	ListQueries(ctx context.Context) ([]models.Query, error)
	ListAnswers(ctx context.Context) ([]models.Answer, error)
	CreateQuery(ctx context.Context, query *models.Query) error
	CreateAnswer(ctx context.Context, answer *models.Answer) error
	UpdateQueryLikes(ctx context.Context, id string, likes int, likedBy []string) error
	AcceptAnswer(ctx context.Context, queryID, answerID string) error
	DeleteQueryCascade(ctx context.Context, queryID string) error
}

// StudentNoteStore is the persistence contract for student notes.
type StudentNoteStore interface {
	List(ctx context.Context) ([]models.StudentNote, error)
	Create(ctx context.Context, note *models.StudentNote) error
}

// Repos bundles the persistence collaborators a session store reads from.
type Repos struct {
	Notices      NoticeStore
	Assignments  AssignmentStore
	Resources    ResourceStore
	Forum        ForumStore
	StudentNotes StudentNoteStore
}

// Store holds the authoritative in-memory entity collections for one viewer
// session. Every mutation funnels through it: the remote write happens
// first, and the in-memory copy changes only after the write succeeded.
// Reads and in-memory writes are guarded by a single mutex; remote calls run
// outside the lock, so a sweep tick or another action may interleave between
// request and resolution (last write wins, as the persistence collaborator
// has no version check).
type Store struct {
	viewer *models.Viewer
	repos  Repos
	logger *zap.Logger
	now    func() time.Time

	mu           sync.Mutex
	notices      []models.Notice
	assignments  []models.Assignment
	resources    []models.Resource
	queries      []models.Query
	answers      []models.Answer
	studentNotes []models.StudentNote
	favorites    map[string]bool
}

// Option tweaks store construction.
type Option func(*Store)

// WithClock injects the time source used by the pin sweeper.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New builds a session store for the given viewer.
func New(viewer *models.Viewer, repos Repos, logger *zap.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		viewer:    viewer,
		repos:     repos,
		logger:    logger,
		now:       time.Now,
		favorites: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Viewer returns the session owner.
func (s *Store) Viewer() *models.Viewer {
	return s.viewer
}

// Load replaces every in-memory collection with a fresh snapshot. A fetch
// failure for one entity type leaves that collection empty and does not
// abort the others.
func (s *Store) Load(ctx context.Context) {
	notices, err := s.repos.Notices.List(ctx)
	if err != nil {
		s.logger.Warn("load notices failed", zap.Error(err))
		notices = nil
	}
	assignments, err := s.repos.Assignments.List(ctx)
	if err != nil {
		s.logger.Warn("load assignments failed", zap.Error(err))
		assignments = nil
	}
	resources, err := s.repos.Resources.List(ctx)
	if err != nil {
		s.logger.Warn("load resources failed", zap.Error(err))
		resources = nil
	}
	queries, err := s.repos.Forum.ListQueries(ctx)
	if err != nil {
		s.logger.Warn("load queries failed", zap.Error(err))
		queries = nil
	}
	answers, err := s.repos.Forum.ListAnswers(ctx)
	if err != nil {
		s.logger.Warn("load answers failed", zap.Error(err))
		answers = nil
	}
	notes, err := s.repos.StudentNotes.List(ctx)
	if err != nil {
		s.logger.Warn("load student notes failed", zap.Error(err))
		notes = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = notices
	s.assignments = assignments
	s.resources = resources
	s.queries = queries
	s.answers = answers
	s.studentNotes = notes
}

// Notices returns a snapshot of the notice collection.
func (s *Store) Notices() []models.Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Notice(nil), s.notices...)
}

// Assignments returns a snapshot of the assignment collection.
func (s *Store) Assignments() []models.Assignment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Assignment(nil), s.assignments...)
}

// Resources returns a snapshot of the resource collection with the
// session-local favorited flag applied.
func (s *Store) Resources() []models.Resource {
	s.mu.Lock()
	defer s.mu.Unlock()
	resources := append([]models.Resource(nil), s.resources...)
	for i := range resources {
		resources[i].Favorited = s.favorites[resources[i].ID]
	}
	return resources
}

// Queries returns a snapshot of the forum query collection.
func (s *Store) Queries() []models.Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Query(nil), s.queries...)
}

// AnswersFor returns the answers belonging to a query, oldest first.
func (s *Store) AnswersFor(queryID string) []models.Answer {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Answer
	for _, a := range s.answers {
		if a.QueryID == queryID {
			out = append(out, a)
		}
	}
	return out
}

// StudentNotes returns notes for one student, optionally narrowed by author.
func (s *Store) StudentNotes(filter models.StudentNoteFilter) []models.StudentNote {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.StudentNote
	for _, n := range s.studentNotes {
		if n.StudentID != filter.StudentID {
			continue
		}
		if filter.AuthorID != "" && n.AuthorID != filter.AuthorID {
			continue
		}
		out = append(out, n)
	}
	return out
}

// CreateNotice persists the notice and prepends it, so creation order is
// most-recent-first.
func (s *Store) CreateNotice(ctx context.Context, notice *models.Notice) error {
	if err := s.repos.Notices.Create(ctx, notice); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append([]models.Notice{*notice}, s.notices...)
	return nil
}

// DeleteNotice removes the notice remotely, then locally.
func (s *Store) DeleteNotice(ctx context.Context, id string) error {
	if err := s.repos.Notices.Delete(ctx, id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = removeNotice(s.notices, id)
	return nil
}

// CreateAssignment persists and prepends an assignment.
func (s *Store) CreateAssignment(ctx context.Context, assignment *models.Assignment) error {
	if err := s.repos.Assignments.Create(ctx, assignment); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignments = append([]models.Assignment{*assignment}, s.assignments...)
	return nil
}

// DeleteAssignment removes the assignment remotely, then locally.
func (s *Store) DeleteAssignment(ctx context.Context, id string) error {
	if err := s.repos.Assignments.Delete(ctx, id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.assignments {
		if s.assignments[i].ID == id {
			s.assignments = append(s.assignments[:i], s.assignments[i+1:]...)
			break
		}
	}
	return nil
}

// CreateResource persists and prepends a resource.
func (s *Store) CreateResource(ctx context.Context, resource *models.Resource) error {
	if err := s.repos.Resources.Create(ctx, resource); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resources = append([]models.Resource{*resource}, s.resources...)
	return nil
}

// DeleteResource removes the resource remotely, then locally.
func (s *Store) DeleteResource(ctx context.Context, id string) error {
	if err := s.repos.Resources.Delete(ctx, id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.resources {
		if s.resources[i].ID == id {
			s.resources = append(s.resources[:i], s.resources[i+1:]...)
			break
		}
	}
	delete(s.favorites, id)
	return nil
}

// RecordResourceDownload bumps the persisted download counter and mirrors
// the new value locally.
func (s *Store) RecordResourceDownload(ctx context.Context, id string) (int, error) {
	downloads, err := s.repos.Resources.IncrementDownloads(ctx, id)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.resources {
		if s.resources[i].ID == id {
			s.resources[i].Downloads = downloads
			break
		}
	}
	return downloads, nil
}

// LikeResource bumps the persisted like counter and mirrors it locally.
func (s *Store) LikeResource(ctx context.Context, id string) (int, error) {
	likes, err := s.repos.Resources.IncrementLikes(ctx, id)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.resources {
		if s.resources[i].ID == id {
			s.resources[i].Likes = likes
			break
		}
	}
	return likes, nil
}

// ToggleResourceFavorite flips the session-local favorited flag. Favorites
// are never persisted; they vanish with the session.
func (s *Store) ToggleResourceFavorite(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.favorites[id] = !s.favorites[id]
	return s.favorites[id]
}

// CreateQuery persists and prepends a forum query.
func (s *Store) CreateQuery(ctx context.Context, query *models.Query) error {
	if err := s.repos.Forum.CreateQuery(ctx, query); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append([]models.Query{*query}, s.queries...)
	return nil
}

// CreateAnswer persists an answer, appends it locally and bumps the owning
// query's reply count.
func (s *Store) CreateAnswer(ctx context.Context, answer *models.Answer) error {
	if err := s.repos.Forum.CreateAnswer(ctx, answer); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers = append(s.answers, *answer)
	for i := range s.queries {
		if s.queries[i].ID == answer.QueryID {
			s.queries[i].Replies++
			break
		}
	}
	return nil
}

// ToggleQueryLike applies like-toggle semantics for one viewer: liking a
// query the viewer already likes removes the like. Returns the new like
// count and whether the viewer now likes the query.
func (s *Store) ToggleQueryLike(ctx context.Context, queryID, viewerID string) (int, bool, error) {
	s.mu.Lock()
	var target *models.Query
	for i := range s.queries {
		if s.queries[i].ID == queryID {
			target = &s.queries[i]
			break
		}
	}
	if target == nil {
		s.mu.Unlock()
		return 0, false, errQueryNotFound(queryID)
	}

	liked := target.LikedByViewer(viewerID)
	likes := target.Likes
	likedBy := append([]string(nil), target.LikedBy...)
	if liked {
		likes--
		filtered := likedBy[:0]
		for _, id := range likedBy {
			if id != viewerID {
				filtered = append(filtered, id)
			}
		}
		likedBy = filtered
	} else {
		likes++
		likedBy = append(likedBy, viewerID)
	}
	s.mu.Unlock()

	if err := s.repos.Forum.UpdateQueryLikes(ctx, queryID, likes, likedBy); err != nil {
		return 0, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.queries {
		if s.queries[i].ID == queryID {
			s.queries[i].Likes = likes
			s.queries[i].LikedBy = likedBy
			break
		}
	}
	return likes, !liked, nil
}

// AcceptAnswer marks one answer accepted, clearing any sibling first, and
// flags the query solved. Solving is one way; there is no unsolve.
func (s *Store) AcceptAnswer(ctx context.Context, queryID, answerID string) error {
	if err := s.repos.Forum.AcceptAnswer(ctx, queryID, answerID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.answers {
		if s.answers[i].QueryID != queryID {
			continue
		}
		s.answers[i].IsAccepted = s.answers[i].ID == answerID
	}
	for i := range s.queries {
		if s.queries[i].ID == queryID {
			s.queries[i].Solved = true
			break
		}
	}
	return nil
}

// DeleteQuery removes a query and all its answers. The repository performs
// the cascade atomically; memory changes only after it succeeded.
func (s *Store) DeleteQuery(ctx context.Context, queryID string) error {
	if err := s.repos.Forum.DeleteQueryCascade(ctx, queryID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.queries {
		if s.queries[i].ID == queryID {
			s.queries = append(s.queries[:i], s.queries[i+1:]...)
			break
		}
	}
	kept := s.answers[:0]
	for _, a := range s.answers {
		if a.QueryID != queryID {
			kept = append(kept, a)
		}
	}
	s.answers = kept
	return nil
}

// CreateStudentNote persists and prepends a student note.
func (s *Store) CreateStudentNote(ctx context.Context, note *models.StudentNote) error {
	if err := s.repos.StudentNotes.Create(ctx, note); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.studentNotes = append([]models.StudentNote{*note}, s.studentNotes...)
	return nil
}

func removeNotice(notices []models.Notice, id string) []models.Notice {
	for i := range notices {
		if notices[i].ID == id {
			return append(notices[:i], notices[i+1:]...)
		}
	}
	return notices
}
