package repositories

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Dosada05/tournament-engine/models"
)

type memoryData struct {
	tournaments map[int]models.Tournament
	teams       map[int]models.Team
	matches     map[int]models.Match
	results     map[int]models.Result
	users       map[int]models.User
	lastID      int
}

func newMemoryData() *memoryData {
	return &memoryData{
		tournaments: make(map[int]models.Tournament),
		teams:       make(map[int]models.Team),
		matches:     make(map[int]models.Match),
		results:     make(map[int]models.Result),
		users:       make(map[int]models.User),
	}
}

func (d *memoryData) clone() *memoryData {
	c := newMemoryData()
	for k, v := range d.tournaments {
		c.tournaments[k] = v
	}
	for k, v := range d.teams {
		c.teams[k] = v
	}
	for k, v := range d.matches {
		c.matches[k] = v
	}
	for k, v := range d.results {
		c.results[k] = copyResult(v)
	}
	for k, v := range d.users {
		c.users[k] = v
	}
	c.lastID = d.lastID
	return c
}

func (d *memoryData) nextID() int {
	d.lastID++
	return d.lastID
}

func copyResult(r models.Result) models.Result {
	if r.HomeReport != nil {
		rep := *r.HomeReport
		r.HomeReport = &rep
	}
	if r.AwayReport != nil {
		rep := *r.AwayReport
		r.AwayReport = &rep
	}
	return r
}

type memoryRoot struct {
	mu   sync.Mutex
	data *memoryData
}

// MemoryStore keeps everything in process memory. Transactions are
// serialized and work on a copy that replaces the live data on success.
type MemoryStore struct {
	root *memoryRoot
	data *memoryData
	inTx bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{root: &memoryRoot{data: newMemoryData()}}
}

func (s *MemoryStore) Tournaments() TournamentRepository {
	return &memoryTournamentRepository{store: s}
}

func (s *MemoryStore) Teams() TeamRepository {
	return &memoryTeamRepository{store: s}
}

func (s *MemoryStore) Matches() MatchRepository {
	return &memoryMatchRepository{store: s}
}

func (s *MemoryStore) Users() UserRepository {
	return &memoryUserRepository{store: s}
}

func (s *MemoryStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.root.mu.Lock()
	defer s.root.mu.Unlock()

	working := s.root.data.clone()
	if err := fn(&MemoryStore{root: s.root, data: working, inTx: true}); err != nil {
		return err
	}
	s.root.data = working
	return nil
}

func (s *MemoryStore) do(fn func(d *memoryData) error) error {
	if s.inTx {
		return fn(s.data)
	}
	s.root.mu.Lock()
	defer s.root.mu.Unlock()
	return fn(s.root.data)
}

type memoryTournamentRepository struct {
	store *MemoryStore
}

func (r *memoryTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	return r.store.do(func(d *memoryData) error {
		for _, existing := range d.tournaments {
			if existing.Slug == t.Slug {
				return ErrTournamentSlugConflict
			}
		}
		if t.OrganizerID != nil {
			if _, ok := d.users[*t.OrganizerID]; !ok {
				return ErrInvalidReference
			}
		}
		t.ID = d.nextID()
		t.CreatedAt = time.Now().UTC()
		stored := *t
		stored.Teams, stored.Matches = nil, nil
		d.tournaments[t.ID] = stored
		return nil
	})
}

func (r *memoryTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	var out *models.Tournament
	err := r.store.do(func(d *memoryData) error {
		t, ok := d.tournaments[id]
		if !ok {
			return ErrTournamentNotFound
		}
		out = &t
		return nil
	})
	return out, err
}

func (r *memoryTournamentRepository) GetForUpdate(ctx context.Context, id int) (*models.Tournament, error) {
	return r.GetByID(ctx, id)
}

func (r *memoryTournamentRepository) List(ctx context.Context, filter ListTournamentsFilter) ([]*models.Tournament, error) {
	out := make([]*models.Tournament, 0)
	err := r.store.do(func(d *memoryData) error {
		for _, t := range d.tournaments {
			if filter.OrganizerID != nil && (t.OrganizerID == nil || *t.OrganizerID != *filter.OrganizerID) {
				continue
			}
			if filter.Status != nil && t.Status != *filter.Status {
				continue
			}
			t := t
			out = append(out, &t)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.After(out[j].StartDate)
		}
		return out[i].ID > out[j].ID
	})
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []*models.Tournament{}, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *memoryTournamentRepository) UpdateStatus(ctx context.Context, id int, status models.TournamentStatus) error {
	return r.store.do(func(d *memoryData) error {
		t, ok := d.tournaments[id]
		if !ok {
			return ErrTournamentNotFound
		}
		t.Status = status
		d.tournaments[id] = t
		return nil
	})
}

func (r *memoryTournamentRepository) SetChampion(ctx context.Context, id int, teamID int) error {
	return r.store.do(func(d *memoryData) error {
		t, ok := d.tournaments[id]
		if !ok {
			return ErrTournamentNotFound
		}
		if _, ok := d.teams[teamID]; !ok {
			return ErrInvalidReference
		}
		t.ChampionTeamID = &teamID
		d.tournaments[id] = t
		return nil
	})
}

type memoryTeamRepository struct {
	store *MemoryStore
}

func (r *memoryTeamRepository) Create(ctx context.Context, team *models.Team) error {
	return r.store.do(func(d *memoryData) error {
		if _, ok := d.tournaments[team.TournamentID]; !ok {
			return ErrTournamentNotFound
		}
		for _, existing := range d.teams {
			if existing.TournamentID == team.TournamentID && existing.Name == team.Name {
				return ErrTeamNameConflict
			}
		}
		team.ID = d.nextID()
		team.CreatedAt = time.Now().UTC()
		d.teams[team.ID] = *team
		return nil
	})
}

func (r *memoryTeamRepository) GetByID(ctx context.Context, id int) (*models.Team, error) {
	var out *models.Team
	err := r.store.do(func(d *memoryData) error {
		team, ok := d.teams[id]
		if !ok {
			return ErrTeamNotFound
		}
		out = &team
		return nil
	})
	return out, err
}

func (r *memoryTeamRepository) ListByTournament(ctx context.Context, tournamentID int, onlyComplete bool) ([]*models.Team, error) {
	out := make([]*models.Team, 0)
	err := r.store.do(func(d *memoryData) error {
		for _, team := range d.teams {
			if team.TournamentID != tournamentID || (onlyComplete && !team.RegistrationComplete) {
				continue
			}
			team := team
			out = append(out, &team)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func (r *memoryTeamRepository) Update(ctx context.Context, team *models.Team) error {
	return r.store.do(func(d *memoryData) error {
		existing, ok := d.teams[team.ID]
		if !ok {
			return ErrTeamNotFound
		}
		for id, other := range d.teams {
			if id != team.ID && other.TournamentID == existing.TournamentID && other.Name == team.Name {
				return ErrTeamNameConflict
			}
		}
		existing.Name = team.Name
		existing.Strength = team.Strength
		existing.PlayerCount = team.PlayerCount
		existing.RegistrationComplete = team.RegistrationComplete
		d.teams[team.ID] = existing
		return nil
	})
}

type memoryMatchRepository struct {
	store *MemoryStore
}

func (r *memoryMatchRepository) Create(ctx context.Context, m *models.Match) error {
	return r.store.do(func(d *memoryData) error {
		if _, ok := d.tournaments[m.TournamentID]; !ok {
			return ErrTournamentNotFound
		}
		if _, ok := d.teams[m.HomeTeamID]; !ok {
			return ErrTeamNotFound
		}
		if _, ok := d.teams[m.AwayTeamID]; !ok {
			return ErrTeamNotFound
		}
		for _, existing := range d.matches {
			if existing.TournamentID == m.TournamentID && existing.HomeTeamID == m.HomeTeamID &&
				existing.AwayTeamID == m.AwayTeamID && existing.Stage == m.Stage {
				return ErrMatchConflict
			}
		}

		now := time.Now().UTC()
		m.ID = d.nextID()
		m.CreatedAt = now
		if m.Result == nil {
			m.Result = &models.Result{}
		}
		m.Result.ID = d.nextID()
		m.Result.MatchID = m.ID
		m.Result.CreatedAt = now
		m.Result.UpdatedAt = now

		d.matches[m.ID] = stripMatch(*m)
		d.results[m.ID] = copyResult(*m.Result)
		return nil
	})
}

func stripMatch(m models.Match) models.Match {
	m.Result, m.HomeTeam, m.AwayTeam = nil, nil, nil
	return m
}

func (d *memoryData) loadMatch(id int) (*models.Match, error) {
	m, ok := d.matches[id]
	if !ok {
		return nil, ErrMatchNotFound
	}
	res := copyResult(d.results[id])
	m.Result = &res
	return &m, nil
}

func (r *memoryMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	var out *models.Match
	err := r.store.do(func(d *memoryData) error {
		m, err := d.loadMatch(id)
		out = m
		return err
	})
	return out, err
}

func (r *memoryMatchRepository) GetForUpdate(ctx context.Context, id int) (*models.Match, error) {
	return r.GetByID(ctx, id)
}

func (r *memoryMatchRepository) ListByTournament(ctx context.Context, tournamentID int, filter ListMatchesFilter) ([]*models.Match, error) {
	out := make([]*models.Match, 0)
	err := r.store.do(func(d *memoryData) error {
		for id, m := range d.matches {
			if m.TournamentID != tournamentID {
				continue
			}
			if filter.Stage != nil && m.Stage != *filter.Stage {
				continue
			}
			if filter.Status != nil && m.Status != *filter.Status {
				continue
			}
			loaded, err := d.loadMatch(id)
			if err != nil {
				return err
			}
			out = append(out, loaded)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].MatchDate.Equal(out[j].MatchDate) {
			return out[i].MatchDate.Before(out[j].MatchDate)
		}
		if out[i].BracketSlot != out[j].BracketSlot {
			return out[i].BracketSlot < out[j].BracketSlot
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *memoryMatchRepository) Update(ctx context.Context, m *models.Match) error {
	return r.store.do(func(d *memoryData) error {
		existing, ok := d.matches[m.ID]
		if !ok {
			return ErrMatchNotFound
		}
		existing.Status = m.Status
		existing.HomeScore = m.HomeScore
		existing.AwayScore = m.AwayScore
		existing.ExtraTime = m.ExtraTime
		existing.Penalties = m.Penalties
		existing.PenaltyWinnerID = m.PenaltyWinnerID
		existing.DisputeReason = m.DisputeReason
		d.matches[m.ID] = existing

		if m.Result != nil {
			res := copyResult(*m.Result)
			res.ID = d.results[m.ID].ID
			res.MatchID = m.ID
			res.CreatedAt = d.results[m.ID].CreatedAt
			res.UpdatedAt = time.Now().UTC()
			d.results[m.ID] = res
		}
		return nil
	})
}

type memoryUserRepository struct {
	store *MemoryStore
}

func (r *memoryUserRepository) Create(ctx context.Context, user *models.User) error {
	return r.store.do(func(d *memoryData) error {
		email := strings.ToLower(user.Email)
		for _, existing := range d.users {
			if existing.Email == email {
				return ErrUserEmailConflict
			}
		}
		user.ID = d.nextID()
		user.Email = email
		user.CreatedAt = time.Now().UTC()
		d.users[user.ID] = *user
		return nil
	})
}

func (r *memoryUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	var out *models.User
	err := r.store.do(func(d *memoryData) error {
		user, ok := d.users[id]
		if !ok {
			return ErrUserNotFound
		}
		out = &user
		return nil
	})
	return out, err
}

func (r *memoryUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var out *models.User
	err := r.store.do(func(d *memoryData) error {
		email = strings.ToLower(email)
		for _, user := range d.users {
			if user.Email == email {
				user := user
				out = &user
				return nil
			}
		}
		return ErrUserNotFound
	})
	return out, err
}
