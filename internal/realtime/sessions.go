package realtime

import "sync"

// SessionRegistry tracks which games currently have connected players.
// A game is active while at least one registration is outstanding.
type SessionRegistry struct {
	mu    sync.Mutex
	games map[string]int
}

// NewSessionRegistry returns an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{games: make(map[string]int)}
}

// Register records a player joining gameID and returns a release handle.
// The handle is idempotent; the game stays active until every outstanding
// handle has been released.
func (r *SessionRegistry) Register(gameID string) func() {
	r.mu.Lock()
	r.games[gameID]++
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			count, ok := r.games[gameID]
			if !ok {
				return
			}
			if count <= 1 {
				delete(r.games, gameID)
				return
			}
			r.games[gameID] = count - 1
		})
	}
}

// ActiveGames reports how many distinct games have connected players.
func (r *SessionRegistry) ActiveGames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.games)
}

// Participants reports the registration count for one game.
func (r *SessionRegistry) Participants(gameID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.games[gameID]
}
