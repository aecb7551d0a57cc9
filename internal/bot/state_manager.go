package bot

import "sync"

// UserState keeps per-user preferences between messages.
type UserState struct {
	Language string
}

// StateManager manages the states of all users.
type StateManager struct {
	mu     sync.Mutex
	states map[int64]UserState
}

func NewStateManager() *StateManager {
	return &StateManager{states: make(map[int64]UserState)}
}

// SetLanguage stores the language the user picked.
func (sm *StateManager) SetLanguage(userID int64, lang string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	state := sm.states[userID]
	state.Language = lang
	sm.states[userID] = state
}

// Language returns the language the user picked, if any.
func (sm *StateManager) Language(userID int64) (string, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	state, ok := sm.states[userID]
	if !ok || state.Language == "" {
		return "", false
	}
	return state.Language, true
}
