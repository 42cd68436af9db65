package builder

import "github.com/zate/searchbar/internal/db"

// StateOf returns the builder state recorded on a stored session.
func StateOf(sess *db.Session) State {
	state := State{Query: sess.Query}
	if sess.FocusItemKey != nil {
		state.FocusOverride = &FocusOverride{ItemKey: *sess.FocusItemKey}
	}
	return state
}

// Record copies state onto sess. The caller persists it.
func Record(sess *db.Session, state State) {
	sess.Query = state.Query
	sess.FocusItemKey = nil
	if state.FocusOverride != nil {
		key := state.FocusOverride.ItemKey
		sess.FocusItemKey = &key
	}
}
