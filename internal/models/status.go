package models

// SyncStatus classifies a record's position in the sync lifecycle.
type SyncStatus string

const (
	// StatusLocal marks a record created here and never synced.
	StatusLocal SyncStatus = "local"
	// StatusModified marks a record that was synced and has been edited
	// locally since.
	StatusModified SyncStatus = "modified"
	// StatusSyncing marks a record whose upload is in flight.
	StatusSyncing SyncStatus = "syncing"
	// StatusSynced marks a record matching the last known remote value.
	StatusSynced SyncStatus = "synced"
	// StatusError marks a record whose last upload attempt failed. Not
	// terminal: the next cycle retries it.
	StatusError SyncStatus = "error"
)

// IsDirty reports whether the record is a candidate for upload.
func (s SyncStatus) IsDirty() bool {
	return s == StatusLocal || s == StatusModified || s == StatusError
}

// IsValid reports whether s is one of the known statuses.
func (s SyncStatus) IsValid() bool {
	switch s {
	case StatusLocal, StatusModified, StatusSyncing, StatusSynced, StatusError:
		return true
	}
	return false
}

// CanTransitionTo reports whether the transition s -> t is legal.
//
//	local/modified/error -> syncing  (upload attempt begins)
//	syncing              -> synced | error
//	synced               -> modified (local edit after a successful sync)
func (s SyncStatus) CanTransitionTo(t SyncStatus) bool {
	switch s {
	case StatusLocal, StatusModified, StatusError:
		return t == StatusSyncing
	case StatusSyncing:
		return t == StatusSynced || t == StatusError
	case StatusSynced:
		return t == StatusModified
	}
	return false
}

// MergeMayOverwrite reports whether a download pass is allowed to overwrite a
// local record in this status. Local edits win: local and modified records
// are never overwritten by a merge.
func (s SyncStatus) MergeMayOverwrite() bool {
	return s == StatusSynced || s == StatusError || s == StatusSyncing
}
