package models

// PackDisplay is the human-facing identity of a pack.
type PackDisplay struct {
	Name    string `json:"name"`
	Creator string `json:"creator"`
}

// UserDisplay is the human-facing identity of a user.
type UserDisplay struct {
	Handle      string `json:"handle"`
	DisplayName string `json:"display_name,omitempty"`
}

// Display resolves the fields a reader should see. Live documents show their
// own fields; deleted ones show the last known snapshot, field by field, and
// fall back to the live value where the snapshot has none.
func (p *Pack) Display() PackDisplay {
	d := PackDisplay{Name: p.Name, Creator: p.Creator}
	if !p.Deleted || p.LastKnownState == nil {
		return d
	}
	d.Name = coalesce(p.LastKnownState.Name, p.Name)
	d.Creator = coalesce(p.LastKnownState.Creator, p.Creator)
	return d
}

// Display is the user counterpart of Pack.Display.
func (u *User) Display() UserDisplay {
	d := UserDisplay{Handle: u.Handle, DisplayName: u.DisplayName}
	if !u.Deleted || u.LastKnownState == nil {
		return d
	}
	d.Handle = coalesce(u.LastKnownState.Handle, u.Handle)
	d.DisplayName = coalesce(u.LastKnownState.DisplayName, u.DisplayName)
	return d
}

func coalesce(snapshot *string, live string) string {
	if snapshot != nil {
		return *snapshot
	}
	return live
}
