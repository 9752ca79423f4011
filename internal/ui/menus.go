package ui

const (
	ButtonFeed    = "Feed"
	ButtonNewPost = "New post"
	ButtonProfile = "Profile"
	ButtonLogout  = "Logout"
	ButtonAdmin   = "Admin"
	ButtonHistory = "History"
	ButtonCancel  = "Cancel"
)

func MainMenu(loggedIn, isAdmin bool) [][]string {
	if !loggedIn {
		return [][]string{}
	}
	rows := [][]string{
		{ButtonFeed, ButtonNewPost},
		{ButtonProfile, ButtonLogout},
	}
	if isAdmin {
		rows = append(rows, []string{ButtonAdmin, ButtonHistory})
	}
	return rows
}

func CancelMenu() [][]string {
	return [][]string{{ButtonCancel}}
}
